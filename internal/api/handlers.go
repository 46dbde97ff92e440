package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/openfabric/tokenbridge/internal/api/presenter"
	"github.com/openfabric/tokenbridge/internal/buildinfo"
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.GetBuildInfo(), http.StatusOK)
}

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		// strip parameters like "; charset=utf-8"
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return errors.New("unsupported content type")
		}
		contentType = mediaType
	}

	switch contentType {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}
