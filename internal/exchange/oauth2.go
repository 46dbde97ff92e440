package exchange

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/openfabric/tokenbridge/internal/config"
	"github.com/openfabric/tokenbridge/internal/core"
)

const OAuth2Type = "oauth2"

var _ core.Exchanger = (*OAuth2Exchanger)(nil)

// OAuth2Exchanger trades upstream access tokens for downstream tokens via an
// RFC 8693 style token-exchange endpoint.
type OAuth2Exchanger struct {
	name        string
	endpoint    string
	credentials core.ExchangeCredentials
	audience    string
	httpClient  *http.Client
}

type OAuth2Config struct {
	Endpoint     string `mapstructure:"endpoint"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Audience     string `mapstructure:"audience"`

	// Timeout bounds the exchange round trip. Zero disables the client-side
	// timeout; the coordinator never adds one of its own.
	Timeout time.Duration `mapstructure:"timeout"`
}

func NewOAuth2Exchanger(name string, conf OAuth2Config) (*OAuth2Exchanger, error) {
	endpoint := strings.TrimRight(conf.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty for %s exchanger '%s'", OAuth2Type, name)
	}
	if conf.ClientID == "" {
		return nil, fmt.Errorf("client_id cannot be empty for %s exchanger '%s'", OAuth2Type, name)
	}
	if conf.ClientSecret == "" {
		return nil, fmt.Errorf("client_secret cannot be empty for %s exchanger '%s'", OAuth2Type, name)
	}
	return &OAuth2Exchanger{
		name:     name,
		endpoint: endpoint,
		credentials: core.ExchangeCredentials{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
		},
		audience:   conf.Audience,
		httpClient: &http.Client{Timeout: conf.Timeout},
	}, nil
}

func NewOAuth2FromConfig(cfg config.ExchangeConfig) (*OAuth2Exchanger, error) {
	var conf OAuth2Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &conf,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder for %s exchanger '%s': %w", OAuth2Type, cfg.Name, err)
	}
	if err := decoder.Decode(cfg.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config for %s exchanger '%s': %w", OAuth2Type, cfg.Name, err)
	}

	return NewOAuth2Exchanger(cfg.Name, conf)
}

func (e *OAuth2Exchanger) Name() string {
	return e.name
}
