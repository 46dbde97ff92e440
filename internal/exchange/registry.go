package exchange

import (
	"fmt"

	"github.com/openfabric/tokenbridge/internal/config"
	"github.com/openfabric/tokenbridge/internal/core"
)

// NewFromConfig builds the configured exchanger.
func NewFromConfig(cfg config.ExchangeConfig) (core.Exchanger, error) {
	switch cfg.Type {
	case OAuth2Type:
		ex, err := NewOAuth2FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("building oauth2 exchanger %q: %w", cfg.Name, err)
		}
		return ex, nil
	case StaticType:
		ex, err := NewStaticFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("building static exchanger %q: %w", cfg.Name, err)
		}
		return ex, nil
	default:
		return nil, fmt.Errorf("unknown exchanger type %q for exchanger %q", cfg.Type, cfg.Name)
	}
}
