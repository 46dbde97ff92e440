package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/openfabric/tokenbridge/internal/audit"
	"github.com/openfabric/tokenbridge/internal/config"
	"github.com/openfabric/tokenbridge/internal/core"
)

const StaticType = "static"

var _ core.Exchanger = (*StaticExchanger)(nil)

// StaticExchanger maps upstream tokens to fixed downstream tokens.
// Useful for local development and wiring tests, never for production.
type StaticExchanger struct {
	name   string
	tokens map[string]string
	ttl    time.Duration
}

type StaticConfig struct {
	// Tokens maps upstream token -> downstream token.
	Tokens map[string]string `mapstructure:"tokens"`

	TTL time.Duration `mapstructure:"ttl"`
}

func NewStaticExchanger(name string, conf StaticConfig) (*StaticExchanger, error) {
	if len(conf.Tokens) == 0 {
		return nil, fmt.Errorf("tokens cannot be empty for %s exchanger '%s'", StaticType, name)
	}
	ttl := conf.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StaticExchanger{
		name:   name,
		tokens: conf.Tokens,
		ttl:    ttl,
	}, nil
}

func NewStaticFromConfig(cfg config.ExchangeConfig) (*StaticExchanger, error) {
	var conf StaticConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &conf,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder for %s exchanger '%s': %w", StaticType, cfg.Name, err)
	}
	if err := decoder.Decode(cfg.Config); err != nil {
		return nil, fmt.Errorf("failed to decode config for %s exchanger '%s': %w", StaticType, cfg.Name, err)
	}

	return NewStaticExchanger(cfg.Name, conf)
}

func (e *StaticExchanger) Name() string {
	return e.name
}

func (e *StaticExchanger) Exchange(_ context.Context, upstreamToken string) (*core.TokenArtifact, error) {
	downstream, ok := e.tokens[upstreamToken]
	if !ok {
		return nil, fmt.Errorf("static exchanger '%s' has no mapping for the presented token", e.name)
	}
	return &core.TokenArtifact{
		Value:       downstream,
		Fingerprint: audit.Fingerprint(downstream),
		ExpiresAt:   time.Now().Add(e.ttl),
	}, nil
}
