package cmd

import (
	"github.com/sonit33/aarya-sub000/internal/ailink"
	"github.com/sonit33/aarya-sub000/internal/config"
	"github.com/sonit33/aarya-sub000/internal/core/engine"
	"github.com/sonit33/aarya-sub000/internal/observability"
)

// sessionClock is shared by every generation step of one process so file
// names and session folders never collide.
var sessionClock = &engine.SessionClock{}

// newAutogenerator wires the LLM gateway from configuration.
func newAutogenerator(cfg *config.Config) (*engine.Autogenerator, error) {
	if err := cfg.Require(config.NeedLLM); err != nil {
		return nil, err
	}
	gw, err := ailink.New(cfg.AILink, cfg.OpenAIKey)
	if err != nil {
		return nil, err
	}
	return &engine.Autogenerator{
		LLM:               gw,
		Clock:             sessionClock,
		Logger:            engineLogger(),
		MaxImageDimension: cfg.AILink.MaxImageDimension,
	}, nil
}

func engineLogger() engine.Logger {
	if observability.CLILogger == nil {
		return nil
	}
	return observability.CLILogger
}

func tempRoot(cfg *config.Config) string {
	if cfg.Pipeline.TempRoot != "" {
		return cfg.Pipeline.TempRoot
	}
	return engine.DefaultTempRoot
}
