package config

import (
	"fmt"
	"strings"
)

// Need names a group of required environment variables.
type Need int

const (
	NeedStore Need = iota + 1
	NeedLLM
)

// MissingEnvError lists required variables that are unset.
type MissingEnvError struct {
	Vars []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Vars, ", "))
}

// Require checks the variables behind each need.
func (c *Config) Require(needs ...Need) error {
	var missing []string
	for _, need := range needs {
		switch need {
		case NeedStore:
			if strings.TrimSpace(c.Store.ConnectionString) == "" {
				missing = append(missing, EnvConnectionString)
			}
			if strings.TrimSpace(c.Store.Name) == "" {
				missing = append(missing, EnvDBName)
			}
		case NeedLLM:
			if strings.TrimSpace(c.OpenAIKey) == "" {
				missing = append(missing, EnvOpenAIKey)
			}
		}
	}
	if len(missing) > 0 {
		return &MissingEnvError{Vars: missing}
	}
	return nil
}
