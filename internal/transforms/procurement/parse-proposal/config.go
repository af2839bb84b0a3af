// internal/transforms/procurement/parse-proposal/config.go
package parseproposal

import (
	"time"

	"procurement-ai/internal/transforms/extraction"
)

type Config = extraction.Config

func LoadConfig() *Config {
	return &Config{
		Timeout:      45 * time.Second,
		MaxBodyBytes: 1 << 20,
	}
}
