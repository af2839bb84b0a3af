// internal/transforms/procurement/parse-rfp/config.go
package parserfp

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
