// internal/transforms/procurement/compare-proposals/config.go
package compareproposals

import (
	"time"

	"procurement-ai/internal/transforms/extraction"
)

type Config = extraction.Config

// LoadConfig gives comparison a longer deadline than the single-document transforms.
func LoadConfig() *Config {
	return &Config{
		Timeout:      90 * time.Second,
		MaxBodyBytes: 4 << 20,
	}
}
