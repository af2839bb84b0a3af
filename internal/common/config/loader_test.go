package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "key-from-env")
	t.Setenv("GENAI_BASE_URL", "")

	cfg, err := LoadFromFile(writeConfig(t, `
apis:
  genai:
    base_url: ${GENAI_BASE_URL}
    api_key: ${GENAI_API_KEY}
transforms:
  compare-proposals:
    enabled: false
    timeout: 90000
    cache_ttl: 600
`))
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.APIs.GenAI.APIKey)
	assert.Equal(t, "https://ai.gateway.lovable.dev/v1", cfg.APIs.GenAI.BaseURL)
	assert.Equal(t, "google/gemini-3-flash-preview", cfg.APIs.GenAI.Model)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "/functions/v1", cfg.Server.BasePath)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "procurement-ai", cfg.Observability.ServiceName)

	rfp := GetTransformConfig(cfg, TransformParseRFP)
	assert.True(t, rfp.Enabled)
	assert.Equal(t, 0, rfp.Timeout)
	assert.Equal(t, 0, rfp.CacheTTL)

	compare := GetTransformConfig(cfg, TransformCompareProposals)
	assert.False(t, IsTransformEnabled(cfg, TransformCompareProposals))
	assert.Equal(t, 90000, compare.Timeout)
	assert.Equal(t, 600, compare.CacheTTL)

	assert.Equal(t, 90*time.Second, GetDuration(compare.Timeout))
	assert.Equal(t, 100000, cfg.Server.WriteTimeout)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing api key",
			body:    "apis:\n  genai:\n    model: m\n",
			wantErr: "apis.genai.api_key is required",
		},
		{
			name:    "audit without postgres host",
			body:    "apis:\n  genai:\n    api_key: k\naudit:\n  enabled: true\n",
			wantErr: "database.postgres.host is required when audit is enabled",
		},
		{
			name:    "redis without address",
			body:    "apis:\n  genai:\n    api_key: k\ndatabase:\n  redis:\n    enabled: true\n",
			wantErr: "database.redis.address is required when redis is enabled",
		},
		{
			name:    "negative cache ttl",
			body:    "apis:\n  genai:\n    api_key: k\ntransforms:\n  parse-rfp:\n    enabled: true\n    cache_ttl: -1\n",
			wantErr: "transforms.parse-rfp.cache_ttl must not be negative",
		},
		{
			name:    "transform deadline outlives write timeout",
			body:    "apis:\n  genai:\n    api_key: k\nserver:\n  write_timeout: 90000\ntransforms:\n  compare-proposals:\n    enabled: true\n    timeout: 90000\n",
			wantErr: "server.write_timeout must exceed transforms.compare-proposals.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GENAI_API_KEY", "")

			_, err := LoadFromFile(writeConfig(t, tt.body))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "procurement", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=procurement sslmode=disable", p.GetDSN())
}
