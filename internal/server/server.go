// Package server assembles the transform endpoints, the catalog and the
// health/metrics routes into one http.Handler.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"procurement-ai/internal/common/config"
	apperrors "procurement-ai/internal/common/errors"
	"procurement-ai/internal/common/genai"
	commonhttp "procurement-ai/internal/common/http"
	"procurement-ai/internal/common/logger"
	"procurement-ai/internal/transforms/extraction"
	cmp "procurement-ai/internal/transforms/procurement/compare-proposals"
	pp "procurement-ai/internal/transforms/procurement/parse-proposal"
	pr "procurement-ai/internal/transforms/procurement/parse-rfp"
	"procurement-ai/pkg/registry"
)

const CatalogVersion = "1.0.0"

// Check reports whether a dependency is reachable. Used by /ready.
type Check func(ctx context.Context) error

type Dependencies struct {
	Config    *config.Config
	Completer genai.Completer
	Logger    logger.Logger

	// Optional collaborators. Nil disables the feature.
	Cache    extraction.ResultCache
	CacheKey func(transform string, canonical []byte) string
	Audit    extraction.AuditRecorder
	Recorder extraction.RequestRecorder

	Checks map[string]Check
}

type transform struct {
	id       string
	describe func() registry.Transform
	defaults func() *extraction.Config
	build    func(cfg *extraction.Config, completer genai.Completer, log logger.Logger, opts ...extraction.Option) (http.Handler, error)
}

var transforms = []transform{
	{
		id:       pr.TaskType,
		describe: pr.Describe,
		defaults: pr.LoadConfig,
		build: func(cfg *extraction.Config, c genai.Completer, log logger.Logger, opts ...extraction.Option) (http.Handler, error) {
			return pr.NewHandler(cfg, c, log, opts...)
		},
	},
	{
		id:       pp.TaskType,
		describe: pp.Describe,
		defaults: pp.LoadConfig,
		build: func(cfg *extraction.Config, c genai.Completer, log logger.Logger, opts ...extraction.Option) (http.Handler, error) {
			return pp.NewHandler(cfg, c, log, opts...)
		},
	},
	{
		id:       cmp.TaskType,
		describe: cmp.Describe,
		defaults: cmp.LoadConfig,
		build: func(cfg *extraction.Config, c genai.Completer, log logger.Logger, opts ...extraction.Option) (http.Handler, error) {
			return cmp.NewHandler(cfg, c, log, opts...)
		},
	},
}

// NewCompleter builds the upstream client shared by every transform. The HTTP
// client carries no timeout: each transform's context deadline bounds the call.
func NewCompleter(cfg *config.Config) *genai.Client {
	return genai.NewClient(&genai.Config{
		BaseURL: cfg.APIs.GenAI.BaseURL,
		APIKey:  cfg.APIs.GenAI.APIKey,
		Model:   cfg.APIs.GenAI.Model,
	}, commonhttp.NewClient(0))
}

// settings starts from the transform's own defaults and applies the configured
// overrides. server.max_body_bytes only raises the body limit.
func (t transform) settings(cfg *config.Config) (*extraction.Config, config.TransformConfig) {
	tcfg := config.GetTransformConfig(cfg, t.id)
	ecfg := t.defaults()
	if tcfg.Timeout > 0 {
		ecfg.Timeout = config.GetDuration(tcfg.Timeout)
	}
	if tcfg.CacheTTL > 0 {
		ecfg.CacheTTL = time.Duration(tcfg.CacheTTL) * time.Second
	}
	if cfg.Server.MaxBodyBytes > ecfg.MaxBodyBytes {
		ecfg.MaxBodyBytes = cfg.Server.MaxBodyBytes
	}
	return ecfg, tcfg
}

// BuildCatalog describes every known transform with its route and settings from cfg.
func BuildCatalog(cfg *config.Config) *registry.Catalog {
	cat := &registry.Catalog{
		Version:     CatalogVersion,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	for _, t := range transforms {
		entry := t.describe()
		ecfg, tcfg := t.settings(cfg)
		entry.Path = routePath(cfg.Server.BasePath, t.id)
		entry.Enabled = tcfg.Enabled
		entry.Timeout = ecfg.Timeout.String()
		cat.Transforms = append(cat.Transforms, entry)
	}
	cat.Sort()
	return cat
}

// New builds the router. Disabled transforms are not routed.
func New(deps Dependencies) (http.Handler, error) {
	cfg := deps.Config
	log := deps.Logger
	mux := http.NewServeMux()

	var opts []extraction.Option
	if deps.Cache != nil && deps.CacheKey != nil {
		opts = append(opts, extraction.WithCache(deps.Cache, deps.CacheKey))
	}
	if deps.Audit != nil {
		opts = append(opts, extraction.WithAudit(deps.Audit))
	}
	if deps.Recorder != nil {
		opts = append(opts, extraction.WithRequestRecorder(deps.Recorder))
	}

	writeTimeout := config.GetDuration(cfg.Server.WriteTimeout)
	for _, t := range transforms {
		ecfg, tcfg := t.settings(cfg)
		if !tcfg.Enabled {
			log.Info("transform disabled", map[string]interface{}{"transform": t.id})
			continue
		}
		if writeTimeout > 0 && ecfg.Timeout >= writeTimeout {
			return nil, fmt.Errorf("%s: deadline %s must be shorter than server.write_timeout %s", t.id, ecfg.Timeout, writeTimeout)
		}

		h, err := t.build(ecfg, deps.Completer, log, opts...)
		if err != nil {
			return nil, fmt.Errorf("build %s handler: %w", t.id, err)
		}

		path := routePath(cfg.Server.BasePath, t.id)
		mux.Handle(path, h)
		log.Info("transform registered", map[string]interface{}{
			"transform": t.id,
			"path":      path,
			"timeout":   ecfg.Timeout.String(),
			"cacheTTL":  ecfg.CacheTTL.String(),
		})
	}

	catalog := BuildCatalog(cfg)
	mux.HandleFunc("GET "+basePath(cfg.Server.BasePath), func(w http.ResponseWriter, r *http.Request) {
		for k, v := range extraction.CORSHeaders {
			w.Header().Set(k, v)
		}
		apperrors.WriteJSON(w, http.StatusOK, catalog)
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /ready", readyHandler(deps.Checks, log))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux, nil
}

func readyHandler(checks map[string]Check, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			log.Warn("readiness check failed", map[string]interface{}{"failed": failed})
			apperrors.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"failed": failed,
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}

		apperrors.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func basePath(p string) string {
	p = "/" + strings.Trim(p, "/")
	return p
}

func routePath(base, id string) string {
	b := basePath(base)
	if b == "/" {
		return "/" + id
	}
	return b + "/" + id
}
