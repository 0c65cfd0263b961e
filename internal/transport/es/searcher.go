// Package es executes search request bodies against Elasticsearch.
package es

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ebrains-kg/kgsearch/internal/domain"
	"github.com/ebrains-kg/kgsearch/internal/logger"
	"github.com/ebrains-kg/kgsearch/internal/metrics"
)

// Searcher runs search requests through the olivere client.
type Searcher struct {
	client *elastic.Client
	url    string
	logger *zap.Logger
}

// Config holds the Elasticsearch connection settings.
type Config struct {
	URLs     []string
	Username string
	Password string
	Timeout  time.Duration
	// Retries is the number of retries on connection failures.
	Retries int
	Logger  *zap.Logger
}

// NewSearcher creates a client without sniffing or background health checks;
// nodes are reached at the configured URLs only.
func NewSearcher(cfg *Config) (*Searcher, error) {
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("elasticsearch urls are required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URLs...),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetHttpClient(&http.Client{Timeout: cfg.Timeout}),
		elastic.SetErrorLog(logger.NewPrintf(log.Named("elastic"), zapcore.WarnLevel)),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}
	if cfg.Retries > 0 {
		ticks := make([]int, cfg.Retries)
		for i := range ticks {
			ticks[i] = 100 * (i + 1)
		}
		opts = append(opts, elastic.SetRetrier(elastic.NewBackoffRetrier(elastic.NewSimpleBackoff(ticks...))))
	}

	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Searcher{client: client, url: cfg.URLs[0], logger: log}, nil
}

// Search posts body to the _search endpoint of index. An empty index searches
// all indices.
func (s *Searcher) Search(ctx context.Context, index string, body []byte) (*elastic.SearchResult, error) {
	svc := s.client.Search().Source(json.RawMessage(body))
	label := "_all"
	if index != "" {
		svc = svc.Index(index)
		label = index
	}

	start := time.Now()
	res, err := svc.Do(ctx)
	duration := time.Since(start)

	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(label, "error").Inc()
		return nil, parseAPIError(err)
	}

	metrics.BackendRequestsTotal.WithLabelValues(label, "success").Inc()
	metrics.BackendRequestDuration.WithLabelValues(label).Observe(duration.Seconds())

	if res.TimedOut {
		s.logger.Warn("Search timed out on some shards", zap.String("index", label))
	}
	return res, nil
}

// HealthCheck pings the first configured node.
func (s *Searcher) HealthCheck(ctx context.Context) error {
	_, code, err := s.client.Ping(s.url).Do(ctx)
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	if code >= http.StatusMultipleChoices {
		return fmt.Errorf("ping elasticsearch: status %d", code)
	}
	return nil
}

// Stop releases the client's background resources.
func (s *Searcher) Stop() {
	s.client.Stop()
}

// parseAPIError extracts the Elasticsearch error reason.
// All errors are wrapped with domain.ErrBackendUnavailable for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrBackendUnavailable

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("elasticsearch request: %w: %w", err, wrap)
	}

	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		if esErr.Details != nil {
			return fmt.Errorf("elasticsearch error %d: %s: %s: %w",
				esErr.Status, esErr.Details.Type, esErr.Details.Reason, wrap)
		}
		return fmt.Errorf("elasticsearch error %d: %w", esErr.Status, wrap)
	}

	if elastic.IsConnErr(err) {
		return fmt.Errorf("elasticsearch unreachable: %w", wrap)
	}

	return fmt.Errorf("elasticsearch request failed: %w", wrap)
}
