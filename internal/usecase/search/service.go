package search

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ebrains-kg/kgsearch/internal/domain"
	"github.com/ebrains-kg/kgsearch/internal/domain/definition"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/facet"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/payload"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/querystring"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/request"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/result"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/state"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/tweaking"
	"github.com/ebrains-kg/kgsearch/internal/logger"
	"github.com/ebrains-kg/kgsearch/internal/metrics"
)

// Config holds query and routing settings.
type Config struct {
	Tweaking tweaking.Config
	// DefaultIndex is searched when the selected type has no index of its own.
	DefaultIndex string
	TypeIndices  map[string]string
	// BoostTypes adds the definition's type boosts to the query.
	BoostTypes bool
	TypeField  string
	// HighlightFields overrides the default highlight fields when non-nil.
	HighlightFields []string
}

// Payload is a dry-run search: the request that would be sent.
type Payload struct {
	Index string             `json:"index"`
	Body  map[string]any     `json:"body"`
	Query querystring.Result `json:"query"`
}

// TypeInfo describes a result type for clients.
type TypeInfo struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Order *int   `json:"order,omitempty"`
}

// Overview is the client-facing view of the definition.
type Overview struct {
	Types       []TypeInfo              `json:"types"`
	DefaultType string                  `json:"default_type"`
	Facets      []definition.FacetInfo  `json:"facets"`
	SortOptions []definition.SortOption `json:"sort_options"`
}

// Service turns client selections into Elasticsearch searches.
type Service struct {
	backend Searcher
	def     *definition.Definition
	builder *payload.Builder
	cfg     Config
}

// New creates a search service.
func New(backend Searcher, def *definition.Definition, cfg Config) *Service {
	if cfg.TypeField == "" {
		cfg.TypeField = payload.DefaultTypeField
	}
	opts := []payload.Option{payload.WithTypeField(cfg.TypeField)}
	if cfg.HighlightFields != nil {
		opts = append(opts, payload.WithHighlightFields(cfg.HighlightFields...))
	}
	return &Service{
		backend: backend,
		def:     def,
		builder: payload.NewBuilder(opts...),
		cfg:     cfg,
	}
}

// Prepare resolves req against the definition: default type, the type's
// facets with the selected values, sort option and query fields. It returns
// the search state and the index to search.
func (s *Service) Prepare(req *request.Request) (state.State, string, error) {
	typeName := req.Type()
	if typeName == "" {
		typeName = s.def.DefaultType()
	}

	var facets []facet.Facet
	if typeName != "" {
		fs, err := s.def.Facets(typeName)
		if err != nil {
			return state.State{}, "", fmt.Errorf("facets: %w", err)
		}
		facets = fs
	}

	byID := make(map[string]int, len(facets))
	for i, f := range facets {
		byID[f.ID()] = i
	}
	selections := req.Selections()
	for _, id := range req.SelectedIDs() {
		i, ok := byID[id]
		if !ok {
			return state.State{}, "", fmt.Errorf("%w: %q", domain.ErrUnknownFacet, id)
		}
		facets[i] = facets[i].Select(selections[id])
	}

	opt, ok := s.def.SortOption(req.Sort())
	if !ok {
		return state.State{}, "", fmt.Errorf("%w: unknown sort option %q", domain.ErrInvalidState, req.Sort())
	}

	index, shared := s.index(typeName)

	var boosted []state.BoostedType
	if s.cfg.BoostTypes {
		boosted = s.def.BoostedTypes()
	}

	st, err := state.New(state.Params{
		QueryString:  req.Query(),
		Tweaking:     s.cfg.Tweaking,
		SelectedType: typeName,
		Facets:       facets,
		Sort:         opt.Fields,
		From:         req.From(),
		Size:         req.Size(),
		QueryFields:  s.def.QueryFields(),
		BoostedTypes: boosted,
		SharedIndex:  shared,
	})
	if err != nil {
		return state.State{}, "", fmt.Errorf("search state: %w", err)
	}
	return st, index, nil
}

// index picks the index of typeName. Types without an index of their own
// share the default index and report shared.
func (s *Service) index(typeName string) (string, bool) {
	if idx, ok := s.cfg.TypeIndices[typeName]; ok && idx != "" {
		return idx, false
	}
	return s.cfg.DefaultIndex, true
}

// Search runs req against the backend and parses hits and facet counts.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	st, index, err := s.Prepare(req)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("invalid").Inc()
		return result.Response{}, err
	}

	src, analysis := s.builder.BuildAnalyzed(st)
	s.observe(ctx, req.Query(), analysis)

	raw, err := src.Source()
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return result.Response{}, fmt.Errorf("build search source: %w", err)
	}
	body, err := json.Marshal(raw)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return result.Response{}, fmt.Errorf("marshal search source: %w", err)
	}

	log := logger.FromContext(ctx)
	res, err := s.backend.Search(ctx, index, body)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		log.Warn("Search failed",
			zap.String("index", index),
			zap.String("type", st.SelectedType()),
			zap.Error(err),
		)
		return result.Response{}, fmt.Errorf("search: %w", err)
	}

	resp, err := result.Parse(res, st, s.cfg.TypeField)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return result.Response{}, fmt.Errorf("parse result: %w", err)
	}

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	log.Debug("Search completed",
		zap.String("index", index),
		zap.String("type", st.SelectedType()),
		zap.Int64("total", resp.Total),
		zap.Int64("took_ms", resp.TookMS),
	)
	return resp, nil
}

// Payload builds the request body for req without executing it.
func (s *Service) Payload(ctx context.Context, req *request.Request) (Payload, error) {
	st, index, err := s.Prepare(req)
	if err != nil {
		return Payload{}, err
	}

	src, analysis := s.builder.BuildAnalyzed(st)
	s.observe(ctx, req.Query(), analysis)

	raw, err := src.Source()
	if err != nil {
		return Payload{}, fmt.Errorf("build search source: %w", err)
	}
	body, ok := raw.(map[string]any)
	if !ok {
		return Payload{}, fmt.Errorf("build search source: unexpected %T", raw)
	}
	return Payload{Index: index, Body: body, Query: analysis}, nil
}

// Sanitize reports how the configured tweaking rewrites q.
func (s *Service) Sanitize(ctx context.Context, q string) querystring.Result {
	analysis := querystring.Analyze(q, s.cfg.Tweaking)
	s.observe(ctx, q, analysis)
	return analysis
}

func (s *Service) observe(ctx context.Context, raw string, analysis querystring.Result) {
	metrics.QuerySanitizeTotal.WithLabelValues(string(analysis.Outcome)).Inc()
	if analysis.Outcome == querystring.Escaped {
		logger.FromContext(ctx).Debug("Query did not parse, escaped",
			zap.String("query", raw),
			zap.String("sanitized", analysis.Query),
		)
	}
}

// Definition returns the ordered types, default type, facets and sort options.
func (s *Service) Definition() Overview {
	names := s.def.OrderedTypes()
	types := make([]TypeInfo, 0, len(names))
	for _, name := range names {
		t, _ := s.def.Type(name)
		types = append(types, TypeInfo{Name: t.Name, Label: t.Label, Order: t.Order})
	}
	facets := s.def.FacetInfos()
	if facets == nil {
		facets = []definition.FacetInfo{}
	}
	return Overview{
		Types:       types,
		DefaultType: s.def.DefaultType(),
		Facets:      facets,
		SortOptions: s.def.SortOptions(),
	}
}
