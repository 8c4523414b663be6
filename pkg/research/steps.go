package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Step names, in execution order.
const (
	StepGenerateQueries = "generate_queries"
	StepSearchWeb       = "search_web"
	StepExtractFindings = "extract_findings"
	StepGenerateSummary = "generate_summary"
)

// Config tunes the step bodies.
type Config struct {
	// MaxQueries caps the number of search queries kept from the model.
	MaxQueries int `yaml:"max_queries" validate:"gte=0"`
	// SearchConcurrency bounds the number of searches in flight.
	SearchConcurrency int `yaml:"search_concurrency" validate:"gte=0"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{MaxQueries: 3, SearchConcurrency: 3}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxQueries <= 0 {
		c.MaxQueries = d.MaxQueries
	}
	if c.SearchConcurrency <= 0 {
		c.SearchConcurrency = d.SearchConcurrency
	}
	return c
}

// Steps holds the collaborators shared by the research step bodies.
// It carries no per-run state and is safe for concurrent use.
type Steps struct {
	model    ports.LanguageModel
	searcher ports.Searcher
	cfg      Config
	logger   *slog.Logger
}

// Option configures Steps.
type Option func(*Steps)

// WithLogger sets the logger used to report degraded step output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Steps) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the default step settings.
func WithConfig(cfg Config) Option {
	return func(s *Steps) {
		s.cfg = cfg.withDefaults()
	}
}

// New creates the research steps.
func New(model ports.LanguageModel, searcher ports.Searcher, opts ...Option) *Steps {
	s := &Steps{
		model:    model,
		searcher: searcher,
		cfg:      DefaultConfig(),
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateQueries asks the model for search queries about the topic.
// Any response that does not yield at least one query falls back to the topic itself.
func (s *Steps) GenerateQueries(ctx context.Context, state domain.State) (domain.Partial, error) {
	content, err := s.model.Complete(ctx, queriesSystemPrompt, "Topic: "+state.Topic)
	if err != nil {
		return domain.Partial{}, fmt.Errorf("generate queries: %w", err)
	}

	queries, err := parseList(content)
	if err != nil {
		s.logger.Warn("could not parse queries, using topic", "step", StepGenerateQueries, "err", err)
		queries = nil
	}
	queries = compact(queries)
	if len(queries) == 0 {
		queries = []string{state.Topic}
	}
	if len(queries) > s.cfg.MaxQueries {
		queries = queries[:s.cfg.MaxQueries]
	}

	s.logger.Debug("queries generated", "step", StepGenerateQueries, "count", len(queries))
	return domain.Partial{}.WithSearchQueries(queries), nil
}

// SearchWeb runs one search per query concurrently and returns all results
// in query order. A failing query is logged and contributes nothing.
func (s *Steps) SearchWeb(ctx context.Context, state domain.State) (domain.Partial, error) {
	queries := state.SearchQueries
	perQuery := make([][]domain.SearchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SearchConcurrency)
	for i, query := range queries {
		g.Go(func() error {
			results, err := s.searcher.Search(gctx, query)
			switch {
			case err == nil:
				perQuery[i] = results
				return nil
			case errors.Is(err, ports.ErrNotConfigured):
				return fmt.Errorf("search %q: %w", query, err)
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				s.logger.Warn("search failed", "step", StepSearchWeb, "query", query, "err", err)
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Partial{}, err
	}

	var all []domain.SearchResult
	for _, results := range perQuery {
		all = append(all, results...)
	}

	s.logger.Debug("search completed", "step", StepSearchWeb, "queries", len(queries), "results", len(all))
	return domain.Partial{}.WithSearchResults(all), nil
}

// ExtractFindings asks the model for key findings from the accumulated results.
func (s *Steps) ExtractFindings(ctx context.Context, state domain.State) (domain.Partial, error) {
	if len(state.SearchResults) == 0 {
		s.logger.Debug("no search results to process", "step", StepExtractFindings)
		return domain.Partial{}.WithKeyFindings([]string{NoResultsFinding}), nil
	}

	var sources strings.Builder
	for i, r := range state.SearchResults {
		if i > 0 {
			sources.WriteString("\n\n")
		}
		content := r.Content
		if content == "" {
			content = missingContent
		}
		fmt.Fprintf(&sources, "Source %d: %s", i+1, content)
	}

	user := fmt.Sprintf("Topic: %s\n\nSearch Results:\n%s", state.Topic, sources.String())
	content, err := s.model.Complete(ctx, findingsSystemPrompt, user)
	if err != nil {
		return domain.Partial{}, fmt.Errorf("extract findings: %w", err)
	}

	findings, err := parseList(content)
	if err != nil {
		s.logger.Warn("could not parse findings, keeping raw analysis", "step", StepExtractFindings, "err", err)
		findings = []string{analysisFallback(content)}
	}
	findings = compact(findings)
	if len(findings) == 0 {
		findings = []string{UnableFinding}
	}

	return domain.Partial{}.WithKeyFindings(findings), nil
}

func analysisFallback(content string) string {
	if strings.TrimSpace(content) == "" {
		return UnableFinding
	}
	return AnalysisPrefix + truncateRunes(content, analysisLimitRunes)
}

// GenerateSummary asks the model to synthesize the findings. The response is used verbatim.
func (s *Steps) GenerateSummary(ctx context.Context, state domain.State) (domain.Partial, error) {
	var findings strings.Builder
	for i, f := range state.KeyFindings {
		if i > 0 {
			findings.WriteByte('\n')
		}
		fmt.Fprintf(&findings, "%d. %s", i+1, f)
	}

	user := fmt.Sprintf("Topic: %s\n\nKey Findings:\n%s\n\nGenerate summary:", state.Topic, findings.String())
	summary, err := s.model.Complete(ctx, summarySystemPrompt, user)
	if err != nil {
		return domain.Partial{}, fmt.Errorf("generate summary: %w", err)
	}

	s.logger.Debug("summary generated", "step", StepGenerateSummary, "chars", len(summary))
	return domain.Partial{}.WithSummary(summary), nil
}
