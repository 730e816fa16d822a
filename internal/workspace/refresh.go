package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/PMForge/internal/adapter/otel"
	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/eventbus"
)

// Result is the outcome of a full refresh. Nil entities were not fetched,
// either because they do not exist or because the fetch failed; failures
// are listed in Errors.
type Result struct {
	Project *project.Project
	PRD     *document.PRD
	Spec    *document.Spec
	Errors  []string
}

// OK reports whether every fetch succeeded.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

// Refresher pulls the current project state from the API and publishes it
// on the bus. It never retries.
type Refresher struct {
	reader  ProjectReader
	bus     *eventbus.Bus
	source  update.Source
	metrics *otel.Metrics
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithSource sets the source stamped on refresh events. The default is
// ai-agent: refreshes exist to surface changes the agent made.
func WithSource(src update.Source) RefresherOption {
	return func(r *Refresher) { r.source = src }
}

// WithRefreshMetrics records refresh counts and durations on m.
func WithRefreshMetrics(m *otel.Metrics) RefresherOption {
	return func(r *Refresher) { r.metrics = m }
}

// NewRefresher creates a Refresher that publishes on bus.
func NewRefresher(reader ProjectReader, bus *eventbus.Bus, opts ...RefresherOption) *Refresher {
	r := &Refresher{reader: reader, bus: bus, source: update.SourceAgent}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Refresh fetches the project, PRD and Spec, waits for all three, then
// emits exactly one "all" event with whatever was retrieved. A missing PRD
// or Spec is absence, not an error.
func (r *Refresher) Refresh(ctx context.Context, projectID string) Result {
	return r.RefreshAs(ctx, projectID, r.source)
}

// RefreshAs is Refresh with an explicit event source. Loading a project on
// mount uses it so the initial state raises no agent notifications.
func (r *Refresher) RefreshAs(ctx context.Context, projectID string, src update.Source) Result {
	ctx, span := otel.StartRefreshSpan(ctx, projectID, string(update.TypeAll))
	start := time.Now()

	var (
		res                      Result
		projErr, prdErr, specErr error
		g                        errgroup.Group
	)
	// Each fetch owns its variables; no goroutine cancels the others.
	g.Go(func() error {
		res.Project, projErr = r.reader.GetProject(ctx, projectID)
		return nil
	})
	g.Go(func() error {
		res.PRD, prdErr = r.reader.GetPRD(ctx, projectID)
		return nil
	})
	g.Go(func() error {
		res.Spec, specErr = r.reader.GetSpec(ctx, projectID)
		return nil
	})
	_ = g.Wait()

	if projErr != nil {
		res.Project = nil
		res.Errors = append(res.Errors, fmt.Sprintf("project: %v", projErr))
		slog.WarnContext(ctx, "refresh: project fetch failed", "project_id", projectID, "error", projErr)
	}
	res.PRD = absorbNotFound(ctx, res.PRD, prdErr, "prd", projectID, &res.Errors)
	res.Spec = absorbNotFound(ctx, res.Spec, specErr, "spec", projectID, &res.Errors)

	r.bus.EmitAll(ctx, projectID, res.Project, res.PRD, res.Spec, src)

	var err error
	if !res.OK() {
		err = errors.New(res.Errors[0])
	}
	r.record(ctx, string(update.TypeAll), start, len(res.Errors))
	otel.EndSpan(span, err)
	return res
}

// absorbNotFound returns v when err is nil, nil on not-found, and records
// any other failure.
func absorbNotFound[T any](ctx context.Context, v *T, err error, what, projectID string, errs *[]string) *T {
	switch {
	case err == nil:
		return v
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		*errs = append(*errs, fmt.Sprintf("%s: %v", what, err))
		slog.WarnContext(ctx, "refresh: "+what+" fetch failed", "project_id", projectID, "error", err)
		return nil
	}
}

// RefreshPRD fetches the PRD and emits a "prd" event. A project without a
// PRD yields nil, nil and no event.
func (r *Refresher) RefreshPRD(ctx context.Context, projectID string) (prd *document.PRD, err error) {
	ctx, span := otel.StartRefreshSpan(ctx, projectID, string(update.TypePRD))
	start := time.Now()
	defer func() {
		r.record(ctx, string(update.TypePRD), start, errCount(err))
		otel.EndSpan(span, err)
	}()

	prd, err = r.reader.GetPRD(ctx, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh prd: %w", err)
	}
	r.bus.EmitPRD(ctx, projectID, prd, r.source)
	return prd, nil
}

// RefreshSpec fetches the Spec and emits a "spec" event. A project without
// a Spec yields nil, nil and no event.
func (r *Refresher) RefreshSpec(ctx context.Context, projectID string) (spec *document.Spec, err error) {
	ctx, span := otel.StartRefreshSpan(ctx, projectID, string(update.TypeSpec))
	start := time.Now()
	defer func() {
		r.record(ctx, string(update.TypeSpec), start, errCount(err))
		otel.EndSpan(span, err)
	}()

	spec, err = r.reader.GetSpec(ctx, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh spec: %w", err)
	}
	r.bus.EmitSpec(ctx, projectID, spec, r.source)
	return spec, nil
}

func (r *Refresher) record(ctx context.Context, scope string, start time.Time, failures int) {
	if r.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("refresh.scope", scope))
	r.metrics.Refreshes.Add(ctx, 1, attrs)
	r.metrics.RefreshDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if failures > 0 {
		r.metrics.RefreshErrors.Add(ctx, int64(failures), attrs)
	}
}

func errCount(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
