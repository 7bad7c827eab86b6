// Package processor turns raw developer-activity events into canonical
// records and keeps derived record attributes consistent through a
// fixed-order recomputation pipeline.
package processor

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/prism/internal/affiliation"
	"github.com/Sumatoshi-tech/prism/internal/events"
	"github.com/Sumatoshi-tech/prism/internal/identity"
	"github.com/Sumatoshi-tech/prism/internal/modules"
	"github.com/Sumatoshi-tech/prism/internal/observability"
	"github.com/Sumatoshi-tech/prism/internal/record"
	"github.com/Sumatoshi-tech/prism/internal/storage"
)

// Approval categories that produce mark records.
const (
	KindCodeReview = "Code-Review"
	KindWorkflow   = "Workflow"
)

// ErrNoReleases reports a store whose release calendar was never seeded.
// Release stamping needs at least one boundary to map dates onto.
var ErrNoReleases = errors.New("store has no release calendar, run seed first")

// Processor is the single-writer pipeline over one runtime store. It is
// not safe for concurrent use; concurrent runs must be serialized by the
// caller.
type Processor struct {
	store    storage.Store
	resolver *identity.Resolver
	index    *affiliation.Index
	calendar *affiliation.Calendar
	registry *modules.Registry
	logger   *slog.Logger
	metrics  *observability.PipelineMetrics
	now      func() time.Time

	coreWindow time.Duration
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the processor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithMetrics attaches pipeline metric instruments.
func WithMetrics(metrics *observability.PipelineMetrics) Option {
	return func(p *Processor) { p.metrics = metrics }
}

// WithClock overrides the time source used by the core-contributor window.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithCoreWindow overrides how far back review votes count towards
// core-contributor status.
func WithCoreWindow(window time.Duration) Option {
	return func(p *Processor) { p.coreWindow = window }
}

// New builds a processor over the store, loading the company-domain index,
// the release calendar and the module registry from it. The registry is
// built here once; constructing a new Processor is the explicit way to
// invalidate it. An unseeded store fails with ErrNoReleases.
func New(store storage.Store, opts ...Option) (*Processor, error) {
	p := &Processor{
		store:      store,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		coreWindow: DefaultCoreWindow,
	}

	for _, opt := range opts {
		opt(p)
	}

	domains, err := store.CompanyDomains()
	if err != nil {
		return nil, err
	}

	releases, err := store.Releases()
	if err != nil {
		return nil, err
	}

	if len(releases) == 0 {
		return nil, ErrNoReleases
	}

	repos, err := store.Repos()
	if err != nil {
		return nil, err
	}

	p.index = affiliation.NewIndex(domains)
	p.calendar = affiliation.NewCalendar(releases, p.logger)
	p.registry = modules.NewRegistry(repos)
	p.resolver = identity.NewResolver(store, p.index, p.logger)

	return p, nil
}

// Process normalizes a stream of raw events into canonical records:
// type-based fan-out, robots filtering, then week and release stamping.
// It is a single forward pass; the result streams one record at a time.
func (p *Processor) Process(ctx context.Context, eventSeq iter.Seq2[*events.Event, error]) storage.RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		for event, err := range eventSeq {
			if err != nil {
				yield(nil, err)

				return
			}

			records, normErr := p.normalize(event)
			if normErr != nil {
				yield(nil, normErr)

				return
			}

			for _, rec := range records {
				if rec.CompanyName == record.CompanyRobots {
					p.metrics.RecordDropped(ctx, "robots")

					continue
				}

				p.stampDate(rec)
				p.metrics.RecordEmitted(ctx, rec.Type)

				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

func (p *Processor) normalize(event *events.Event) ([]*record.Record, error) {
	switch event.Type {
	case events.TypeCommit:
		if event.Commit != nil {
			return p.processCommit(event.Commit)
		}
	case events.TypeReview:
		if event.Review != nil {
			return p.processReview(event.Review)
		}
	case events.TypeEmail:
		if event.Email != nil {
			return p.processEmail(event.Email)
		}
	case events.TypeBlueprint:
		if event.Blueprint != nil {
			return p.processBlueprint(event.Blueprint)
		}
	case events.TypeMember:
		if event.Member != nil {
			return p.processMember(event.Member)
		}
	default:
		p.logger.Debug("skipping event of unknown type", slog.String("record_type", event.Type))
	}

	return nil, nil
}

// stampDate recomputes the week bucket and fills the release from the
// calendar unless an explicit override was pre-supplied.
func (p *Processor) stampDate(rec *record.Record) {
	rec.Week = record.Week(rec.Date)

	if rec.Release == "" {
		rec.Release = p.calendar.Release(rec.Date)
	}
}

// restampDate recomputes both week and release after a date change.
func (p *Processor) restampDate(rec *record.Record) {
	rec.Week = record.Week(rec.Date)
	rec.Release = p.calendar.Release(rec.Date)
}
