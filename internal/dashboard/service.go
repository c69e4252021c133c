// v0
// internal/dashboard/service.go
package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"projetbda/analytics/internal/cache"
	"projetbda/analytics/internal/kpi"
	"projetbda/analytics/internal/ranking"
)

// Source fetches the per-period aggregates. *planner.Client satisfies it.
type Source interface {
	KPIs(ctx context.Context, periodID int64) (kpi.Snapshot, error)
	RoomDistribution(ctx context.Context, periodID int64) ([]kpi.RoomTypeUsage, error)
	TopRooms(ctx context.Context, periodID int64) ([]ranking.RoomUsage, error)
	ProfessorLoad(ctx context.Context, periodID int64) ([]ranking.ProfessorLoad, error)
	ProfessorConflicts(ctx context.Context, periodID int64) ([]ranking.Conflict, error)
}

// Recorder receives section failures. *metrics.Metrics satisfies it.
type Recorder interface {
	SectionFailed(section string)
	IntegrityError(source string)
}

// DefaultBuildTimeout bounds one shared dashboard build.
const DefaultBuildTimeout = 30 * time.Second

// Service assembles dashboards and caches complete ones per period.
type Service struct {
	src   Source
	cache *cache.Cache[Dashboard]
	rec   Recorder
	log   *slog.Logger
	now   func() time.Time
	group singleflight.Group
	// buildTimeout bounds a shared build once detached from its callers.
	buildTimeout time.Duration
}

// NewService wires a dashboard service. cache and rec may be nil.
func NewService(src Source, c *cache.Cache[Dashboard], rec Recorder, logger *slog.Logger) (*Service, error) {
	if src == nil {
		return nil, errors.New("dashboard source must not be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		src:   src,
		cache: c,
		rec:   rec,
		log:   logger.With(slog.String("component", "dashboard")),
		now:   time.Now,

		buildTimeout: DefaultBuildTimeout,
	}, nil
}

// Build returns the dashboard of periodID. The five fetches run
// concurrently; a failing fetch only marks its own section. Concurrent
// callers for the same period share one build, which runs detached from any
// single caller's cancellation and is bounded by the build timeout. A caller
// whose context ends first gets a dashboard with every section failed while
// the shared build carries on for the others.
func (s *Service) Build(ctx context.Context, periodID int64) Dashboard {
	key := cache.DashboardKey(periodID)
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d
		}
	}
	ch := s.group.DoChan(key, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.buildTimeout)
		defer cancel()
		d := s.build(buildCtx, periodID)
		if s.cache != nil && d.Complete() {
			s.cache.Set(key, cache.PeriodTag(periodID), d)
		}
		return d, nil
	})
	select {
	case res := <-ch:
		return res.Val.(Dashboard)
	case <-ctx.Done():
		s.log.Warn("dashboard_request_abandoned", slog.Int64("periodId", periodID), slog.Any("err", ctx.Err()))
		return s.abandoned(periodID, ctx.Err())
	}
}

func (s *Service) abandoned(periodID int64, err error) Dashboard {
	st := Status{Error: err.Error()}
	d := Dashboard{PeriodID: periodID, GeneratedAt: s.now().UTC()}
	d.KPIs.Status = st
	d.Distribution.Status = st
	d.TopRooms.Status = st
	d.ProfessorLoad.Status = st
	d.Conflicts.Status = st
	return d
}

// Invalidate drops cached views of periodID.
func (s *Service) Invalidate(periodID int64) int {
	if s.cache == nil {
		return 0
	}
	n := s.cache.InvalidateTag(cache.PeriodTag(periodID))
	s.log.Info("dashboard_cache_invalidated", slog.Int64("periodId", periodID), slog.Int("entries", n))
	return n
}

func (s *Service) build(ctx context.Context, periodID int64) Dashboard {
	d := Dashboard{PeriodID: periodID, GeneratedAt: s.now().UTC()}

	// Each goroutine owns one section; errors are kept per section so the
	// group never cancels the siblings.
	var g errgroup.Group
	g.Go(func() error {
		snap, err := s.src.KPIs(ctx, periodID)
		if err != nil {
			d.KPIs.Status = s.fail(SectionKPIs, periodID, err)
			return nil
		}
		d.KPIs.Snapshot = snap
		rates, err := kpi.ComputeRates(snap)
		if err != nil {
			d.KPIs.Status = s.fail(SectionKPIs, periodID, err)
			return nil
		}
		d.KPIs.Rates = rates
		d.KPIs.Breakdown, _ = kpi.ComputeBreakdown(snap)
		return nil
	})
	g.Go(func() error {
		usage, err := s.src.RoomDistribution(ctx, periodID)
		if err == nil {
			d.Distribution.Entries, err = kpi.Distribution(usage)
		}
		if err != nil {
			d.Distribution.Status = s.fail(SectionDistribution, periodID, err)
		}
		return nil
	})
	g.Go(func() error {
		rooms, err := s.src.TopRooms(ctx, periodID)
		if err != nil {
			d.TopRooms.Status = s.fail(SectionTopRooms, periodID, err)
			return nil
		}
		d.TopRooms.Rooms = ranking.RankRooms(rooms)
		return nil
	})
	g.Go(func() error {
		load, err := s.src.ProfessorLoad(ctx, periodID)
		if err != nil {
			d.ProfessorLoad.Status = s.fail(SectionProfLoad, periodID, err)
			return nil
		}
		d.ProfessorLoad.Professors = ranking.RankProfessors(load)
		return nil
	})
	g.Go(func() error {
		conflicts, err := s.src.ProfessorConflicts(ctx, periodID)
		if err != nil {
			d.Conflicts.Status = s.fail(SectionConflicts, periodID, err)
			return nil
		}
		if conflicts == nil {
			conflicts = []ranking.Conflict{}
		}
		d.Conflicts.Conflicts = conflicts
		d.Conflicts.Summary = ranking.SummarizeConflicts(conflicts)
		return nil
	})
	_ = g.Wait()

	if failed := d.Failed(); failed > 0 {
		s.log.Warn("dashboard_partial", slog.Int64("periodId", periodID), slog.Int("failedSections", failed))
	}
	return d
}

func (s *Service) fail(section string, periodID int64, err error) Status {
	integrity := errors.Is(err, kpi.ErrInvalidSnapshot)
	s.log.Error("dashboard_section_failed",
		slog.String("section", section),
		slog.Int64("periodId", periodID),
		slog.Bool("integrity", integrity),
		slog.Any("err", err),
	)
	if s.rec != nil {
		s.rec.SectionFailed(section)
		if integrity {
			s.rec.IntegrityError(section)
		}
	}
	return Status{Error: err.Error(), Integrity: integrity}
}

// ParsePeriodID reads a positive period identifier.
func ParsePeriodID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("periode_id must be a positive integer")
	}
	return id, nil
}
