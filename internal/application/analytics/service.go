// Package analytics loads a family's ratings and reduces them into the
// dashboard views.  Every view is computed fresh per request; concurrent
// identical requests share one computation but nothing is cached.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	domain "github.com/yumzoom/yumzoom/internal/domain/analytics"
	"github.com/yumzoom/yumzoom/internal/domain/family"
	"github.com/yumzoom/yumzoom/internal/domain/rating"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/prometheus"
	"github.com/yumzoom/yumzoom/pkg/errors"
	"github.com/yumzoom/yumzoom/pkg/types/common"
)

// LoadFailedMessage is the only message callers see when a fetch fails.
const LoadFailedMessage = "failed to load analytics"

// Query selects the family and window of a view.
type Query struct {
	UserID string
	Range  string
	// Limit overrides the popular restaurant limit when positive.
	Limit int
	// Compare requests trends against the previous window even when the
	// service default is off.
	Compare bool
	// MemberID narrows member activity to one family member.
	MemberID string
	// Page and PageSize select a page of the member list.  A non-positive
	// PageSize means every member.
	Page     int
	PageSize int
}

func (q Query) flightKey(view string, r domain.Range) string {
	return fmt.Sprintf("%s|%s|%s|%d|%t|%s|%d|%d", view, q.UserID, r, q.Limit, q.Compare, q.MemberID, q.Page, q.PageSize)
}

// MemberActivityPage is one page of member summaries.
type MemberActivityPage struct {
	Members    []domain.MemberActivity `json:"members"`
	Pagination common.Pagination       `json:"pagination"`
}

// Service computes the family analytics views.
//
// A Query without a UserID yields nil results and no error.
type Service interface {
	GetDashboard(ctx context.Context, q Query) (*domain.Dashboard, error)
	GetInsights(ctx context.Context, q Query) (*domain.FamilyInsights, error)
	GetPopularRestaurants(ctx context.Context, q Query) ([]domain.PopularRestaurant, error)
	GetCuisinePreferences(ctx context.Context, q Query) ([]domain.CuisinePreference, error)
	GetMemberActivity(ctx context.Context, q Query) (*MemberActivityPage, error)
}

// Option configures the service.
type Option func(*serviceImpl)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

// WithPopularLimit sets the default popular restaurant limit.
func WithPopularLimit(n int) Option {
	return func(s *serviceImpl) {
		if n > 0 {
			s.popularLimit = n
		}
	}
}

// WithFetchTimeout bounds the data loading of one view.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *serviceImpl) { s.fetchTimeout = d }
}

// WithMemberConcurrency bounds the per-member fetches in flight.
func WithMemberConcurrency(n int) Option {
	return func(s *serviceImpl) {
		if n > 0 {
			s.memberConcurrency = n
		}
	}
}

// WithTrendComparison enables period-over-period trends.  Disabled, every
// trend is reported as stable.
func WithTrendComparison(enabled bool) Option {
	return func(s *serviceImpl) { s.compare = enabled }
}

// WithMetrics records view latency and outcome.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

type serviceImpl struct {
	ratings rating.Repository
	members family.Repository
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	now     func() time.Time
	group   singleflight.Group

	popularLimit      int
	fetchTimeout      time.Duration
	memberConcurrency int
	compare           bool
}

// NewService creates the analytics service.
func NewService(ratings rating.Repository, members family.Repository, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		ratings:           ratings,
		members:           members,
		logger:            logger.Named("analytics"),
		metrics:           prometheus.NewNoopAppMetrics(),
		now:               time.Now,
		popularLimit:      domain.DefaultPopularLimit,
		fetchTimeout:      10 * time.Second,
		memberConcurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) GetDashboard(ctx context.Context, q Query) (*domain.Dashboard, error) {
	if q.UserID == "" {
		return nil, nil
	}
	compare := s.compareFor(q)
	v, err := s.run(ctx, "dashboard", q, func(ctx context.Context, w domain.Window) (interface{}, int, error) {
		var (
			current, previous []rating.Record
			members           []family.Member
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			current, err = s.ratings.ListByUser(gctx, q.UserID, w.Start, w.End)
			return err
		})
		if compare {
			prev := w.Previous()
			g.Go(func() (err error) {
				previous, err = s.ratings.ListByUser(gctx, q.UserID, prev.Start, prev.End)
				return err
			})
		}
		g.Go(func() (err error) {
			members, err = s.members.ListByUser(gctx, q.UserID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}

		activity, err := s.memberActivity(ctx, q.UserID, w, members, compare)
		if err != nil {
			return nil, 0, err
		}

		opts := trendOptions(previous, s.limitFor(q), compare)
		return &domain.Dashboard{
			Window:             w,
			Insights:           domain.ComputeInsights(current, len(members), w),
			PopularRestaurants: domain.RankPopular(current, opts...),
			CuisinePreferences: domain.AggregateCuisines(current, opts...),
			MemberActivity:     activity,
		}, len(current), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Dashboard), nil
}

func (s *serviceImpl) GetInsights(ctx context.Context, q Query) (*domain.FamilyInsights, error) {
	if q.UserID == "" {
		return nil, nil
	}
	v, err := s.run(ctx, "insights", q, func(ctx context.Context, w domain.Window) (interface{}, int, error) {
		var (
			records []rating.Record
			total   int
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			records, err = s.ratings.ListByUser(gctx, q.UserID, w.Start, w.End)
			return err
		})
		g.Go(func() (err error) {
			total, err = s.members.CountByUser(gctx, q.UserID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}
		insights := domain.ComputeInsights(records, total, w)
		return &insights, len(records), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.FamilyInsights), nil
}

func (s *serviceImpl) GetPopularRestaurants(ctx context.Context, q Query) ([]domain.PopularRestaurant, error) {
	if q.UserID == "" {
		return nil, nil
	}
	v, err := s.run(ctx, "popular_restaurants", q, func(ctx context.Context, w domain.Window) (interface{}, int, error) {
		current, previous, err := s.loadWithPrevious(ctx, q.UserID, w, s.compareFor(q))
		if err != nil {
			return nil, 0, err
		}
		return domain.RankPopular(current, trendOptions(previous, s.limitFor(q), s.compareFor(q))...), len(current), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.PopularRestaurant), nil
}

func (s *serviceImpl) GetCuisinePreferences(ctx context.Context, q Query) ([]domain.CuisinePreference, error) {
	if q.UserID == "" {
		return nil, nil
	}
	v, err := s.run(ctx, "cuisine_preferences", q, func(ctx context.Context, w domain.Window) (interface{}, int, error) {
		current, previous, err := s.loadWithPrevious(ctx, q.UserID, w, s.compareFor(q))
		if err != nil {
			return nil, 0, err
		}
		return domain.AggregateCuisines(current, trendOptions(previous, 0, s.compareFor(q))...), len(current), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.CuisinePreference), nil
}

// GetMemberActivity pages the member list before fetching ratings, so only
// the members on the requested page are loaded.  An unknown MemberID is
// reported as MEMBER_NOT_FOUND.
func (s *serviceImpl) GetMemberActivity(ctx context.Context, q Query) (*MemberActivityPage, error) {
	if q.UserID == "" {
		return nil, nil
	}
	v, err := s.run(ctx, "member_activity", q, func(ctx context.Context, w domain.Window) (interface{}, int, error) {
		members, err := s.members.ListByUser(ctx, q.UserID)
		if err != nil {
			return nil, 0, err
		}
		if q.MemberID != "" {
			if members, err = selectMember(members, q.MemberID); err != nil {
				return nil, 0, err
			}
		}
		page, pagination := pageMembers(members, q.Page, q.PageSize)
		activity, err := s.memberActivity(ctx, q.UserID, w, page, s.compareFor(q))
		if err != nil {
			return nil, 0, err
		}
		n := 0
		for _, a := range activity {
			n += a.RatingCount
		}
		return &MemberActivityPage{Members: activity, Pagination: pagination}, n, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MemberActivityPage), nil
}

func selectMember(members []family.Member, id string) ([]family.Member, error) {
	for _, m := range members {
		if m.ID == id {
			return []family.Member{m}, nil
		}
	}
	return nil, errors.New(errors.ErrCodeMemberNotFound, "family member not found").WithDetail(id)
}

func pageMembers(members []family.Member, page, pageSize int) ([]family.Member, common.Pagination) {
	if pageSize <= 0 {
		return members, common.NewPagination(1, max(len(members), 1), len(members))
	}
	return common.Paginate(members, page, pageSize)
}

type computeFunc func(ctx context.Context, w domain.Window) (interface{}, int, error)

// run resolves the window, collapses concurrent identical calls and maps
// every failure to the generic analytics error.  The shared load is detached
// from any single caller's cancellation and bounded by the fetch timeout; a
// caller that gives up stops waiting without failing the others.
func (s *serviceImpl) run(ctx context.Context, view string, q Query, fn computeFunc) (interface{}, error) {
	w := domain.ResolveWindow(q.Range, s.now())
	start := time.Now()

	ch := s.group.DoChan(q.flightKey(view, w.Range), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		result, n, err := fn(fetchCtx, w)
		prometheus.RecordAnalytics(s.metrics, view, string(w.Range), n, time.Since(start), err)
		return result, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), errors.ErrCodeAnalyticsUnavailable, LoadFailedMessage)
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if errors.IsCode(err, errors.ErrCodeMemberNotFound) {
		return nil, err
	}
	if err != nil {
		s.logger.Error("analytics load failed",
			logging.String("view", view),
			logging.String("user_id", q.UserID),
			logging.String("range", string(w.Range)),
			logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeAnalyticsUnavailable, LoadFailedMessage)
	}
	s.logger.Debug("analytics view computed",
		logging.String("view", view),
		logging.String("range", string(w.Range)),
		logging.Bool("shared", shared),
		logging.Duration("elapsed", time.Since(start)))
	return v, nil
}

func (s *serviceImpl) loadWithPrevious(ctx context.Context, userID string, w domain.Window, compare bool) (current, previous []rating.Record, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		current, err = s.ratings.ListByUser(gctx, userID, w.Start, w.End)
		return err
	})
	if compare {
		prev := w.Previous()
		g.Go(func() (err error) {
			previous, err = s.ratings.ListByUser(gctx, userID, prev.Start, prev.End)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return current, previous, nil
}

// memberActivity fetches each member's ratings with bounded concurrency and
// returns the summaries in member order.
func (s *serviceImpl) memberActivity(ctx context.Context, userID string, w domain.Window, members []family.Member, compare bool) ([]domain.MemberActivity, error) {
	out := make([]domain.MemberActivity, len(members))
	prev := w.Previous()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.memberConcurrency)
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			records, err := s.ratings.ListByMember(gctx, userID, m.ID, w.Start, w.End)
			if err != nil {
				return fmt.Errorf("member %s: %w", m.ID, err)
			}
			var opts []domain.Option
			if compare {
				previous, err := s.ratings.ListByMember(gctx, userID, m.ID, prev.Start, prev.End)
				if err != nil {
					return fmt.Errorf("member %s previous window: %w", m.ID, err)
				}
				opts = append(opts, domain.CompareWith(previous))
			}
			out[i] = domain.SummarizeMember(m, records, opts...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *serviceImpl) limitFor(q Query) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return s.popularLimit
}

// compareFor reports whether q gets trends: on when the query asks for them
// or the service default is on.
func (s *serviceImpl) compareFor(q Query) bool { return s.compare || q.Compare }

func trendOptions(previous []rating.Record, limit int, compare bool) []domain.Option {
	opts := []domain.Option{domain.WithLimit(limit)}
	if compare {
		opts = append(opts, domain.CompareWith(previous))
	}
	return opts
}

//Personal.AI order the ending
