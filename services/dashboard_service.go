package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/kendall-kelly/loyalty-rewards-api/analytics"
	"github.com/kendall-kelly/loyalty-rewards-api/models"
	"github.com/kendall-kelly/loyalty-rewards-api/realtime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DashboardSettings are the loyalty rules the dashboard is computed with
type DashboardSettings struct {
	UnitPrice          decimal.Decimal
	RetentionWindow    time.Duration
	SeparateZeroOrders bool
}

// DashboardService loads snapshots from the database and builds dashboards,
// optionally through a cache
type DashboardService struct {
	db       *gorm.DB
	cache    DashboardCache
	settings DashboardSettings
	opts     Options
}

var dashboardServiceInstance *DashboardService

// NewDashboardService creates the service. cache may be nil.
func NewDashboardService(db *gorm.DB, cache DashboardCache, settings DashboardSettings, opts Options) *DashboardService {
	opts = opts.withDefaults()
	opts.Logger = opts.Logger.Named("dashboard")
	return &DashboardService{db: db, cache: cache, settings: settings, opts: opts}
}

// GetDashboardService returns the initialized dashboard service instance
func GetDashboardService() *DashboardService {
	return dashboardServiceInstance
}

// SetDashboardService sets the dashboard service instance
func SetDashboardService(service *DashboardService) {
	dashboardServiceInstance = service
}

// Snapshot reads the customers, orders and food items tables inside one read
// transaction so every order refers to a customer present in the snapshot
func (s *DashboardService) Snapshot(ctx context.Context) (analytics.Snapshot, error) {
	var snap analytics.Snapshot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&snap.Customers).Error; err != nil {
			return err
		}
		if err := tx.Order("order_date, id").Find(&snap.Orders).Error; err != nil {
			return err
		}
		return tx.Order("id").Find(&snap.FoodItems).Error
	}, snapshotTxOptions(s.db.Dialector.Name()))
	if err != nil {
		return analytics.Snapshot{}, &PersistenceError{Op: "load dashboard snapshot", Err: err}
	}
	if snap.Customers == nil {
		snap.Customers = []models.Customer{}
	}
	if snap.Orders == nil {
		snap.Orders = []models.Order{}
	}
	if snap.FoodItems == nil {
		snap.FoodItems = []models.FoodItem{}
	}
	return snap, nil
}

// Dashboard returns the dashboard for r, served from the cache when possible.
// Cache failures are logged and fall through to the database.
func (s *DashboardService) Dashboard(ctx context.Context, r analytics.DateRange) (*analytics.Dashboard, error) {
	key := r.Key()

	// the generation is read before the snapshot so that an invalidation
	// racing with the build leaves the result under the old generation
	cacheable := false
	var gen int64
	if s.cache != nil {
		var err error
		gen, err = s.cache.Generation(ctx)
		if err != nil {
			dashboardCacheRequests.WithLabelValues("error").Inc()
			s.opts.Logger.Warn("dashboard cache generation read failed", zap.String("range", key), zap.Error(err))
		} else {
			cacheable = true
			cached, ok, err := s.cache.Get(ctx, gen, key)
			switch {
			case err != nil:
				dashboardCacheRequests.WithLabelValues("error").Inc()
				s.opts.Logger.Warn("dashboard cache read failed", zap.String("range", key), zap.Error(err))
			case ok:
				dashboardCacheRequests.WithLabelValues("hit").Inc()
				return cached, nil
			default:
				dashboardCacheRequests.WithLabelValues("miss").Inc()
			}
		}
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	d := analytics.BuildDashboard(snap, analytics.Options{
		Range:           r,
		Now:             s.opts.Clock.Now(),
		UnitPrice:       s.settings.UnitPrice,
		RetentionWindow: s.settings.RetentionWindow,
		Segments:        analytics.SegmentOptions{SeparateZeroOrders: s.settings.SeparateZeroOrders},
	})

	if cacheable {
		if err := s.cache.Set(ctx, gen, key, &d); err != nil {
			s.opts.Logger.Warn("dashboard cache write failed", zap.String("range", key), zap.Error(err))
		}
	}
	return &d, nil
}

// Invalidate drops every cached dashboard
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.opts.Logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

// invalidateTimeout bounds the redis round trip made on the publishing goroutine
const invalidateTimeout = 250 * time.Millisecond

// snapshotTxOptions asks postgres for a repeatable-read snapshot. sqlite
// transactions are already serializable and reject explicit isolation levels.
func snapshotTxOptions(dialect string) *sql.TxOptions {
	if dialect != "postgres" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// ChangeListener invalidates the cache on every row change. A slow or
// unreachable cache costs the publisher at most invalidateTimeout.
func (s *DashboardService) ChangeListener() realtime.Listener {
	return func(ev realtime.ChangeEvent) {
		if s.cache == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()
		s.Invalidate(ctx)
	}
}
