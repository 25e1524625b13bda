package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

// maxAverageMonths caps the window of the monthly average.
const maxAverageMonths = 12

// statsService aggregates expense totals.
type statsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatsService creates a new StatsServicer.
func NewStatsService(db *gorm.DB) StatsServicer {
	return &statsService{db: db, now: time.Now}
}

type sumRow struct {
	Total decimal.Decimal
}

// GetStats returns the actor's totals, or the household's with a per-user
// breakdown for an admin. The monthly average covers completed months only,
// from the first expense and at most twelve back.
func (s *statsService) GetStats(ctx context.Context, actor Actor) (*Stats, error) {
	now := s.now()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)

	scope := func(ctx context.Context) *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Expense{})
		if !actor.IsAdmin() {
			q = q.Where("user_id = ?", actor.UserID)
		}
		return q
	}

	var (
		stats    Stats
		earliest *time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sumInto(scope(gctx), &stats.Total)
	})
	g.Go(func() error {
		return sumInto(scope(gctx).Where("date >= ?", thisMonth), &stats.ThisMonth)
	})
	g.Go(func() error {
		return sumInto(scope(gctx).Where("date >= ? AND date < ?", lastMonth, thisMonth), &stats.LastMonth)
	})
	g.Go(func() error {
		var first models.Expense
		res := scope(gctx).Select("date").Order("date ASC").Limit(1).Find(&first)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			earliest = &first.Date
		}
		return nil
	})
	if actor.IsAdmin() {
		g.Go(func() error {
			var err error
			stats.ByUser, err = s.byUser(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats.AverageMonthly = decimal.Zero
	if earliest != nil {
		months := completedMonths(*earliest, now)
		if months > 0 {
			start := thisMonth.AddDate(0, -maxAverageMonths, 0)
			if earliest.After(start) {
				start = *earliest
			}
			var period decimal.Decimal
			if err := sumInto(scope(ctx).Where("date >= ? AND date < ?", start, thisMonth), &period); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			stats.AverageMonthly = period.Div(decimal.NewFromInt(int64(months))).Round(2)
		}
	}

	return &stats, nil
}

func (s *statsService) byUser(ctx context.Context) ([]UserTotal, error) {
	var rows []struct {
		UserID string
		Total  decimal.Decimal
	}
	if err := s.db.WithContext(ctx).Model(&models.Expense{}).
		Select("user_id, COALESCE(SUM(amount), 0) AS total").
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []UserTotal{}, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	totals := make([]UserTotal, 0, len(rows))
	for _, r := range rows {
		u, ok := byID[r.UserID]
		if !ok {
			continue
		}
		totals = append(totals, UserTotal{User: u, Total: r.Total.Round(2)})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Total.GreaterThan(totals[j].Total)
	})
	return totals, nil
}

func sumInto(q *gorm.DB, dst *decimal.Decimal) error {
	var row sumRow
	if err := q.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return err
	}
	*dst = row.Total.Round(2)
	return nil
}

// completedMonths counts whole calendar months between the month of first
// and the current month, capped at maxAverageMonths.
func completedMonths(first, now time.Time) int {
	months := (now.Year()-first.Year())*12 + int(now.Month()) - int(first.Month())
	if months > maxAverageMonths {
		return maxAverageMonths
	}
	if months < 0 {
		return 0
	}
	return months
}
