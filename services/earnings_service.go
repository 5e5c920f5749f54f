package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/course_ledger/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatsFilter narrows the commissions that are aggregated. From is inclusive, To exclusive.
type StatsFilter struct {
	InstructorID *uuid.UUID
	CourseID     *uuid.UUID
	From         *time.Time
	To           *time.Time
	Status       string
}

type Stats struct {
	Revenue       decimal.Decimal `json:"revenue"`
	PlatformShare decimal.Decimal `json:"platform_share"`
	SellerShare   decimal.Decimal `json:"seller_share"`
	SaleCount     int64           `json:"sale_count"`
}

// Bucket is the aggregate over [Start, End).
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Stats
}

// EarningsService reads commission records. It never writes.
type EarningsService struct {
	deps   Deps
	logger zerolog.Logger
}

func NewEarningsService(deps Deps) *EarningsService {
	deps = deps.withDefaults()
	return &EarningsService{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "earnings").Logger(),
	}
}

// GetStats sums the recorded splits. Revenue is rebuilt from the splits rather than list prices.
func (s *EarningsService) GetStats(ctx context.Context, filter StatsFilter) (Stats, error) {
	q := applyStatsFilter(s.deps.DB.WithContext(ctx).Model(&models.Commission{}), filter)

	var row struct {
		PlatformShare decimal.NullDecimal
		SellerShare   decimal.NullDecimal
		SaleCount     int64
	}
	err := q.Select("SUM(platform_amount) AS platform_share, SUM(seller_amount) AS seller_share, COUNT(*) AS sale_count").
		Row().Scan(&row.PlatformShare, &row.SellerShare, &row.SaleCount)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate commissions: %w", err)
	}

	stats := Stats{
		PlatformShare: decimal.Zero,
		SellerShare:   decimal.Zero,
		SaleCount:     row.SaleCount,
	}
	if row.PlatformShare.Valid {
		stats.PlatformShare = round2(row.PlatformShare.Decimal)
	}
	if row.SellerShare.Valid {
		stats.SellerShare = round2(row.SellerShare.Decimal)
	}
	stats.Revenue = stats.PlatformShare.Add(stats.SellerShare)
	return stats, nil
}

func applyStatsFilter(q *gorm.DB, filter StatsFilter) *gorm.DB {
	if filter.InstructorID != nil {
		q = q.Where("instructor_id = ?", *filter.InstructorID)
	}
	if filter.CourseID != nil {
		q = q.Where("course_id = ?", *filter.CourseID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", filter.To.UTC())
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}

// GetDailyData returns one bucket per calendar day from the day of from through the day of to.
func (s *EarningsService) GetDailyData(ctx context.Context, from, to time.Time, filter StatsFilter) ([]Bucket, error) {
	start := truncateDay(from)
	end := truncateDay(to).AddDate(0, 0, 1)
	return s.buckets(ctx, start, end, filter, func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }, "2006-01-02")
}

// GetWeeklyData returns seven-day buckets starting on the day of from. The last bucket
// is cut short at the end of the day of to.
func (s *EarningsService) GetWeeklyData(ctx context.Context, from, to time.Time, filter StatsFilter) ([]Bucket, error) {
	start := truncateDay(from)
	end := truncateDay(to).AddDate(0, 0, 1)
	return s.buckets(ctx, start, end, filter, func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }, "2006-01-02")
}

// GetMonthlyData returns the twelve months of year.
func (s *EarningsService) GetMonthlyData(ctx context.Context, year int, filter StatsFilter) ([]Bucket, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return s.buckets(ctx, start, start.AddDate(1, 0, 0), filter, func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }, "2006-01")
}

func (s *EarningsService) buckets(ctx context.Context, start, end time.Time, filter StatsFilter, next func(time.Time) time.Time, layout string) ([]Bucket, error) {
	if !end.After(start) {
		return nil, &ValidationError{Field: "to", Message: "must not be before from"}
	}

	var out []Bucket
	for cur := start; cur.Before(end); cur = next(cur) {
		stop := next(cur)
		if stop.After(end) {
			stop = end
		}
		from, to := cur, stop
		sub := filter
		sub.From = &from
		sub.To = &to

		stats, err := s.GetStats(ctx, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, Bucket{Label: cur.Format(layout), Start: from, End: to, Stats: stats})
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetInstructorAvailableBalance is the seller share of paid commissions minus completed
// payouts, floored at zero. It is a derived view; the wallet balance stays authoritative.
func (s *EarningsService) GetInstructorAvailableBalance(ctx context.Context, instructorID uuid.UUID) (decimal.Decimal, error) {
	stats, err := s.GetStats(ctx, StatsFilter{InstructorID: &instructorID, Status: models.CommissionPaid})
	if err != nil {
		return decimal.Zero, err
	}

	var paidOut decimal.NullDecimal
	err = s.deps.DB.WithContext(ctx).Model(&models.PayoutRequest{}).
		Select("SUM(amount)").
		Where("teacher_id = ? AND status = ?", instructorID, models.PayoutCompleted).
		Row().Scan(&paidOut)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum completed payouts: %w", err)
	}

	available := stats.SellerShare
	if paidOut.Valid {
		available = available.Sub(round2(paidOut.Decimal))
	}
	if available.IsNegative() {
		return decimal.Zero, nil
	}
	return available, nil
}
