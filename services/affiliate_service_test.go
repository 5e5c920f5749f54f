package services_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/anjiri1684/course_ledger/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func lastMicro(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 999999000, time.UTC)
}

func TestSettlementPeriod(t *testing.T) {
	tests := []struct {
		earned              time.Time
		start, end, availAt time.Time
	}{
		{time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC), day(2024, 3, 1), lastMicro(2024, 3, 15), day(2024, 3, 28)},
		{time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC), day(2024, 3, 16), lastMicro(2024, 3, 31), day(2024, 4, 15)},
		{day(2024, 3, 15), day(2024, 3, 1), lastMicro(2024, 3, 15), day(2024, 3, 28)},
		{time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), day(2024, 3, 1), lastMicro(2024, 3, 15), day(2024, 3, 28)},
		{day(2024, 3, 16), day(2024, 3, 16), lastMicro(2024, 3, 31), day(2024, 4, 15)},
		{time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), day(2024, 3, 16), lastMicro(2024, 3, 31), day(2024, 4, 15)},
		{day(2024, 2, 20), day(2024, 2, 16), lastMicro(2024, 2, 29), day(2024, 3, 15)},
		{day(2023, 2, 20), day(2023, 2, 16), lastMicro(2023, 2, 28), day(2023, 3, 15)},
		{day(2024, 12, 31), day(2024, 12, 16), lastMicro(2024, 12, 31), day(2025, 1, 15)},
	}
	for _, tt := range tests {
		p := services.SettlementPeriod(tt.earned)
		require.Equal(t, tt.start, p.Start, "start for %s", tt.earned)
		require.Equal(t, tt.end, p.End, "end for %s", tt.earned)
		require.Equal(t, tt.availAt, p.AvailableAt, "available for %s", tt.earned)
		require.False(t, tt.earned.Before(p.Start), "earned before start for %s", tt.earned)
		require.False(t, tt.earned.After(p.End), "earned after end for %s", tt.earned)
	}
}

func TestSelectCommissionsTakesWholeRowsOldestFirst(t *testing.T) {
	rows := []models.AffiliateCommission{
		{ID: uuid.New(), Amount: dec("400")},
		{ID: uuid.New(), Amount: dec("400")},
		{ID: uuid.New(), Amount: dec("400")},
	}

	selected, total, ok := services.SelectCommissions(rows, dec("1000"))
	require.True(t, ok)
	require.Len(t, selected, 3)
	requireAmount(t, "1200", total)

	selected, total, ok = services.SelectCommissions(rows, dec("800"))
	require.True(t, ok)
	require.Equal(t, []uuid.UUID{rows[0].ID, rows[1].ID}, []uuid.UUID{selected[0].ID, selected[1].ID})
	requireAmount(t, "800", total)

	_, total, ok = services.SelectCommissions(rows, dec("1300"))
	require.False(t, ok)
	requireAmount(t, "1200", total)
}

type referral struct {
	affiliate models.User
	link      *models.AffiliateLink
	buyer     models.User
	sub       models.Subscription
}

// referredSubscription creates an affiliate with a link and a buyer who signed up with that
// link's code and bought a 29.99 subscription paying rate percent.
func (f *fixture) referredSubscription(t *testing.T, svc *services.AffiliateService, rate string) referral {
	t.Helper()
	ctx := context.Background()

	affiliate := f.user(t, models.RoleStudent, "0")
	link, err := svc.EnsureLink(ctx, affiliate.ID)
	require.NoError(t, err)

	buyer := f.user(t, models.RoleStudent, "0")
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", buyer.ID).Update("referred_by_code", link.Code).Error)

	sub := f.subscription(t, buyer.ID, rate)
	return referral{affiliate: affiliate, link: link, buyer: buyer, sub: sub}
}

func (f *fixture) subscription(t *testing.T, userID uuid.UUID, rate string) models.Subscription {
	t.Helper()
	plan := models.SubscriptionPlan{Name: "Pro", Price: dec("29.99"), AffiliateCommissionRate: dec(rate)}
	require.NoError(t, f.db.Create(&plan).Error)
	sub := models.Subscription{UserID: userID, PlanID: plan.ID, AmountCharged: dec("29.99"), StartsAt: f.clock.Now()}
	require.NoError(t, f.db.Create(&sub).Error)
	return sub
}

func TestAttributeRecordsOneCommission(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	r := f.referredSubscription(t, svc, "20")

	commission, err := svc.Attribute(ctx, services.AttributionRequest{ReferredUserID: r.buyer.ID, SubscriptionID: r.sub.ID})
	require.NoError(t, err)
	require.NotNil(t, commission)
	require.Equal(t, r.affiliate.ID, commission.AffiliateID)
	requireAmount(t, "6.00", commission.Amount)
	require.Equal(t, models.AffiliateCommissionPending, commission.Status)
	require.Equal(t, day(2024, 3, 28), commission.AvailableAt)
	require.Equal(t, day(2024, 3, 1), commission.PeriodStart)

	again, err := svc.Attribute(ctx, services.AttributionRequest{ReferredUserID: r.buyer.ID, SubscriptionID: r.sub.ID})
	require.NoError(t, err)
	require.Nil(t, again)

	var count int64
	require.NoError(t, f.db.Model(&models.AffiliateCommission{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	var link models.AffiliateLink
	require.NoError(t, f.db.First(&link, "id = ?", r.link.ID).Error)
	require.Equal(t, int64(1), link.Conversions)
}

func TestAttributeIgnoresSelfReferral(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()

	u := f.user(t, models.RoleStudent, "0")
	link, err := svc.EnsureLink(ctx, u.ID)
	require.NoError(t, err)
	sub := f.subscription(t, u.ID, "20")

	commission, err := svc.Attribute(ctx, services.AttributionRequest{ReferredUserID: u.ID, SubscriptionID: sub.ID, SessionCode: link.Code})
	require.NoError(t, err)
	require.Nil(t, commission)

	var count int64
	require.NoError(t, f.db.Model(&models.AffiliateCommission{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAttributePrefersSessionCode(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	r := f.referredSubscription(t, svc, "10")

	other := f.user(t, models.RoleStudent, "0")
	otherLink, err := svc.EnsureLink(ctx, other.ID)
	require.NoError(t, err)

	commission, err := svc.Attribute(ctx, services.AttributionRequest{
		ReferredUserID: r.buyer.ID,
		SubscriptionID: r.sub.ID,
		SessionCode:    " " + otherLink.Code + " ",
	})
	require.NoError(t, err)
	require.NotNil(t, commission)
	require.Equal(t, other.ID, commission.AffiliateID)
	requireAmount(t, "3.00", commission.Amount)
}

func TestAttributeFallsBackFromInactiveSessionCode(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	r := f.referredSubscription(t, svc, "10")

	other := f.user(t, models.RoleStudent, "0")
	otherLink, err := svc.EnsureLink(ctx, other.ID)
	require.NoError(t, err)
	require.NoError(t, svc.SetLinkActive(ctx, other.ID, false))

	commission, err := svc.Attribute(ctx, services.AttributionRequest{ReferredUserID: r.buyer.ID, SubscriptionID: r.sub.ID, SessionCode: otherLink.Code})
	require.NoError(t, err)
	require.NotNil(t, commission)
	require.Equal(t, r.affiliate.ID, commission.AffiliateID)
}

func TestAttributeSkips(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, func(s *config.Settings) { s.AffiliateEnabled = false })
		svc := services.NewAffiliateService(f.deps)
		r := f.referredSubscription(t, svc, "20")

		commission, err := svc.Attribute(context.Background(), services.AttributionRequest{ReferredUserID: r.buyer.ID, SubscriptionID: r.sub.ID})
		require.NoError(t, err)
		require.Nil(t, commission)
	})

	t.Run("zero rate", func(t *testing.T) {
		f := newFixture(t)
		svc := services.NewAffiliateService(f.deps)
		r := f.referredSubscription(t, svc, "0")

		commission, err := svc.Attribute(context.Background(), services.AttributionRequest{ReferredUserID: r.buyer.ID, SubscriptionID: r.sub.ID})
		require.NoError(t, err)
		require.Nil(t, commission)
	})

	t.Run("no referrer", func(t *testing.T) {
		f := newFixture(t)
		svc := services.NewAffiliateService(f.deps)
		buyer := f.user(t, models.RoleStudent, "0")
		sub := f.subscription(t, buyer.ID, "20")

		commission, err := svc.Attribute(context.Background(), services.AttributionRequest{ReferredUserID: buyer.ID, SubscriptionID: sub.ID, SessionCode: "NOSUCHCD"})
		require.NoError(t, err)
		require.Nil(t, commission)
	})

	t.Run("foreign subscription", func(t *testing.T) {
		f := newFixture(t)
		svc := services.NewAffiliateService(f.deps)
		r := f.referredSubscription(t, svc, "20")
		stranger := f.user(t, models.RoleStudent, "0")
		sub := f.subscription(t, stranger.ID, "20")

		_, err := svc.Attribute(context.Background(), services.AttributionRequest{ReferredUserID: r.buyer.ID, SubscriptionID: sub.ID})
		require.True(t, services.IsValidation(err), "got %v", err)
	})
}

func TestReleaseCommissionsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	r := f.referredSubscription(t, svc, "20")

	_, err := svc.Attribute(ctx, services.AttributionRequest{ReferredUserID: r.buyer.ID, SubscriptionID: r.sub.ID})
	require.NoError(t, err)

	f.clock.Set(day(2024, 3, 27))
	released, err := svc.ReleaseCommissions(ctx)
	require.NoError(t, err)
	require.Zero(t, released)

	f.clock.Set(day(2024, 3, 28))
	released, err = svc.ReleaseCommissions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), released)

	released, err = svc.ReleaseCommissions(ctx)
	require.NoError(t, err)
	require.Zero(t, released)

	available, err := svc.AvailableBalance(ctx, r.affiliate.ID)
	require.NoError(t, err)
	requireAmount(t, "6", available)
	require.Equal(t, float64(1), f.counter(t, "course_ledger_commissions_released_total", nil))
}

// availableCommissions seeds matured commissions for affiliate, oldest first.
func (f *fixture) availableCommissions(t *testing.T, affiliateID uuid.UUID, amounts ...string) []models.AffiliateCommission {
	t.Helper()
	out := make([]models.AffiliateCommission, 0, len(amounts))
	for i, amount := range amounts {
		maturedAt := day(2024, 1, 1).AddDate(0, 0, i)
		c := models.AffiliateCommission{
			AffiliateID:    affiliateID,
			ReferredUserID: uuid.New(),
			SubscriptionID: uuid.New(),
			Amount:         dec(amount),
			Rate:           dec("20"),
			Status:         models.AffiliateCommissionAvailable,
			EarnedAt:       maturedAt.AddDate(0, 0, -20),
			AvailableAt:    maturedAt,
			PeriodStart:    maturedAt.AddDate(0, 0, -27),
			PeriodEnd:      maturedAt.AddDate(0, 0, -13),
		}
		require.NoError(t, f.db.Create(&c).Error)
		out = append(out, c)
	}
	return out
}

func (f *fixture) commissionStatus(t *testing.T, id uuid.UUID) models.AffiliateCommission {
	t.Helper()
	var c models.AffiliateCommission
	require.NoError(t, f.db.First(&c, "id = ?", id).Error)
	return c
}

func TestRequestWithdrawalCoversAmountWithWholeCommissions(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	affiliate := f.user(t, models.RoleStudent, "0")
	rows := f.availableCommissions(t, affiliate.ID, "400", "400", "400")

	w, err := svc.RequestWithdrawal(ctx, affiliate.ID, dec("1000"))
	require.NoError(t, err)
	requireAmount(t, "1200", w.Amount)
	requireAmount(t, "1000", w.RequestedAmount)
	require.Equal(t, models.WithdrawalPending, w.Status)
	require.ElementsMatch(t, []uuid.UUID{rows[0].ID, rows[1].ID, rows[2].ID}, w.CommissionIDs)

	for _, row := range rows {
		c := f.commissionStatus(t, row.ID)
		require.Equal(t, models.AffiliateCommissionWithdrawn, c.Status)
		require.NotNil(t, c.WithdrawnAt)
		require.Equal(t, w.ID, *c.WithdrawalID)
	}

	available, err := svc.AvailableBalance(ctx, affiliate.ID)
	require.NoError(t, err)
	requireAmount(t, "0", available)

	var stored models.AffiliateWithdrawal
	require.NoError(t, f.db.First(&stored, "id = ?", w.ID).Error)
	require.ElementsMatch(t, w.CommissionIDs, stored.CommissionIDs)
}

func TestRequestWithdrawalConsumesOldestFirst(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	affiliate := f.user(t, models.RoleStudent, "0")
	rows := f.availableCommissions(t, affiliate.ID, "300", "300", "300")

	w, err := svc.RequestWithdrawal(context.Background(), affiliate.ID, dec("500"))
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{rows[0].ID, rows[1].ID}, w.CommissionIDs)
	requireAmount(t, "600", w.Amount)
	require.Equal(t, models.AffiliateCommissionAvailable, f.commissionStatus(t, rows[2].ID).Status)
}

func TestRequestWithdrawalBreaksAvailabilityTiesByID(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	affiliate := f.user(t, models.RoleStudent, "0")

	same := day(2024, 1, 28)
	rows := make([]models.AffiliateCommission, 0, 2)
	for i := 0; i < 2; i++ {
		c := models.AffiliateCommission{
			AffiliateID:    affiliate.ID,
			ReferredUserID: uuid.New(),
			SubscriptionID: uuid.New(),
			Amount:         dec("500"),
			Rate:           dec("20"),
			Status:         models.AffiliateCommissionAvailable,
			EarnedAt:       day(2024, 1, 10),
			AvailableAt:    same,
			PeriodStart:    day(2024, 1, 1),
			PeriodEnd:      lastMicro(2024, 1, 15),
		}
		require.NoError(t, f.db.Create(&c).Error)
		rows = append(rows, c)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID.String() < rows[j].ID.String() })

	w, err := svc.RequestWithdrawal(context.Background(), affiliate.ID, dec("500"))
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{rows[0].ID}, w.CommissionIDs)
	require.Equal(t, models.AffiliateCommissionWithdrawn, f.commissionStatus(t, rows[0].ID).Status)
	require.Equal(t, models.AffiliateCommissionAvailable, f.commissionStatus(t, rows[1].ID).Status)
}

func TestRequestWithdrawalValidation(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	affiliate := f.user(t, models.RoleStudent, "0")
	f.availableCommissions(t, affiliate.ID, "400", "400")

	_, err := svc.RequestWithdrawal(ctx, affiliate.ID, dec("499.99"))
	require.True(t, services.IsValidation(err), "got %v", err)

	_, err = svc.RequestWithdrawal(ctx, affiliate.ID, dec("800.01"))
	require.True(t, services.IsInsufficientFunds(err), "got %v", err)

	_, err = svc.RequestWithdrawal(ctx, uuid.New(), dec("500"))
	require.True(t, services.IsNotFound(err), "got %v", err)

	disabled := newFixture(t, func(s *config.Settings) { s.AffiliateEnabled = false })
	u := disabled.user(t, models.RoleStudent, "0")
	disabled.availableCommissions(t, u.ID, "1000")
	_, err = services.NewAffiliateService(disabled.deps).RequestWithdrawal(ctx, u.ID, dec("500"))
	require.True(t, services.IsValidation(err), "got %v", err)
}

func TestConcurrentWithdrawalsNeverShareCommissions(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	affiliate := f.user(t, models.RoleStudent, "0")
	f.availableCommissions(t, affiliate.ID, "400", "400", "400")

	var wg sync.WaitGroup
	results := make([]*models.AffiliateWithdrawal, 2)
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.RequestWithdrawal(context.Background(), affiliate.ID, dec("1000"))
		}(i)
	}
	wg.Wait()

	var succeeded int
	for i, err := range errs {
		if err == nil {
			succeeded++
			require.Len(t, results[i].CommissionIDs, 3)
			continue
		}
		require.True(t, services.IsInsufficientFunds(err), "got %v", err)
	}
	require.Equal(t, 1, succeeded)

	var withdrawals int64
	require.NoError(t, f.db.Model(&models.AffiliateWithdrawal{}).Count(&withdrawals).Error)
	require.Equal(t, int64(1), withdrawals)
}

func TestRejectWithdrawalRestoresExactCommissions(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	admin := f.user(t, models.RoleAdmin, "0")
	affiliate := f.user(t, models.RoleStudent, "0")
	rows := f.availableCommissions(t, affiliate.ID, "400", "400", "400", "250")

	w, err := svc.RequestWithdrawal(ctx, affiliate.ID, dec("1000"))
	require.NoError(t, err)
	require.Len(t, w.CommissionIDs, 3)

	rejected, err := svc.RejectWithdrawal(ctx, w.ID, admin.ID, "bank details invalid")
	require.NoError(t, err)
	require.Equal(t, models.WithdrawalRejected, rejected.Status)
	require.Equal(t, "bank details invalid", *rejected.RejectionReason)

	for _, row := range rows {
		c := f.commissionStatus(t, row.ID)
		require.Equal(t, models.AffiliateCommissionAvailable, c.Status)
		require.Nil(t, c.WithdrawnAt)
		require.Nil(t, c.WithdrawalID)
	}

	available, err := svc.AvailableBalance(ctx, affiliate.ID)
	require.NoError(t, err)
	requireAmount(t, "1450", available)

	_, err = svc.RejectWithdrawal(ctx, w.ID, admin.ID, "again")
	require.True(t, services.IsInvalidState(err), "got %v", err)

	_, err = svc.RejectWithdrawal(ctx, uuid.New(), admin.ID, "missing")
	require.True(t, services.IsNotFound(err), "got %v", err)
}

func TestProcessWithdrawalMovesNoFunds(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	admin := f.user(t, models.RoleAdmin, "0")
	affiliate := f.user(t, models.RoleStudent, "0")
	rows := f.availableCommissions(t, affiliate.ID, "600")

	w, err := svc.RequestWithdrawal(ctx, affiliate.ID, dec("500"))
	require.NoError(t, err)

	done, err := svc.ProcessWithdrawal(ctx, w.ID, admin.ID, "paid via bank transfer")
	require.NoError(t, err)
	require.Equal(t, models.WithdrawalCompleted, done.Status)
	require.Equal(t, admin.ID, *done.ProcessedBy)

	require.Equal(t, models.AffiliateCommissionWithdrawn, f.commissionStatus(t, rows[0].ID).Status)
	requireAmount(t, "0", f.balance(t, affiliate.ID))

	_, err = svc.ProcessWithdrawal(ctx, w.ID, admin.ID, "")
	require.True(t, services.IsInvalidState(err), "got %v", err)
	_, err = svc.RejectWithdrawal(ctx, w.ID, admin.ID, "too late")
	require.True(t, services.IsInvalidState(err), "got %v", err)

	require.Equal(t, float64(1), f.counter(t, "course_ledger_withdrawals_transitions_total", map[string]string{"type": "affiliate", "status": "completed"}))
}

func TestAffiliateAndWalletBalancesAreSeparate(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ledger := services.NewWalletLedger(f.deps)
	ctx := context.Background()

	rich := f.user(t, models.RoleInstructor, "10000")
	_, err := svc.RequestWithdrawal(ctx, rich.ID, dec("500"))
	require.True(t, services.IsInsufficientFunds(err), "got %v", err)

	affiliate := f.user(t, models.RoleStudent, "0")
	f.availableCommissions(t, affiliate.ID, "700")
	_, err = svc.RequestWithdrawal(ctx, affiliate.ID, dec("700"))
	require.NoError(t, err)

	balance, err := ledger.GetBalance(ctx, affiliate.ID)
	require.NoError(t, err)
	requireAmount(t, "0", balance)
	history, err := ledger.GetHistory(ctx, affiliate.ID, 0)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestLinksAndClicks(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	u := f.user(t, models.RoleStudent, "0")

	link, err := svc.EnsureLink(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, link.Code, 8)
	same, err := svc.EnsureLink(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, link.Code, same.Code)

	clicked, err := svc.TrackClick(ctx, link.Code)
	require.NoError(t, err)
	require.Equal(t, int64(1), clicked.Clicks)
	_, err = svc.TrackClick(ctx, link.Code)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.Link.Clicks)
	requireAmount(t, "0", summary.Available)

	require.NoError(t, svc.SetLinkActive(ctx, u.ID, false))
	_, err = svc.TrackClick(ctx, link.Code)
	require.True(t, services.IsNotFound(err), "got %v", err)

	_, err = svc.EnsureLink(ctx, uuid.New())
	require.True(t, services.IsNotFound(err), "got %v", err)
}

func TestListWithdrawalsFilters(t *testing.T) {
	f := newFixture(t)
	svc := services.NewAffiliateService(f.deps)
	ctx := context.Background()
	admin := f.user(t, models.RoleAdmin, "0")
	a := f.user(t, models.RoleStudent, "0")
	b := f.user(t, models.RoleStudent, "0")
	f.availableCommissions(t, a.ID, "500", "500")
	f.availableCommissions(t, b.ID, "500")

	w1, err := svc.RequestWithdrawal(ctx, a.ID, dec("500"))
	require.NoError(t, err)
	_, err = svc.RequestWithdrawal(ctx, a.ID, dec("500"))
	require.NoError(t, err)
	_, err = svc.RequestWithdrawal(ctx, b.ID, dec("500"))
	require.NoError(t, err)
	_, err = svc.ProcessWithdrawal(ctx, w1.ID, admin.ID, "")
	require.NoError(t, err)

	all, err := svc.ListWithdrawals(ctx, services.WithdrawalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	mine, err := svc.ListWithdrawals(ctx, services.WithdrawalFilter{AffiliateID: &a.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	pending, err := svc.ListWithdrawals(ctx, services.WithdrawalFilter{Status: models.WithdrawalPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)

	summary, err := svc.Summary(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, summary.Link)
	requireAmount(t, "1000", summary.Withdrawn)
	require.Equal(t, int64(2), summary.Withdrawals)
}
