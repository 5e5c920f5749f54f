package services_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/anjiri1684/course_ledger/database/dbtest"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/anjiri1684/course_ledger/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[uuid.UUID][]interface{}
}

func (p *recordingPublisher) Publish(userID uuid.UUID, event interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[uuid.UUID][]interface{})
	}
	p.events[userID] = append(p.events[userID], event)
}

func (p *recordingPublisher) For(userID uuid.UUID) []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]interface{}(nil), p.events[userID]...)
}

type fixture struct {
	db     *gorm.DB
	clock  *testClock
	events *recordingPublisher
	reg    *prometheus.Registry
	deps   services.Deps
}

func newFixture(t *testing.T, opts ...func(*config.Settings)) *fixture {
	t.Helper()

	settings := config.Defaults()
	for _, opt := range opts {
		opt(&settings)
	}

	f := &fixture{
		db:     dbtest.Open(t),
		clock:  &testClock{now: time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)},
		events: &recordingPublisher{},
		reg:    prometheus.NewRegistry(),
	}
	f.deps = services.Deps{
		DB:       f.db,
		Logger:   zerolog.Nop(),
		Settings: config.Static(settings),
		Metrics:  services.MustNewMetrics(f.reg),
		Events:   f.events,
		Now:      f.clock.Now,
	}
	return f
}

func (f *fixture) user(t *testing.T, role string, balance string) models.User {
	t.Helper()
	id := uuid.New()
	u := models.User{
		ID:            id,
		FullName:      "User " + id.String()[:8],
		Email:         fmt.Sprintf("%s@example.com", id),
		Password:      "x",
		Role:          role,
		WalletBalance: dec(balance),
	}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) balance(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.Select("wallet_balance").First(&u, "id = ?", userID).Error)
	return u.WalletBalance.Round(2)
}

// counter reads a counter series from the fixture's registry, zero when absent.
func (f *fixture) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Equal(t, dec(want).StringFixed(2), got.StringFixed(2))
}
