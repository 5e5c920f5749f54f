package main

import (
	"bytes"
	"testing"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/anjiri1684/course_ledger/database/dbtest"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func run(t *testing.T, db *gorm.DB, args ...string) (string, error) {
	t.Helper()
	c := &ctl{
		settings: config.Static(config.Defaults()),
		open:     func(string) (*gorm.DB, error) { return db, nil },
		logger:   zerolog.Nop(),
	}
	cmd := newRootCmd(c)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBalance(t *testing.T) {
	db := dbtest.Open(t)
	u := models.User{FullName: "Ledger User", Email: "ledger@example.com", Password: "x", Role: models.RoleStudent, WalletBalance: decimal.RequireFromString("25")}
	require.NoError(t, db.Create(&u).Error)

	out, err := run(t, db, "balance", u.ID.String())
	require.NoError(t, err)
	require.Contains(t, out, "wallet:    25.00")
	require.Contains(t, out, "affiliate: 0.00")
}

func TestReleaseCommissions(t *testing.T) {
	out, err := run(t, dbtest.Open(t), "release-commissions")
	require.NoError(t, err)
	require.Equal(t, "released 0 commissions\n", out)
}

func TestRejectsBadIDs(t *testing.T) {
	db := dbtest.Open(t)
	for _, name := range []string{"record-order", "settle-order", "balance"} {
		_, err := run(t, db, name, "not-a-uuid")
		require.Error(t, err, name)
	}

	_, err := run(t, db, "balance")
	require.Error(t, err)
}

func TestMigrate(t *testing.T) {
	out, err := run(t, dbtest.Open(t), "migrate")
	require.NoError(t, err)
	require.Equal(t, "migrations applied\n", out)
}
