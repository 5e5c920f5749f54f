package utils_test

import (
	"strings"
	"testing"

	"github.com/anjiri1684/course_ledger/database/dbtest"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/anjiri1684/course_ledger/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueAffiliateCode(t *testing.T) {
	db := dbtest.Open(t)

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		code, err := utils.GenerateUniqueAffiliateCode(db)
		require.NoError(t, err)
		require.Len(t, code, 8)
		require.Equal(t, strings.ToUpper(code), code)
		require.False(t, seen[code])
		seen[code] = true

		require.NoError(t, db.Create(&models.AffiliateLink{UserID: uuid.New(), Code: code, IsActive: true}).Error)
	}
}
