package utils

import (
	"errors"
	"math/rand"
	"time"

	"github.com/anjiri1684/course_ledger/models"
	"gorm.io/gorm"
)

const affiliateCodeLength = 8
const letterBytes = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const maxCodeAttempts = 20

var ErrCodeSpaceExhausted = errors.New("could not generate a unique affiliate code")

// GenerateUniqueAffiliateCode draws random codes until one is unused by any affiliate link.
func GenerateUniqueAffiliateCode(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		b := make([]byte, affiliateCodeLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		code := string(b)

		var count int64
		if err := tx.Model(&models.AffiliateLink{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
