package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TierIndividual = "individual"
	TierTeam       = "team"
)

type Teacher struct {
	UserID    uuid.UUID `gorm:"type:uuid;primary_key" json:"user_id"`
	Headline  *string   `gorm:"size:255" json:"headline"`
	Tier      string    `gorm:"size:20;not null;default:'individual'" json:"tier"`
	Status    string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	User      User      `gorm:"foreignkey:UserID" json:"user"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
