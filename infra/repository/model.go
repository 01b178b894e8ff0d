package repository

import (
	"time"

	"github.com/google/uuid"
)

// Account represents an account record in the database.
type Account struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CardNumber string    `gorm:"uniqueIndex;not null;size:19"`
	PINHash    string    `gorm:"not null;size:60"`
	Balance    float64   `gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Transaction represents a persisted ledger entry. Rows are append-only.
type Transaction struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	AccountID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Kind           string    `gorm:"type:varchar(16);not null"`
	Amount         float64   `gorm:"type:decimal(14,2);not null"`
	ToCardNumber   string    `gorm:"size:19"`
	FromCardNumber string    `gorm:"size:19"`
	CreatedAt      time.Time
}
