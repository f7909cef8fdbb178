package repository

import "time"

// Quote ledger statuses.
const (
	QuoteOpen           = "open"
	QuoteSuperseded     = "superseded"
	QuoteDeleted        = "deleted"
	QuoteSupersededPaid = "superseded_paid"
	QuoteFinalized      = "finalized"
)

// AttemptRecord is the persisted view of a checkout attempt.
type AttemptRecord struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	State     string `gorm:"type:varchar(32);not null;index"`
	QuoteID   int64  `gorm:"index"`
	OrderID   int64
	Currency  string `gorm:"type:varchar(3)"`
	ErrorKind string `gorm:"type:varchar(32)"`
	Message   string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AttemptRecord) TableName() string { return "checkout_attempts" }

// QuoteRecord tracks every quote created on the platform. A superseded quote
// stays superseded until its platform copy is deleted.
type QuoteRecord struct {
	QuoteID      int64  `gorm:"primaryKey;autoIncrement:false"`
	AttemptID    string `gorm:"type:varchar(36);not null;index"`
	Status       string `gorm:"type:varchar(16);not null;default:'open';index"`
	Currency     string `gorm:"type:varchar(3)"`
	OrderID      int64
	SupersededBy int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (QuoteRecord) TableName() string { return "checkout_quotes" }

// TransitionRecord is one row per state change.
type TransitionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	AttemptID string `gorm:"type:varchar(36);not null;index"`
	From      string `gorm:"column:from_state;type:varchar(32)"`
	To        string `gorm:"column:to_state;type:varchar(32);not null"`
	QuoteID   int64
	OrderID   int64
	ErrorKind string `gorm:"type:varchar(32)"`
	Message   string `gorm:"type:varchar(255)"`
	At        time.Time
}

func (TransitionRecord) TableName() string { return "checkout_transitions" }
