// Package statsdb persists periodic snapshots of the book statistics.
package statsdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"
	"gorm.io/gorm"

	"market/internal/engine"
	"market/pkg/exception"
)

// StatsRow is one persisted snapshot.
type StatsRow struct {
	ID          uint      `gorm:"primaryKey"`
	RunID       uuid.UUID `gorm:"type:uuid;index"`
	Symbol      string    `gorm:"size:4"`
	OrderCount  int64
	CancelCount int64
	TradeCount  int64
	Volume      int64
	BestBid     int64
	BestAsk     int64
	CapturedAt  time.Time `gorm:"index"`
	CreatedAt   time.Time
}

// TableName pins the table name.
func (StatsRow) TableName() string {
	return "book_stats"
}

// TopSource returns the last broadcast top of book.
type TopSource interface {
	Top() (engine.Top, bool)
}

// Store writes rows tagged with one run id.
type Store struct {
	db     *gorm.DB
	runID  uuid.UUID
	symbol string
}

// New creates a store. runID identifies the process session, the same id
// the admin server reports.
func New(db *gorm.DB, runID uuid.UUID, symbol string) (*Store, error) {
	if db == nil {
		return nil, exception.ErrNilInstance
	}
	return &Store{db: db, runID: runID, symbol: symbol}, nil
}

// Migrate creates or updates the table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&StatsRow{})
}

// Row converts a top of book into a row.
func (s *Store) Row(top engine.Top) StatsRow {
	return StatsRow{
		RunID:       s.runID,
		Symbol:      s.symbol,
		OrderCount:  int64(top.Stats.OrderCount),
		CancelCount: int64(top.Stats.CancelCount),
		TradeCount:  int64(top.Stats.TradeCount),
		Volume:      int64(top.Stats.Volume),
		BestBid:     int64(top.Bid.Price),
		BestAsk:     int64(top.Ask.Price),
		CapturedAt:  top.Time,
	}
}

// Insert writes one snapshot.
func (s *Store) Insert(ctx context.Context, top engine.Top) error {
	row := s.Row(top)
	return s.db.WithContext(ctx).Create(&row).Error
}

// Run inserts the latest top of book every interval until ctx is done.
// Nothing is written before the first broadcast.
func (s *Store) Run(ctx context.Context, interval time.Duration, src TopSource) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			top, ok := src.Top()
			if !ok || top.Time.Equal(last) {
				continue
			}
			if err := s.Insert(ctx, top); err != nil {
				logs.Errorf("statsdb: insert snapshot, err: %+v", err)
				continue
			}
			last = top.Time
		}
	}
}
