// Package journal persists order events and transaction results to
// Postgres for offline analysis.
package journal

import (
	"time"

	"gorm.io/gorm"

	"main/internal/event"
	"main/internal/model"
	"main/pkg/conn"
)

// OrderRecord is one persisted order lifecycle event.
type OrderRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Kind      string `gorm:"index"`
	OrderID   uint64 `gorm:"index"`
	Owner     string
	Pair      string `gorm:"index"`
	Side      string
	Price     int64
	Size      int64
	TsNano    int64
	CreatedAt time.Time
}

// TableName implements gorm's table naming.
func (OrderRecord) TableName() string { return "order_events" }

// TxRecord is one persisted transaction result.
type TxRecord struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Status      string `gorm:"index"`
	Nonce       uint64 `gorm:"index"`
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	CreatedAt   time.Time
}

// TableName implements gorm's table naming.
func (TxRecord) TableName() string { return "tx_results" }

// Journal writes records through a gorm connection.
type Journal struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the journal tables.
func Open(dsn string) (*Journal, error) {
	db, err := conn.NewPostgres(conn.Option{DSN: dsn})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&OrderRecord{}, &TxRecord{}); err != nil {
		_ = conn.Close(db)
		return nil, err
	}
	return &Journal{db: db}, nil
}

// RecordOrderEvent persists one order lifecycle event.
func (j *Journal) RecordOrderEvent(ev model.OrderEvent) error {
	return j.db.Create(&OrderRecord{
		Kind:    ev.Kind.String(),
		OrderID: ev.OrderID,
		Owner:   ev.Owner,
		Pair:    ev.Pair,
		Side:    ev.Side.String(),
		Price:   int64(ev.Price),
		Size:    int64(ev.Size),
		TsNano:  ev.TsNano,
	}).Error
}

// RecordTxResult persists one transaction result.
func (j *Journal) RecordTxResult(res event.TxResult) error {
	rec := &TxRecord{
		Status: res.Status.String(),
		Nonce:  res.Nonce(),
	}
	if res.Receipt != nil {
		rec.TxHash = res.Receipt.TxHash
		rec.BlockNumber = res.Receipt.BlockNumber
		rec.GasUsed = res.Receipt.GasUsed
	}
	return j.db.Create(rec).Error
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return conn.Close(j.db)
}
