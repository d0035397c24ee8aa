package repository

import (
	"context"

	"soderia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository persists the two append-only ledgers. There are no
// Update/Delete methods on purpose: corrections are new offsetting entries.
type LedgerRepository interface {
	CreateEntryTx(tx *gorm.DB, e *model.LedgerEntry) error
	CreateContainerEntryTx(tx *gorm.DB, e *model.ContainerLedgerEntry) error

	History(ctx context.Context, clientID uuid.UUID, limit int) ([]model.LedgerEntry, error)
	ContainerHistory(ctx context.Context, clientID uuid.UUID, limit int) ([]model.ContainerLedgerEntry, error)

	// SumByClient recomputes Σ(DEBIT) and Σ(CREDIT) from scratch — the
	// reconcile path, not the hot path.
	SumByClient(ctx context.Context, clientID uuid.UUID) (debit, credit decimal.Decimal, err error)
	SumContainersByClient(ctx context.Context, clientID uuid.UUID) (int, error)
	CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error)

	DB() *gorm.DB
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) DB() *gorm.DB { return r.db }

func (r *ledgerRepo) CreateEntryTx(tx *gorm.DB, e *model.LedgerEntry) error {
	return tx.Create(e).Error
}

func (r *ledgerRepo) CreateContainerEntryTx(tx *gorm.DB, e *model.ContainerLedgerEntry) error {
	return tx.Create(e).Error
}

func (r *ledgerRepo) History(ctx context.Context, clientID uuid.UUID, limit int) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepo) ContainerHistory(ctx context.Context, clientID uuid.UUID, limit int) ([]model.ContainerLedgerEntry, error) {
	var entries []model.ContainerLedgerEntry
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepo) SumByClient(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	type row struct {
		Type  string
		Total decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("client_id = ?", clientID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	debit, credit := decimal.Zero, decimal.Zero
	for _, rw := range rows {
		switch rw.Type {
		case model.LedgerDebit:
			debit = rw.Total
		case model.LedgerCredit:
			credit = rw.Total
		}
	}
	return debit, credit, nil
}

func (r *ledgerRepo) SumContainersByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.ContainerLedgerEntry{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("client_id = ?", clientID).
		Scan(&total).Error
	return total, err
}

func (r *ledgerRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Where("client_id = ?", clientID).
		Count(&n).Error
	return n, err
}
