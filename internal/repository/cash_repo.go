package repository

import (
	"context"
	"time"

	"soderia/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashSum is one aggregation row of the register: total per movement type
// and payment channel.
type CashSum struct {
	Type          string
	PaymentMethod string
	Total         decimal.Decimal
}

// CashRepository persists the business cash register. Append-only — no
// Update/Delete.
type CashRepository interface {
	Create(ctx context.Context, m *model.CashMovement) error
	CreateTx(tx *gorm.DB, m *model.CashMovement) error
	ListByDate(ctx context.Context, day time.Time) ([]model.CashMovement, error)
	Sums(ctx context.Context) ([]CashSum, error)
	DB() *gorm.DB
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

func (r *cashRepo) DB() *gorm.DB { return r.db }

func (r *cashRepo) Create(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cashRepo) CreateTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *cashRepo) ListByDate(ctx context.Context, day time.Time) ([]model.CashMovement, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at DESC").
		Find(&movs).Error
	return movs, err
}

func (r *cashRepo) Sums(ctx context.Context) ([]CashSum, error) {
	var rows []CashSum
	err := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Select("type, payment_method, COALESCE(SUM(amount), 0) AS total").
		Group("type, payment_method").
		Scan(&rows).Error
	return rows, err
}
