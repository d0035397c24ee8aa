package service

import (
	"context"
	"time"

	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashService covers the manual side of the register. Settlement income
// rows are written inside the settlement transaction, never through here.
type CashService interface {
	RegisterMovement(ctx context.Context, req dto.CashMovementRequest, userID *uuid.UUID) (*dto.CashMovementResponse, error)
	ListByDate(ctx context.Context, day time.Time) ([]dto.CashMovementResponse, error)
	Balance(ctx context.Context) (*dto.CashBalanceResponse, error)
}

type cashService struct {
	repo repository.CashRepository
}

func NewCashService(repo repository.CashRepository) CashService {
	return &cashService{repo: repo}
}

func (s *cashService) RegisterMovement(ctx context.Context, req dto.CashMovementRequest, userID *uuid.UUID) (*dto.CashMovementResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, errInvalidAmount()
	}
	mv := &model.CashMovement{
		Type:          req.Type,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
		Concept:       req.Concept,
		CreatedBy:     userID,
	}
	if err := s.repo.Create(ctx, mv); err != nil {
		return nil, err
	}
	return cashMovementToResponse(mv), nil
}

func (s *cashService) ListByDate(ctx context.Context, day time.Time) ([]dto.CashMovementResponse, error) {
	movements, err := s.repo.ListByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CashMovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, *cashMovementToResponse(&movements[i]))
	}
	return items, nil
}

func (s *cashService) Balance(ctx context.Context) (*dto.CashBalanceResponse, error) {
	sums, err := s.repo.Sums(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.CashBalanceResponse{
		Total:    decimal.Zero,
		Cash:     decimal.Zero,
		Transfer: decimal.Zero,
	}
	for _, row := range sums {
		signed := row.Total
		if row.Type == model.CashExpense {
			signed = signed.Neg()
		}
		resp.Total = resp.Total.Add(signed)
		switch row.PaymentMethod {
		case model.PaymentCash:
			resp.Cash = resp.Cash.Add(signed)
		case model.PaymentTransfer:
			resp.Transfer = resp.Transfer.Add(signed)
		}
	}
	return resp, nil
}

func cashMovementToResponse(m *model.CashMovement) *dto.CashMovementResponse {
	resp := &dto.CashMovementResponse{
		ID:            m.ID.String(),
		Type:          m.Type,
		PaymentMethod: m.PaymentMethod,
		Amount:        m.Amount,
		Concept:       m.Concept,
		CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if m.ReferenceID != nil {
		id := m.ReferenceID.String()
		resp.ReferenceID = &id
	}
	return resp
}
