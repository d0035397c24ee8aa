package service

import (
	"context"
	"errors"

	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PostEntryInput describes one monetary ledger posting.
type PostEntryInput struct {
	ClientID    uuid.UUID
	Type        string // model.LedgerDebit | model.LedgerCredit
	Amount      decimal.Decimal
	Concept     string
	Description *string
	OrderID     *uuid.UUID
	CreatedBy   *uuid.UUID
}

// PostContainerInput describes one container ledger posting.
type PostContainerInput struct {
	ClientID  uuid.UUID
	Delta     int
	Concept   string
	OrderID   *uuid.UUID
	CreatedBy *uuid.UUID
}

// LedgerService is the only write path to client balances. Every posting
// appends the entry AND applies the cached balance delta in one
// transaction — they commit together or not at all.
type LedgerService interface {
	Post(ctx context.Context, in PostEntryInput) (*model.LedgerEntry, error)
	PostContainerMovement(ctx context.Context, in PostContainerInput) (*model.ContainerLedgerEntry, error)

	// Tx variants compose into a larger transaction (the settlement
	// engine). The hold check and validation still apply.
	PostTx(tx *gorm.DB, in PostEntryInput) (*model.LedgerEntry, error)
	PostContainerTx(tx *gorm.DB, in PostContainerInput) (*model.ContainerLedgerEntry, error)

	History(ctx context.Context, clientID uuid.UUID, limit int) ([]model.LedgerEntry, error)
	ContainerHistory(ctx context.Context, clientID uuid.UUID, limit int) ([]model.ContainerLedgerEntry, error)

	// Reconcile recomputes both ledger sums from scratch and compares
	// them to the cached balances. A mismatch puts the client on ledger
	// hold (no further postings) and surfaces an IntegrityError.
	Reconcile(ctx context.Context, clientID uuid.UUID) (*dto.ReconcileResponse, error)
	ReleaseHold(ctx context.Context, clientID uuid.UUID) error
}

type ledgerService struct {
	repo       repository.LedgerRepository
	clientRepo repository.ClientRepository
}

func NewLedgerService(repo repository.LedgerRepository, clientRepo repository.ClientRepository) LedgerService {
	return &ledgerService{repo: repo, clientRepo: clientRepo}
}

// ── Post ─────────────────────────────────────────────────────────────────────

func (s *ledgerService) Post(ctx context.Context, in PostEntryInput) (*model.LedgerEntry, error) {
	var entry *model.LedgerEntry
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		e, err := s.PostTx(tx, in)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) PostTx(tx *gorm.DB, in PostEntryInput) (*model.LedgerEntry, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errInvalidAmount()
	}
	if in.Type != model.LedgerDebit && in.Type != model.LedgerCredit {
		return nil, &ValidationError{Field: "type", Msg: "debe ser DEBIT o CREDIT"}
	}

	if err := s.checkPostable(tx, in.ClientID); err != nil {
		return nil, err
	}

	entry := &model.LedgerEntry{
		ClientID:    in.ClientID,
		OrderID:     in.OrderID,
		Type:        in.Type,
		Amount:      in.Amount,
		Concept:     in.Concept,
		Description: in.Description,
		CreatedBy:   in.CreatedBy,
	}
	if err := s.repo.CreateEntryTx(tx, entry); err != nil {
		return nil, err
	}

	delta := in.Amount
	if in.Type == model.LedgerCredit {
		delta = delta.Neg()
	}
	if err := s.clientRepo.ApplyMonetaryDeltaTx(tx, in.ClientID, delta); err != nil {
		return nil, err
	}
	return entry, nil
}

// ── PostContainerMovement ────────────────────────────────────────────────────

func (s *ledgerService) PostContainerMovement(ctx context.Context, in PostContainerInput) (*model.ContainerLedgerEntry, error) {
	var entry *model.ContainerLedgerEntry
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		e, err := s.PostContainerTx(tx, in)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *ledgerService) PostContainerTx(tx *gorm.DB, in PostContainerInput) (*model.ContainerLedgerEntry, error) {
	if in.Delta == 0 {
		return nil, &ValidationError{Field: "delta", Msg: "debe ser distinto de cero"}
	}

	if err := s.checkPostable(tx, in.ClientID); err != nil {
		return nil, err
	}

	entry := &model.ContainerLedgerEntry{
		ClientID:  in.ClientID,
		OrderID:   in.OrderID,
		Delta:     in.Delta,
		Concept:   in.Concept,
		CreatedBy: in.CreatedBy,
	}
	if err := s.repo.CreateContainerEntryTx(tx, entry); err != nil {
		return nil, err
	}
	if err := s.clientRepo.ApplyContainerDeltaTx(tx, in.ClientID, in.Delta); err != nil {
		return nil, err
	}
	return entry, nil
}

// checkPostable verifies the client exists, is active, and is not on
// ledger hold. Runs inside the posting transaction so the check and the
// write are indivisible.
func (s *ledgerService) checkPostable(tx *gorm.DB, clientID uuid.UUID) error {
	client, err := s.clientRepo.FindByIDTx(tx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("cliente", clientID)
		}
		return err
	}
	if client.LedgerHold {
		return conflict("LEDGER_HOLD",
			"cliente %s: cuenta bloqueada por inconsistencia de balances, resolver manualmente", clientID)
	}
	return nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *ledgerService) History(ctx context.Context, clientID uuid.UUID, limit int) ([]model.LedgerEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.repo.History(ctx, clientID, limit)
}

func (s *ledgerService) ContainerHistory(ctx context.Context, clientID uuid.UUID, limit int) ([]model.ContainerLedgerEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.repo.ContainerHistory(ctx, clientID, limit)
}

// ── Reconcile ────────────────────────────────────────────────────────────────

func (s *ledgerService) Reconcile(ctx context.Context, clientID uuid.UUID) (*dto.ReconcileResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, notFound("cliente", clientID)
	}

	debit, credit, err := s.repo.SumByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	containerSum, err := s.repo.SumContainersByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	ledgerBalance := debit.Sub(credit)
	consistent := client.MonetaryBalance.Equal(ledgerBalance) && client.ContainerBalance == containerSum

	resp := &dto.ReconcileResponse{
		ClientID:         clientID.String(),
		Consistent:       consistent,
		CachedMonetary:   client.MonetaryBalance,
		LedgerMonetary:   ledgerBalance,
		CachedContainers: client.ContainerBalance,
		LedgerContainers: containerSum,
	}

	if !consistent {
		// Block further postings until the account is manually repaired.
		if holdErr := s.clientRepo.SetLedgerHold(ctx, clientID, true); holdErr != nil {
			return nil, holdErr
		}
		log.Error().
			Str("client_id", clientID.String()).
			Str("cached_balance", client.MonetaryBalance.String()).
			Str("ledger_balance", ledgerBalance.String()).
			Int("cached_containers", client.ContainerBalance).
			Int("ledger_containers", containerSum).
			Msg("ledger reconciliation mismatch — account held")
		return resp, &IntegrityError{
			ClientID:         clientID,
			CachedMonetary:   client.MonetaryBalance,
			LedgerMonetary:   ledgerBalance,
			CachedContainers: client.ContainerBalance,
			LedgerContainers: containerSum,
		}
	}
	return resp, nil
}

func (s *ledgerService) ReleaseHold(ctx context.Context, clientID uuid.UUID) error {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return notFound("cliente", clientID)
	}
	return s.clientRepo.SetLedgerHold(ctx, clientID, false)
}
