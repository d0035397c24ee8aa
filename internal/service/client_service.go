package service

import (
	"context"
	"errors"

	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StatementQueue hands statement emails off to the async worker. The
// service never talks SMTP itself.
type StatementQueue interface {
	EnqueueStatement(ctx context.Context, clientID uuid.UUID, toEmail string) error
}

// ClientService manages the client roster and its current accounts.
type ClientService interface {
	Register(ctx context.Context, req dto.RegisterClientRequest) (*dto.ClientResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateClientRequest) (*dto.ClientResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*dto.ClientResponse, error)
	List(ctx context.Context, filter dto.ClientFilter) (*dto.ClientListResponse, error)
	Debtors(ctx context.Context) ([]dto.ClientResponse, error)

	// RegisterPayment credits the account (the client paid down debt).
	RegisterPayment(ctx context.Context, id uuid.UUID, req dto.PaymentRequest, userID *uuid.UUID) (*dto.LedgerEntryResponse, error)
	// RegisterCharge debits the account outside the order flow (a manual
	// adjustment, a lost container fee).
	RegisterCharge(ctx context.Context, id uuid.UUID, req dto.ChargeRequest, userID *uuid.UUID) (*dto.LedgerEntryResponse, error)

	Statement(ctx context.Context, id uuid.UUID) (*dto.StatementResponse, error)
	SendStatement(ctx context.Context, id uuid.UUID, req dto.SendStatementRequest) error
}

type clientService struct {
	repo       repository.ClientRepository
	orderRepo  repository.OrderRepository
	ledgerRepo repository.LedgerRepository
	ledger     LedgerService
	queue      StatementQueue
}

func NewClientService(repo repository.ClientRepository, orderRepo repository.OrderRepository, ledgerRepo repository.LedgerRepository, ledger LedgerService, queue StatementQueue) ClientService {
	return &clientService{repo: repo, orderRepo: orderRepo, ledgerRepo: ledgerRepo, ledger: ledger, queue: queue}
}

// ── Register ─────────────────────────────────────────────────────────────────
// Two dedup layers: the idempotency key (a retried request returns the
// original row) and the natural key name+address (the same household
// registered twice from different devices resolves to one client).

func (s *clientService) Register(ctx context.Context, req dto.RegisterClientRequest) (*dto.ClientResponse, error) {
	if req.IdempotencyKey != nil {
		if existing, err := s.repo.FindByIdempotencyKey(ctx, *req.IdempotencyKey); err == nil {
			return clientToResponse(existing), nil
		}
	}
	if existing, err := s.repo.FindByNameAddress(ctx, req.Name, req.Address); err == nil {
		return clientToResponse(existing), nil
	}

	client := &model.Client{
		Name:           req.Name,
		Address:        req.Address,
		Phone:          req.Phone,
		Zone:           req.Zone,
		IdempotencyKey: req.IdempotencyKey,
		Active:         true,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		// Lost the race against a concurrent registration with the same
		// key. The winner's row is the answer.
		if errors.Is(err, gorm.ErrDuplicatedKey) && req.IdempotencyKey != nil {
			if existing, ferr := s.repo.FindByIdempotencyKey(ctx, *req.IdempotencyKey); ferr == nil {
				return clientToResponse(existing), nil
			}
		}
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("cliente", id)
	}
	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.Phone != nil {
		client.Phone = req.Phone
	}
	if req.Zone != nil {
		client.Zone = req.Zone
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

// Deactivate soft-deletes: the client disappears from day-to-day listings
// but every ledger entry still resolves.
func (s *clientService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound("cliente", id)
	}
	return s.repo.SetActive(ctx, id, false)
}

// Delete removes the row for good. Refused while ledger history or open
// orders reference the client; prefer Deactivate.
func (s *clientService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound("cliente", id)
	}
	open, err := s.orderRepo.CountOpenByClient(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return conflict(ConflictHasReferences, "cliente %s tiene %d pedidos abiertos", id, open)
	}
	entries, err := s.ledgerRepo.CountByClient(ctx, id)
	if err != nil {
		return err
	}
	if entries > 0 {
		return conflict(ConflictHasReferences, "cliente %s tiene %d movimientos en cuenta", id, entries)
	}
	return s.repo.Delete(ctx, id)
}

func (s *clientService) Get(ctx context.Context, id uuid.UUID) (*dto.ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("cliente", id)
	}
	return clientToResponse(client), nil
}

func (s *clientService) List(ctx context.Context, filter dto.ClientFilter) (*dto.ClientListResponse, error) {
	clients, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, *clientToResponse(&clients[i]))
	}
	return &dto.ClientListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *clientService) Debtors(ctx context.Context) ([]dto.ClientResponse, error) {
	clients, err := s.repo.Debtors(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, *clientToResponse(&clients[i]))
	}
	return items, nil
}

// ── Manual account movements ─────────────────────────────────────────────────

func (s *clientService) RegisterPayment(ctx context.Context, id uuid.UUID, req dto.PaymentRequest, userID *uuid.UUID) (*dto.LedgerEntryResponse, error) {
	entry, err := s.ledger.Post(ctx, PostEntryInput{
		ClientID:    id,
		Type:        model.LedgerCredit,
		Amount:      req.Amount,
		Concept:     "Pago recibido",
		Description: nonEmpty(req.Description),
		CreatedBy:   userID,
	})
	if err != nil {
		return nil, err
	}
	return ledgerEntryToResponse(entry), nil
}

func (s *clientService) RegisterCharge(ctx context.Context, id uuid.UUID, req dto.ChargeRequest, userID *uuid.UUID) (*dto.LedgerEntryResponse, error) {
	entry, err := s.ledger.Post(ctx, PostEntryInput{
		ClientID:    id,
		Type:        model.LedgerDebit,
		Amount:      req.Amount,
		Concept:     "Cargo manual",
		Description: nonEmpty(req.Description),
		CreatedBy:   userID,
	})
	if err != nil {
		return nil, err
	}
	return ledgerEntryToResponse(entry), nil
}

// ── Statement ───────────────────────────────────────────────────────────────

func (s *clientService) Statement(ctx context.Context, id uuid.UUID) (*dto.StatementResponse, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("cliente", id)
	}
	entries, err := s.ledger.History(ctx, id, 100)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, *ledgerEntryToResponse(&entries[i]))
	}
	return &dto.StatementResponse{
		Client:     *clientToResponse(client),
		Entries:    items,
		Containers: client.ContainerBalance,
		Balance:    client.MonetaryBalance,
	}, nil
}

func (s *clientService) SendStatement(ctx context.Context, id uuid.UUID, req dto.SendStatementRequest) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound("cliente", id)
	}
	if s.queue == nil {
		return conflict("QUEUE_UNAVAILABLE", "el envío de resúmenes no está habilitado")
	}
	if err := s.queue.EnqueueStatement(ctx, id, req.ToEmail); err != nil {
		return err
	}
	log.Info().Str("client_id", id.String()).Str("to", req.ToEmail).Msg("resumen de cuenta encolado")
	return nil
}

// ── Mappers ─────────────────────────────────────────────────────────────────

func clientToResponse(c *model.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:               c.ID.String(),
		Name:             c.Name,
		Address:          c.Address,
		Phone:            c.Phone,
		Zone:             c.Zone,
		MonetaryBalance:  c.MonetaryBalance,
		ContainerBalance: c.ContainerBalance,
		Active:           c.Active,
		CreatedAt:        c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func ledgerEntryToResponse(e *model.LedgerEntry) *dto.LedgerEntryResponse {
	resp := &dto.LedgerEntryResponse{
		ID:          e.ID.String(),
		Type:        e.Type,
		Amount:      e.Amount,
		Concept:     e.Concept,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if e.OrderID != nil {
		id := e.OrderID.String()
		resp.OrderID = &id
	}
	return resp
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
