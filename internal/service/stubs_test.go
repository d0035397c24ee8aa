package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository stubs. All methods take the lock so the
// concurrent-settlement test exercises real CAS semantics: the conditional
// transitions check-and-write atomically, exactly like the SQL UPDATEs.

// ── stubClientRepo ───────────────────────────────────────────────────────────

type stubClientRepo struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*model.Client
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.IdempotencyKey != nil {
		for _, existing := range r.clients {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *c.IdempotencyKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	return r.find(id)
}

func (r *stubClientRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Client, error) {
	return r.find(id)
}

func (r *stubClientRepo) find(id uuid.UUID) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClientRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.IdempotencyKey != nil && *c.IdempotencyKey == key {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClientRepo) FindByNameAddress(_ context.Context, name, address string) (*model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if strings.EqualFold(c.Name, name) && strings.EqualFold(c.Address, address) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClientRepo) List(_ context.Context, filter dto.ClientFilter) ([]model.Client, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Client
	for _, c := range r.clients {
		if !c.Active && !filter.IncludeInactive {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClientRepo) Debtors(_ context.Context) ([]model.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Client
	for _, c := range r.clients {
		if c.Active && c.MonetaryBalance.IsPositive() {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubClientRepo) Update(_ context.Context, c *model.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Active = active
	return nil
}

func (r *stubClientRepo) SetLedgerHold(_ context.Context, id uuid.UUID, hold bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LedgerHold = hold
	return nil
}

func (r *stubClientRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
	return nil
}

func (r *stubClientRepo) ApplyMonetaryDeltaTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.MonetaryBalance = c.MonetaryBalance.Add(delta)
	return nil
}

func (r *stubClientRepo) ApplyContainerDeltaTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.ContainerBalance += delta
	return nil
}

func (r *stubClientRepo) DB() *gorm.DB { return nil }

var _ repository.ClientRepository = (*stubClientRepo)(nil)

// ── stubOrderRepo ────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.IdempotencyKey != nil {
		for _, existing := range r.orders {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *o.IdempotencyKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	o.CreatedAt = time.Now()
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return r.find(id)
}

func (r *stubOrderRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	return r.find(id)
}

func (r *stubOrderRepo) find(id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) List(_ context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if filter.Status != "" && filter.Status != "all" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) ListByDelivery(_ context.Context, deliveryID uuid.UUID) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.DeliveryID != nil && *o.DeliveryID == deliveryID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) CountOpenByClient(_ context.Context, clientID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.ClientID == clientID && (o.Status == model.OrderStatusDraft || o.Status == model.OrderStatusConfirmed) {
			n++
		}
	}
	return n, nil
}

func (r *stubOrderRepo) ConfirmCAS(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != model.OrderStatusDraft {
		return 0, nil
	}
	o.Status = model.OrderStatusConfirmed
	return 1, nil
}

func (r *stubOrderRepo) CancelCASTx(_ *gorm.DB, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || (o.Status != model.OrderStatusDraft && o.Status != model.OrderStatusConfirmed) {
		return 0, nil
	}
	o.Status = model.OrderStatusCancelled
	o.DeliveryID = nil
	return 1, nil
}

func (r *stubOrderRepo) MarkDeliveredCASTx(_ *gorm.DB, id uuid.UUID, paymentMethod string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != model.OrderStatusConfirmed || o.DeliveryID == nil {
		return 0, nil
	}
	o.Status = model.OrderStatusDelivered
	o.PaymentMethod = &paymentMethod
	o.DeliveredAt = &at
	return 1, nil
}

func (r *stubOrderRepo) AssignDeliveryCASTx(_ *gorm.DB, orderID, deliveryID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != model.OrderStatusConfirmed || o.DeliveryID != nil {
		return 0, nil
	}
	o.DeliveryID = &deliveryID
	return 1, nil
}

func (r *stubOrderRepo) DetachDeliveryTx(_ *gorm.DB, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.DeliveryID = nil
	return nil
}

func (r *stubOrderRepo) DetachAllFromDeliveryTx(_ *gorm.DB, deliveryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.DeliveryID != nil && *o.DeliveryID == deliveryID && o.Status != model.OrderStatusDelivered {
			o.DeliveryID = nil
		}
	}
	return nil
}

func (r *stubOrderRepo) CreateItemTx(_ *gorm.DB, item *model.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return nil
}

func (r *stubOrderRepo) UpdateTotalTx(_ *gorm.DB, orderID uuid.UUID, total decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Total = total
	return nil
}

func (r *stubOrderRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── stubLedgerRepo ───────────────────────────────────────────────────────────

type stubLedgerRepo struct {
	mu         sync.Mutex
	entries    []model.LedgerEntry
	containers []model.ContainerLedgerEntry
}

func newStubLedgerRepo() *stubLedgerRepo { return &stubLedgerRepo{} }

func (r *stubLedgerRepo) CreateEntryTx(_ *gorm.DB, e *model.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubLedgerRepo) CreateContainerEntryTx(_ *gorm.DB, e *model.ContainerLedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	r.containers = append(r.containers, *e)
	return nil
}

func (r *stubLedgerRepo) History(_ context.Context, clientID uuid.UUID, limit int) ([]model.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.LedgerEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].ClientID == clientID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *stubLedgerRepo) ContainerHistory(_ context.Context, clientID uuid.UUID, limit int) ([]model.ContainerLedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ContainerLedgerEntry
	for i := len(r.containers) - 1; i >= 0 && len(out) < limit; i-- {
		if r.containers[i].ClientID == clientID {
			out = append(out, r.containers[i])
		}
	}
	return out, nil
}

func (r *stubLedgerRepo) SumByClient(_ context.Context, clientID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range r.entries {
		if e.ClientID != clientID {
			continue
		}
		if e.Type == model.LedgerDebit {
			debit = debit.Add(e.Amount)
		} else {
			credit = credit.Add(e.Amount)
		}
	}
	return debit, credit, nil
}

func (r *stubLedgerRepo) SumContainersByClient(_ context.Context, clientID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, e := range r.containers {
		if e.ClientID == clientID {
			sum += e.Delta
		}
	}
	return sum, nil
}

func (r *stubLedgerRepo) CountByClient(_ context.Context, clientID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.entries {
		if e.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (r *stubLedgerRepo) DB() *gorm.DB { return nil }

var _ repository.LedgerRepository = (*stubLedgerRepo)(nil)

// ── stubCashRepo ─────────────────────────────────────────────────────────────

type stubCashRepo struct {
	mu        sync.Mutex
	movements []model.CashMovement
}

func newStubCashRepo() *stubCashRepo { return &stubCashRepo{} }

func (r *stubCashRepo) Create(_ context.Context, m *model.CashMovement) error {
	return r.CreateTx(nil, m)
}

func (r *stubCashRepo) CreateTx(_ *gorm.DB, m *model.CashMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubCashRepo) ListByDate(_ context.Context, day time.Time) ([]model.CashMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.CreatedAt.Format("2006-01-02") == day.Format("2006-01-02") {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubCashRepo) Sums(_ context.Context) ([]repository.CashSum, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg := make(map[string]decimal.Decimal)
	for _, m := range r.movements {
		key := m.Type + "|" + m.PaymentMethod
		agg[key] = agg[key].Add(m.Amount)
	}
	var out []repository.CashSum
	for key, total := range agg {
		parts := strings.SplitN(key, "|", 2)
		out = append(out, repository.CashSum{Type: parts[0], PaymentMethod: parts[1], Total: total})
	}
	return out, nil
}

func (r *stubCashRepo) DB() *gorm.DB { return nil }

var _ repository.CashRepository = (*stubCashRepo)(nil)

// ── stubDeliveryRepo ─────────────────────────────────────────────────────────

// stubDeliveryRepo resolves member orders through the order stub, mirroring
// the Preload the real repository does.
type stubDeliveryRepo struct {
	mu         sync.Mutex
	deliveries map[uuid.UUID]*model.Delivery
	orders     *stubOrderRepo
}

func newStubDeliveryRepo(orders *stubOrderRepo) *stubDeliveryRepo {
	return &stubDeliveryRepo{deliveries: make(map[uuid.UUID]*model.Delivery), orders: orders}
}

func (r *stubDeliveryRepo) CreateTx(_ *gorm.DB, d *model.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	r.deliveries[d.ID] = d
	return nil
}

func (r *stubDeliveryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	r.mu.Lock()
	d, ok := r.deliveries[id]
	r.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	members, err := r.orders.ListByDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	copied := *d
	copied.Orders = members
	return &copied, nil
}

func (r *stubDeliveryRepo) List(ctx context.Context, limit int) ([]model.Delivery, error) {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.deliveries))
	for id := range r.deliveries {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	var out []model.Delivery
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		d, err := r.FindByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *stubDeliveryRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deliveries, id)
	return nil
}

func (r *stubDeliveryRepo) DB() *gorm.DB { return nil }

var _ repository.DeliveryRepository = (*stubDeliveryRepo)(nil)

// ── stubCatalog ──────────────────────────────────────────────────────────────

type stubCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: make(map[uuid.UUID]*model.Product)}
}

func (c *stubCatalog) add(name string, price decimal.Decimal, returnable bool) uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.New()
	c.products[id] = &model.Product{ID: id, Code: name, Name: name, Price: price, IsReturnable: returnable, Active: true}
	return id
}

func (c *stubCatalog) setPrice(id uuid.UUID, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[id].Price = price
}

func (c *stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, notFound("producto", id)
	}
	copied := *p
	return &copied, nil
}

var _ Catalog = (*stubCatalog)(nil)

// ── stubStatementQueue ───────────────────────────────────────────────────────

type stubStatementQueue struct {
	mu       sync.Mutex
	enqueued []string // "clientID|email"
}

func (q *stubStatementQueue) EnqueueStatement(_ context.Context, clientID uuid.UUID, toEmail string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, clientID.String()+"|"+toEmail)
	return nil
}

var _ StatementQueue = (*stubStatementQueue)(nil)

// ── shared fixtures ──────────────────────────────────────────────────────────

func seedClient(repo *stubClientRepo, name string) *model.Client {
	c := &model.Client{Name: name, Address: "Calle Falsa 123", Active: true}
	_ = repo.Create(context.Background(), c)
	return c
}
