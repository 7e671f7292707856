//go:build unit

package fake

import (
	"context"
	"time"

	"bookingbot-engine/internal/domain/booking"
	"bookingbot-engine/internal/domain/payment"
	"bookingbot-engine/internal/domain/schedule"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/pkg/errs"
	"bookingbot-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// World is an in-memory stand-in for the persistence layer: one flat store
// behind the UnitOfWork, CommandReads and SweepReads ports. It reproduces
// the contracts the usecase layer relies on without a database: claims
// serialize through a schedule.Calendar the way production serializes
// through the exclusion constraint, duplicate idempotency keys collide,
// and a failed constraint statement poisons the transaction so a closure
// that swallows the failure and returns nil fails at commit, as it would
// on Postgres. Store mutations are not rolled back on error; scenarios
// that need real rollback belong in the container-backed tests.
type World struct {
	BookingStore map[uuid.UUID]*booking.Booking
	PaymentStore map[uuid.UUID]*payment.Record
	IdemStore    map[uuid.UUID]*shared.IdempotencyRecord
	OutboxStore  []*OutboxEntry

	Tenants   map[uuid.UUID]*shared.TenantSnapshot
	Services  map[uuid.UUID]*shared.ServiceSnapshot
	Resources map[uuid.UUID]*shared.ResourceSnapshot
	// ExtraBusy adds committed blocks that exist outside the booking store.
	ExtraBusy map[uuid.UUID][]schedule.TimeSlot
	// ForceCreateConflict simulates losing the exclusion-constraint race to
	// a writer that committed after the advisory availability pre-check.
	ForceCreateConflict bool

	calendar *schedule.Calendar
	// held tracks each active booking's claimed interval so a save can
	// release or move it on the calendar.
	held map[uuid.UUID]schedule.TimeSlot
	// txAborted is set when a statement fails on a constraint; only a
	// rollback (an error from the closure) clears the transaction.
	txAborted bool
}

type OutboxEntry struct {
	Job       shared.OutboxJob
	Status    string
	LastError string
}

func NewWorld() *World {
	return &World{
		BookingStore: make(map[uuid.UUID]*booking.Booking),
		PaymentStore: make(map[uuid.UUID]*payment.Record),
		IdemStore:    make(map[uuid.UUID]*shared.IdempotencyRecord),
		Tenants:      make(map[uuid.UUID]*shared.TenantSnapshot),
		Services:     make(map[uuid.UUID]*shared.ServiceSnapshot),
		Resources:    make(map[uuid.UUID]*shared.ResourceSnapshot),
		ExtraBusy:    make(map[uuid.UUID][]schedule.TimeSlot),
		calendar:     schedule.NewCalendar(),
		held:         make(map[uuid.UUID]schedule.TimeSlot),
	}
}

func (w *World) AddTenant(t *shared.TenantSnapshot)     { w.Tenants[t.ID] = t }
func (w *World) AddService(s *shared.ServiceSnapshot)   { w.Services[s.ID] = s }
func (w *World) AddResource(r *shared.ResourceSnapshot) { w.Resources[r.ID] = r }

func (w *World) AddBooking(b *booking.Booking) {
	b.PullEvents() // seeded aggregates start with a clean event log
	w.BookingStore[b.ID()] = b
	if b.IsActive() {
		w.calendar.TryClaim(b.ResourceID(), b.ClaimSlot())
		w.held[b.ID()] = b.ClaimSlot()
	}
}

// HeldClaims lists the claims currently committed on the resource calendar.
func (w *World) HeldClaims(resourceID uuid.UUID) []schedule.TimeSlot {
	return w.calendar.Committed(resourceID)
}

func (w *World) AddPayment(rec *payment.Record) {
	w.PaymentStore[rec.ID()] = rec
}

// Topics lists the routing keys enqueued so far, in order.
func (w *World) Topics() []string {
	out := make([]string, 0, len(w.OutboxStore))
	for _, e := range w.OutboxStore {
		out = append(out, e.Job.Topic)
	}
	return out
}

// ----- shared.UnitOfWork -----

func (w *World) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	w.txAborted = false
	err := fn(ctx, (*worldTx)(w))
	if err == nil && w.txAborted {
		w.txAborted = false
		return errs.New("commit failed: transaction is aborted")
	}
	w.txAborted = false
	return err
}

func (w *World) Reads() shared.CommandReads { return w }

type worldTx World

func (t *worldTx) Bookings() shared.BookingRepository        { return (*bookingRepo)(t) }
func (t *worldTx) Payments() shared.PaymentRepository        { return (*paymentRepo)(t) }
func (t *worldTx) Outbox() shared.OutboxRepository           { return (*outboxRepo)(t) }
func (t *worldTx) Idempotency() shared.IdempotencyRepository { return (*idemRepo)(t) }
func (t *worldTx) DB() db.DBTX                               { return nil }

// ----- booking repository -----

type bookingRepo World

func (r *bookingRepo) Create(_ context.Context, b *booking.Booking) (uuid.UUID, error) {
	if r.ForceCreateConflict {
		r.txAborted = true
		return uuid.Nil, infra.WrapRepoErr("claim overlap", nil, infra.KindConflict)
	}
	if !r.calendar.TryClaim(b.ResourceID(), b.ClaimSlot()) {
		r.txAborted = true
		return uuid.Nil, infra.WrapRepoErr("claim overlap", nil, infra.KindConflict)
	}
	r.held[b.ID()] = b.ClaimSlot()
	r.BookingStore[b.ID()] = b
	return b.ID(), nil
}

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.BookingStore[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return b, nil
}

func (r *bookingRepo) Save(_ context.Context, b *booking.Booking) error {
	if _, ok := r.BookingStore[b.ID()]; !ok {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	held, holding := r.held[b.ID()]
	switch {
	case !b.IsActive():
		if holding {
			r.calendar.Release(b.ResourceID(), held)
			delete(r.held, b.ID())
		}
	case holding && !sameSlot(held, b.ClaimSlot()):
		// A moved claim releases its old interval before claiming the new
		// one, like the row update does; losing the race restores it.
		r.calendar.Release(b.ResourceID(), held)
		if !r.calendar.TryClaim(b.ResourceID(), b.ClaimSlot()) {
			r.calendar.TryClaim(b.ResourceID(), held)
			r.txAborted = true
			return infra.WrapRepoErr("claim overlap", nil, infra.KindConflict)
		}
		r.held[b.ID()] = b.ClaimSlot()
	}
	r.BookingStore[b.ID()] = b
	return nil
}

func sameSlot(a, b schedule.TimeSlot) bool {
	return a.Start().Equal(b.Start()) && a.End().Equal(b.End())
}

// ----- payment repository -----

type paymentRepo World

func (r *paymentRepo) Create(_ context.Context, rec *payment.Record) error {
	r.PaymentStore[rec.ID()] = rec
	return nil
}

func (r *paymentRepo) FindByReference(_ context.Context, reference string) (*payment.Record, error) {
	for _, rec := range r.PaymentStore {
		if rec.Reference() == reference {
			return rec, nil
		}
	}
	return nil, infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)
}

func (r *paymentRepo) FindCurrentByBooking(_ context.Context, bookingID uuid.UUID) (*payment.Record, error) {
	var current *payment.Record
	for _, rec := range r.PaymentStore {
		if rec.BookingID() != bookingID {
			continue
		}
		if current == nil || rec.Attempt() > current.Attempt() {
			current = rec
		}
	}
	if current == nil {
		return nil, infra.WrapRepoErr("payment not found", nil, infra.KindNotFound)
	}
	return current, nil
}

func (r *paymentRepo) Save(_ context.Context, rec *payment.Record) error {
	r.PaymentStore[rec.ID()] = rec
	return nil
}

// ----- outbox repository -----

type outboxRepo World

func (r *outboxRepo) Enqueue(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	r.OutboxStore = append(r.OutboxStore, &OutboxEntry{
		Job: shared.OutboxJob{
			ID:      uuid.New(),
			Kind:    kind,
			Topic:   topic,
			Payload: payload,
			RunAt:   runAt,
		},
		Status: "queued",
	})
	return nil
}

func (r *outboxRepo) ClaimDue(_ context.Context, now time.Time, limit int) ([]shared.OutboxJob, error) {
	var out []shared.OutboxJob
	for _, e := range r.OutboxStore {
		if len(out) >= limit {
			break
		}
		if e.Status != "queued" || e.Job.RunAt.After(now) {
			continue
		}
		e.Status = "publishing"
		e.Job.Attempts++
		out = append(out, e.Job)
	}
	return out, nil
}

func (r *outboxRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	for _, e := range r.OutboxStore {
		if e.Job.ID == id {
			e.Status = "published"
			return nil
		}
	}
	return infra.WrapRepoErr("outbox job not found", nil, infra.KindNotFound)
}

func (r *outboxRepo) MarkFailed(_ context.Context, id uuid.UUID, lastError string) error {
	for _, e := range r.OutboxStore {
		if e.Job.ID == id {
			e.Status = "queued"
			e.LastError = lastError
			return nil
		}
	}
	return infra.WrapRepoErr("outbox job not found", nil, infra.KindNotFound)
}

// ----- idempotency repository -----

type idemRepo World

func (r *idemRepo) TryInsert(_ context.Context, key, tenantID uuid.UUID, _ string, requestHash string, expiresAt time.Time) error {
	if _, ok := r.IdemStore[key]; ok {
		r.txAborted = true
		return infra.WrapRepoErr("duplicate idempotency key", nil, infra.KindDuplicateKey)
	}
	r.IdemStore[key] = &shared.IdempotencyRecord{
		Key:         key,
		TenantID:    tenantID,
		Status:      "processing",
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return nil
}

func (r *idemRepo) MarkCompleted(_ context.Context, key, tenantID uuid.UUID, _ string, bookingID uuid.UUID) error {
	rec, ok := r.IdemStore[key]
	if !ok || rec.TenantID != tenantID {
		return infra.WrapRepoErr("idempotency record not found", nil, infra.KindNotFound)
	}
	rec.Status = "completed"
	id := bookingID
	rec.ResultBookingID = &id
	return nil
}

// ----- shared.CommandReads -----

func (w *World) TenantByID(_ context.Context, id uuid.UUID) (*shared.TenantSnapshot, error) {
	t, ok := w.Tenants[id]
	if !ok {
		return nil, infra.WrapRepoErr("tenant not found", nil, infra.KindNotFound)
	}
	return t, nil
}

func (w *World) ServiceByID(_ context.Context, tenantID, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	s, ok := w.Services[id]
	if !ok || s.TenantID != tenantID {
		return nil, infra.WrapRepoErr("service not found", nil, infra.KindNotFound)
	}
	return s, nil
}

func (w *World) ResourceByID(_ context.Context, tenantID, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	r, ok := w.Resources[id]
	if !ok || r.TenantID != tenantID {
		return nil, infra.WrapRepoErr("resource not found", nil, infra.KindNotFound)
	}
	return r, nil
}

func (w *World) ResourcesForService(_ context.Context, serviceID uuid.UUID) ([]shared.ResourceSnapshot, error) {
	s, ok := w.Services[serviceID]
	if !ok {
		return nil, infra.WrapRepoErr("service not found", nil, infra.KindNotFound)
	}
	var out []shared.ResourceSnapshot
	for _, id := range s.ResourceIDs {
		if r, ok := w.Resources[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (w *World) BusySlots(_ context.Context, resourceID uuid.UUID, from, to time.Time) ([]schedule.TimeSlot, error) {
	window := schedule.MustTimeSlot(from, to)
	var out []schedule.TimeSlot
	for _, slot := range w.calendar.Committed(resourceID) {
		if slot.Overlaps(window) {
			out = append(out, slot)
		}
	}
	for _, slot := range w.ExtraBusy[resourceID] {
		if slot.Overlaps(window) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (w *World) IdempotencyByKey(_ context.Context, key, tenantID uuid.UUID) (*shared.IdempotencyRecord, error) {
	rec, ok := w.IdemStore[key]
	if !ok || rec.TenantID != tenantID {
		return nil, infra.WrapRepoErr("idempotency record not found", nil, infra.KindNotFound)
	}
	return rec, nil
}

// ----- shared.SweepReads -----

func (w *World) PendingPaymentOlderThan(_ context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for id, b := range w.BookingStore {
		if len(out) >= limit {
			break
		}
		if b.Status() == booking.StatusPendingPayment && !b.CreatedAt().After(cutoff) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (w *World) ConfirmedEndedBefore(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for id, b := range w.BookingStore {
		if len(out) >= limit {
			break
		}
		if b.Status() == booking.StatusConfirmed && b.Slot().End().Before(now) {
			out = append(out, id)
		}
	}
	return out, nil
}
