//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for the persistence layer. Entities are
// cloned on write and read so mutations only become visible through Save,
// matching how a real row round-trip behaves.
type fakeStore struct {
	reservations map[uuid.UUID]*reservation.Reservation
	billings     map[uuid.UUID]*billing.Billing
	transactions map[uuid.UUID]*shared.TransactionRecord
	events        map[string]*shared.EventClaim
	eventFailures map[string]string
	jobs          []*shared.JobRecord
	properties    map[uuid.UUID]*shared.PropertySnapshot

	// retries aborts and replays each transaction closure this many times
	// before the attempt that counts, the way a serialization failure does.
	retries      int
	createResErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reservations:  map[uuid.UUID]*reservation.Reservation{},
		billings:      map[uuid.UUID]*billing.Billing{},
		transactions:  map[uuid.UUID]*shared.TransactionRecord{},
		events:        map[string]*shared.EventClaim{},
		eventFailures: map[string]string{},
		properties:    map[uuid.UUID]*shared.PropertySnapshot{},
	}
}

func (s *fakeStore) snapshot() *fakeStore {
	clone := newFakeStore()
	for k, v := range s.reservations {
		clone.reservations[k] = v
	}
	for k, v := range s.billings {
		clone.billings[k] = v
	}
	for k, v := range s.transactions {
		c := *v
		clone.transactions[k] = &c
	}
	for k, v := range s.events {
		c := *v
		clone.events[k] = &c
	}
	for k, v := range s.eventFailures {
		clone.eventFailures[k] = v
	}
	clone.jobs = append([]*shared.JobRecord(nil), s.jobs...)
	for k, v := range s.properties {
		clone.properties[k] = v
	}
	return clone
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.reservations = snap.reservations
	s.billings = snap.billings
	s.transactions = snap.transactions
	s.events = snap.events
	s.eventFailures = snap.eventFailures
	s.jobs = snap.jobs
	s.properties = snap.properties
}

func (s *fakeStore) addReservation(res *reservation.Reservation) {
	c := *res
	s.reservations[res.ID()] = &c
}

func (s *fakeStore) addBilling(b *billing.Billing) {
	c := *b
	s.billings[b.ID()] = &c
}

func (s *fakeStore) addTransaction(tr *shared.TransactionRecord) {
	c := *tr
	s.transactions[tr.ID] = &c
}

func (s *fakeStore) jobNames() []shared.JobName {
	names := make([]shared.JobName, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Name)
	}
	return names
}

// UnitOfWork

func (s *fakeStore) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	for i := 0; i < s.retries; i++ {
		snap := s.snapshot()
		_ = fn(ctx, fakeTx{s})
		s.restore(snap)
	}
	snap := s.snapshot()
	if err := fn(ctx, fakeTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) Reads() shared.CommandReads { return fakeReads{s} }

type fakeTx struct{ s *fakeStore }

func (t fakeTx) Reservations() shared.ReservationRepository { return fakeReservationRepo{t.s} }
func (t fakeTx) Billings() shared.BillingRepository         { return fakeBillingRepo{t.s} }
func (t fakeTx) Transactions() shared.TransactionRepository { return fakeTransactionRepo{t.s} }
func (t fakeTx) EventLog() shared.EventLogRepository        { return fakeEventLogRepo{t.s} }
func (t fakeTx) Jobs() shared.JobRepository                 { return fakeJobRepo{t.s} }
func (t fakeTx) Reads() shared.CommandReads                 { return fakeReads{t.s} }

type fakeReservationRepo struct{ s *fakeStore }

func (r fakeReservationRepo) Create(ctx context.Context, res *reservation.Reservation) error {
	if r.s.createResErr != nil {
		return r.s.createResErr
	}
	r.s.addReservation(res)
	return nil
}

func (r fakeReservationRepo) Save(ctx context.Context, res *reservation.Reservation) error {
	if _, ok := r.s.reservations[res.ID()]; !ok {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	r.s.addReservation(res)
	return nil
}

func (r fakeReservationRepo) DeleteExpiredOpen(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, res := range r.s.reservations {
		if res.HasExpired(now) {
			delete(r.s.reservations, id)
			n++
		}
	}
	return n, nil
}

type fakeBillingRepo struct{ s *fakeStore }

func (r fakeBillingRepo) Create(ctx context.Context, b *billing.Billing) error {
	r.s.addBilling(b)
	return nil
}

func (r fakeBillingRepo) Save(ctx context.Context, b *billing.Billing) error {
	if _, ok := r.s.billings[b.ID()]; !ok {
		return infra.WrapRepoErr("billing not found", nil, infra.KindNotFound)
	}
	r.s.addBilling(b)
	return nil
}

type fakeTransactionRepo struct{ s *fakeStore }

func (r fakeTransactionRepo) Create(ctx context.Context, tr *shared.TransactionRecord) error {
	r.s.addTransaction(tr)
	return nil
}

func (r fakeTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status billing.PaymentStatus) error {
	tr, ok := r.s.transactions[id]
	if !ok {
		return infra.WrapRepoErr("transaction not found", nil, infra.KindNotFound)
	}
	tr.PaymentStatus = status
	return nil
}

func (r fakeTransactionRepo) AttachPaymentRef(ctx context.Context, id uuid.UUID, paymentRef string) error {
	tr, ok := r.s.transactions[id]
	if !ok {
		return infra.WrapRepoErr("transaction not found", nil, infra.KindNotFound)
	}
	tr.PaymentRef = &paymentRef
	return nil
}

func (r fakeTransactionRepo) EnrichMetadata(ctx context.Context, id uuid.UUID, receiptURL, cardSummary *string) error {
	tr, ok := r.s.transactions[id]
	if !ok {
		return infra.WrapRepoErr("transaction not found", nil, infra.KindNotFound)
	}
	if receiptURL != nil {
		tr.ReceiptURL = receiptURL
	}
	if cardSummary != nil {
		tr.CardSummary = cardSummary
	}
	return nil
}

type fakeEventLogRepo struct{ s *fakeStore }

func (r fakeEventLogRepo) Claim(ctx context.Context, eventID, processedBy string, now time.Time) (*shared.EventClaim, error) {
	if existing, ok := r.s.events[eventID]; ok {
		existing.ProcessAttempts++
		c := *existing
		return &c, nil
	}
	claim := &shared.EventClaim{
		EventID:         eventID,
		Status:          shared.EventProcessing,
		ProcessAttempts: 1,
		ProcessedBy:     processedBy,
	}
	r.s.events[eventID] = claim
	c := *claim
	return &c, nil
}

func (r fakeEventLogRepo) MarkComplete(ctx context.Context, eventID string) error {
	claim, ok := r.s.events[eventID]
	if !ok {
		return infra.WrapRepoErr("event not found", nil, infra.KindNotFound)
	}
	claim.Status = shared.EventComplete
	return nil
}

func (r fakeEventLogRepo) MarkFailed(ctx context.Context, eventID, reason string) error {
	claim, ok := r.s.events[eventID]
	if !ok {
		return infra.WrapRepoErr("event not found", nil, infra.KindNotFound)
	}
	claim.Status = shared.EventFailed
	r.s.eventFailures[eventID] = reason
	return nil
}

func (r fakeEventLogRepo) PruneCompleted(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for id, claim := range r.s.events {
		if claim.Status == shared.EventComplete {
			delete(r.s.events, id)
			n++
		}
	}
	return n, nil
}

type fakeJobRepo struct{ s *fakeStore }

func (r fakeJobRepo) Enqueue(ctx context.Context, job *shared.JobRecord) error {
	c := *job
	r.s.jobs = append(r.s.jobs, &c)
	return nil
}

func (r fakeJobRepo) CancelPending(ctx context.Context, name shared.JobName, reservationID uuid.UUID) (int64, error) {
	var kept []*shared.JobRecord
	var n int64
	for _, job := range r.s.jobs {
		if job.Name == name && job.Status == shared.JobQueued && payloadReservationID(job.Payload) == reservationID {
			n++
			continue
		}
		kept = append(kept, job)
	}
	r.s.jobs = kept
	return n, nil
}

func payloadReservationID(raw json.RawMessage) uuid.UUID {
	var p struct {
		ReservationID uuid.UUID `json:"reservation_id"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return uuid.Nil
	}
	return p.ReservationID
}

type fakeReads struct{ s *fakeStore }

func (r fakeReads) PropertyByID(ctx context.Context, id uuid.UUID) (*shared.PropertySnapshot, error) {
	p, ok := r.s.properties[id]
	if !ok {
		return nil, infra.WrapRepoErr("property not found", nil, infra.KindNotFound)
	}
	c := *p
	return &c, nil
}

func (r fakeReads) ReservationByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	c := *res
	return &c, nil
}

func (r fakeReads) ReservationByCheckoutRef(ctx context.Context, ref string) (*reservation.Reservation, error) {
	for _, res := range r.s.reservations {
		if res.CheckoutRef() != nil && *res.CheckoutRef() == ref {
			c := *res
			return &c, nil
		}
	}
	return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
}

func (r fakeReads) BillingByReservationID(ctx context.Context, reservationID uuid.UUID) (*billing.Billing, error) {
	for _, b := range r.s.billings {
		if b.ReservationID() == reservationID {
			c := *b
			return &c, nil
		}
	}
	return nil, infra.WrapRepoErr("billing not found", nil, infra.KindNotFound)
}

func (r fakeReads) TransactionsByBillingID(ctx context.Context, billingID uuid.UUID) ([]*shared.TransactionRecord, error) {
	var out []*shared.TransactionRecord
	for _, tr := range r.s.transactions {
		if tr.BillingID == billingID {
			c := *tr
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r fakeReads) TransactionByPaymentRef(ctx context.Context, paymentRef string) (*shared.TransactionRecord, error) {
	for _, tr := range r.s.transactions {
		if tr.PaymentRef != nil && *tr.PaymentRef == paymentRef {
			c := *tr
			return &c, nil
		}
	}
	return nil, infra.WrapRepoErr("transaction not found", nil, infra.KindNotFound)
}

func (r fakeReads) TransactionByRefundRef(ctx context.Context, refundRef string) (*shared.TransactionRecord, error) {
	for _, tr := range r.s.transactions {
		if tr.RefundRef != nil && *tr.RefundRef == refundRef {
			c := *tr
			return &c, nil
		}
	}
	return nil, infra.WrapRepoErr("transaction not found", nil, infra.KindNotFound)
}
