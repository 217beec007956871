// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package payments tracks installment plans and payout-period approval.
//
// The payment processor itself (checkout, subscriptions, webhooks) is an
// external collaborator consumed through the Processor interface; only
// the bookkeeping lives here. Completing a plan is the caller's cue to
// advance the engagement to active_client.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a plan or payout period does not exist.
var ErrNotFound = errors.New("payment record not found")

// Installment is one scheduled payment inside a plan.
type Installment struct {
	AmountCents int64      `json:"amount_cents"`
	DueAt       time.Time  `json:"due_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// InstallmentPlan splits a coaching package price across scheduled
// payments for one client/trainer pair.
type InstallmentPlan struct {
	ID           string        `json:"id"`
	ClientID     string        `json:"client_id"`
	TrainerID    string        `json:"trainer_id"`
	TotalCents   int64         `json:"total_cents"`
	Installments []Installment `json:"installments"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Completed reports whether every installment has been paid.
func (p *InstallmentPlan) Completed() bool {
	for _, ins := range p.Installments {
		if ins.PaidAt == nil {
			return false
		}
	}
	return len(p.Installments) > 0
}

// PayoutStatus is the approval state of a trainer payout period.
type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "pending"
	PayoutApproved PayoutStatus = "approved"
	PayoutHeld     PayoutStatus = "held"
)

// PayoutPeriod is one trainer's earnings over a period, awaiting back
// office approval.
type PayoutPeriod struct {
	ID          string       `json:"id"`
	TrainerID   string       `json:"trainer_id"`
	PeriodStart time.Time    `json:"period_start"`
	PeriodEnd   time.Time    `json:"period_end"`
	AmountCents int64        `json:"amount_cents"`
	Status      PayoutStatus `json:"status"`
	ReviewedBy  string       `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	HoldReason  string       `json:"hold_reason,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Processor is the external payment processor's contract. Checkout and
// webhook verification happen on their side; this repository only ships
// FakeProcessor for development and tests.
type Processor interface {
	CreateCheckout(ctx context.Context, plan *InstallmentPlan, installmentIdx int) (checkoutURL string, err error)
	VerifyWebhookEvent(payload []byte, signature string) (planID string, installmentIdx int, err error)
}

// Clock abstracts time for payment bookkeeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service persists plans and payout periods in the shared BadgerDB
// instance.
type Service struct {
	db    *badgerdb.DB
	clock Clock
}

func NewService(db *badgerdb.DB, clock Clock) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{db: db, clock: clock}
}

const (
	planPrefix   = "payplan/"
	payoutPrefix = "payout/"
)

// CreatePlan splits totalCents across count equal monthly installments
// starting at firstDue. Remainder cents land on the first installment.
func (s *Service) CreatePlan(ctx context.Context, clientID, trainerID string, totalCents int64, count int, firstDue time.Time) (*InstallmentPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if clientID == "" || trainerID == "" {
		return nil, errors.New("plan requires client and trainer ids")
	}
	if totalCents <= 0 || count <= 0 {
		return nil, errors.New("plan requires a positive total and installment count")
	}

	now := s.clock.Now()
	each := totalCents / int64(count)
	remainder := totalCents - each*int64(count)
	plan := &InstallmentPlan{
		ID:         uuid.New().String(),
		ClientID:   clientID,
		TrainerID:  trainerID,
		TotalCents: totalCents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i := 0; i < count; i++ {
		amount := each
		if i == 0 {
			amount += remainder
		}
		plan.Installments = append(plan.Installments, Installment{
			AmountCents: amount,
			DueAt:       firstDue.AddDate(0, i, 0).UTC(),
		})
	}
	if err := s.putJSON(planPrefix+plan.ID, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// GetPlan returns a plan by id, or ErrNotFound.
func (s *Service) GetPlan(ctx context.Context, id string) (*InstallmentPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plan := &InstallmentPlan{}
	if err := s.getJSON(planPrefix+id, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// RecordPayment marks installment idx paid. Recording the same
// installment twice keeps the first paid timestamp; the webhook layer
// retries, so this must be idempotent. Returns the plan and whether it
// is now fully paid.
func (s *Service) RecordPayment(ctx context.Context, planID string, idx int) (*InstallmentPlan, bool, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, false, err
	}
	if idx < 0 || idx >= len(plan.Installments) {
		return nil, false, fmt.Errorf("plan %s has no installment %d", planID, idx)
	}
	if plan.Installments[idx].PaidAt == nil {
		now := s.clock.Now()
		plan.Installments[idx].PaidAt = &now
		plan.UpdatedAt = now
		if err := s.putJSON(planPrefix+plan.ID, plan); err != nil {
			return nil, false, err
		}
	}
	return plan, plan.Completed(), nil
}

// OpenPayoutPeriod creates a pending payout period for a trainer.
func (s *Service) OpenPayoutPeriod(ctx context.Context, trainerID string, start, end time.Time, amountCents int64) (*PayoutPeriod, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if trainerID == "" {
		return nil, errors.New("payout period requires a trainer id")
	}
	if !end.After(start) {
		return nil, errors.New("payout period end must follow start")
	}
	if amountCents < 0 {
		return nil, errors.New("payout amount cannot be negative")
	}
	p := &PayoutPeriod{
		ID:          uuid.New().String(),
		TrainerID:   trainerID,
		PeriodStart: start.UTC(),
		PeriodEnd:   end.UTC(),
		AmountCents: amountCents,
		Status:      PayoutPending,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.putJSON(payoutPrefix+p.ID, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPayoutPeriod returns a payout period by id, or ErrNotFound.
func (s *Service) GetPayoutPeriod(ctx context.Context, id string) (*PayoutPeriod, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := &PayoutPeriod{}
	if err := s.getJSON(payoutPrefix+id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ApprovePayout approves a pending period. A period cannot be approved
// before it has ended, and only pending periods can be approved.
func (s *Service) ApprovePayout(ctx context.Context, id, reviewerID string) (*PayoutPeriod, error) {
	p, err := s.GetPayoutPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != PayoutPending {
		return nil, fmt.Errorf("payout period %s is %s, not pending", id, p.Status)
	}
	now := s.clock.Now()
	if now.Before(p.PeriodEnd) {
		return nil, fmt.Errorf("payout period %s has not ended yet", id)
	}
	p.Status = PayoutApproved
	p.ReviewedBy = reviewerID
	p.ReviewedAt = &now
	if err := s.putJSON(payoutPrefix+p.ID, p); err != nil {
		return nil, err
	}
	return p, nil
}

// HoldPayout parks a pending period with a reason for manual follow-up.
func (s *Service) HoldPayout(ctx context.Context, id, reviewerID, reason string) (*PayoutPeriod, error) {
	p, err := s.GetPayoutPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != PayoutPending {
		return nil, fmt.Errorf("payout period %s is %s, not pending", id, p.Status)
	}
	now := s.clock.Now()
	p.Status = PayoutHeld
	p.ReviewedBy = reviewerID
	p.ReviewedAt = &now
	p.HoldReason = reason
	if err := s.putJSON(payoutPrefix+p.ID, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) putJSON(key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payment record: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

func (s *Service) getJSON(key string, v any) error {
	return s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}
