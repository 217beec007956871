// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// CreatePlanRequest splits a coaching package price into equal monthly
// installments.
type CreatePlanRequest struct {
	TrainerID        string    `json:"trainer_id" binding:"required"`
	TotalCents       int64     `json:"total_cents" binding:"required,gt=0"`
	InstallmentCount int       `json:"installment_count" binding:"required,gte=1,lte=24"`
	FirstDueAt       time.Time `json:"first_due_at" binding:"required"`
}

// InstallmentResponse is one scheduled payment.
type InstallmentResponse struct {
	AmountCents int64      `json:"amount_cents"`
	DueAt       time.Time  `json:"due_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// PlanResponse is an installment plan on the wire, with a checkout URL
// for the next unpaid installment when one exists.
type PlanResponse struct {
	ID           string                `json:"id"`
	ClientID     string                `json:"client_id"`
	TrainerID    string                `json:"trainer_id"`
	TotalCents   int64                 `json:"total_cents"`
	Installments []InstallmentResponse `json:"installments"`
	Completed    bool                  `json:"completed"`
	CheckoutURL  string                `json:"checkout_url,omitempty"`
}

// HoldPayoutRequest parks a payout period pending review.
type HoldPayoutRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PayoutResponse is one trainer payout period on the wire.
type PayoutResponse struct {
	ID          string     `json:"id"`
	TrainerID   string     `json:"trainer_id"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	ReviewedBy  string     `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	HoldReason  string     `json:"hold_reason,omitempty"`
}
