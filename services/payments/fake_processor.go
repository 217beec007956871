// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package payments

import (
	"context"
	"encoding/json"
	"fmt"
)

// FakeProcessor is the development stand-in for the external payment
// processor. Checkout URLs point at nothing and webhook signatures are
// a constant; never deploy this against real money.
type FakeProcessor struct{}

const fakeSignature = "fake-signature"

func (FakeProcessor) CreateCheckout(_ context.Context, plan *InstallmentPlan, installmentIdx int) (string, error) {
	if installmentIdx < 0 || installmentIdx >= len(plan.Installments) {
		return "", fmt.Errorf("plan %s has no installment %d", plan.ID, installmentIdx)
	}
	return fmt.Sprintf("https://checkout.invalid/%s/%d", plan.ID, installmentIdx), nil
}

func (FakeProcessor) VerifyWebhookEvent(payload []byte, signature string) (string, int, error) {
	if signature != fakeSignature {
		return "", 0, fmt.Errorf("invalid webhook signature")
	}
	var event struct {
		PlanID         string `json:"plan_id"`
		InstallmentIdx int    `json:"installment_idx"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return "", 0, fmt.Errorf("decode webhook payload: %w", err)
	}
	return event.PlanID, event.InstallmentIdx, nil
}
