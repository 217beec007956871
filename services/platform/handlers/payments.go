// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Not-Another-Coach/nac-platform/pkg/validation"
	"github.com/Not-Another-Coach/nac-platform/services/engagement"
	"github.com/Not-Another-Coach/nac-platform/services/payments"
	"github.com/Not-Another-Coach/nac-platform/services/platform/datatypes"
	"github.com/Not-Another-Coach/nac-platform/services/platform/middleware"
)

// maxWebhookBodyBytes caps processor webhook payloads.
const maxWebhookBodyBytes = 64 * 1024

func planResponse(c *gin.Context, plan *payments.InstallmentPlan, proc payments.Processor) datatypes.PlanResponse {
	out := datatypes.PlanResponse{
		ID:         plan.ID,
		ClientID:   plan.ClientID,
		TrainerID:  plan.TrainerID,
		TotalCents: plan.TotalCents,
		Completed:  plan.Completed(),
	}
	for _, ins := range plan.Installments {
		out.Installments = append(out.Installments, datatypes.InstallmentResponse{
			AmountCents: ins.AmountCents,
			DueAt:       ins.DueAt,
			PaidAt:      ins.PaidAt,
		})
	}

	// Attach a checkout link for the next unpaid installment.
	if proc != nil && !out.Completed {
		for i, ins := range plan.Installments {
			if ins.PaidAt == nil {
				url, err := proc.CreateCheckout(c.Request.Context(), plan, i)
				if err != nil {
					slog.Warn("checkout link creation failed", "planId", plan.ID, "error", err)
				} else {
					out.CheckoutURL = url
				}
				break
			}
		}
	}
	return out
}

// CreateInstallmentPlan splits a package price into equal monthly
// installments and moves the engagement to payment_pending.
func CreateInstallmentPlan(pay *payments.Service, svc *engagement.Service,
	proc payments.Processor) gin.HandlerFunc {

	return func(c *gin.Context) {
		var req datatypes.CreatePlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateID(req.TrainerID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sess := middleware.GetSession(c)
		plan, err := pay.CreatePlan(c.Request.Context(), sess.ClientID, req.TrainerID,
			req.TotalCents, req.InstallmentCount, req.FirstDueAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.UpdateStage(c.Request.Context(), sess, req.TrainerID,
			engagement.StagePaymentPending); err != nil {
			slog.Warn("stage advance after plan creation failed",
				"trainerId", req.TrainerID, "error", err)
		}

		c.JSON(http.StatusCreated, planResponse(c, plan, proc))
	}
}

// GetInstallmentPlan returns one plan. Callers only see their own.
func GetInstallmentPlan(pay *payments.Service, proc payments.Processor) gin.HandlerFunc {
	return func(c *gin.Context) {
		planID, err := validation.SanitizeID(c.Param("planId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
			return
		}

		plan, err := pay.GetPlan(c.Request.Context(), planID)
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
				return
			}
			slog.Error("plan lookup failed", "planId", planID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "plan lookup failed"})
			return
		}

		if plan.ClientID != middleware.GetSession(c).ClientID {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}

		c.JSON(http.StatusOK, planResponse(c, plan, proc))
	}
}

// PaymentWebhook ingests processor events. The signature is verified
// before anything is recorded. When the plan's last installment is
// paid, the engagement advances to active_client.
func PaymentWebhook(pay *payments.Service, svc *engagement.Service,
	proc payments.Processor) gin.HandlerFunc {

	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
			return
		}

		planID, idx, err := proc.VerifyWebhookEvent(body, c.GetHeader("X-Webhook-Signature"))
		if err != nil {
			slog.Warn("webhook verification failed", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		plan, completed, err := pay.RecordPayment(c.Request.Context(), planID, idx)
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
				return
			}
			slog.Error("payment recording failed", "planId", planID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment recording failed"})
			return
		}

		// active_client waits for the whole plan, not the first
		// installment. Re-delivered webhooks re-run this branch, which
		// is safe: milestones only stamp once.
		if completed {
			sess := engagement.Session{ClientID: plan.ClientID}
			if err := svc.UpdateStage(c.Request.Context(), sess, plan.TrainerID,
				engagement.StageActiveClient); err != nil {
				slog.Warn("stage advance after plan completion failed",
					"trainerId", plan.TrainerID, "error", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"plan_id":   plan.ID,
			"completed": completed,
		})
	}
}

// =============================================================================
// Back Office Payouts
// =============================================================================

func payoutResponse(p *payments.PayoutPeriod) datatypes.PayoutResponse {
	return datatypes.PayoutResponse{
		ID:          p.ID,
		TrainerID:   p.TrainerID,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		AmountCents: p.AmountCents,
		Status:      string(p.Status),
		ReviewedBy:  p.ReviewedBy,
		ReviewedAt:  p.ReviewedAt,
		HoldReason:  p.HoldReason,
	}
}

// GetPayout returns one payout period for review.
func GetPayout(pay *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		periodID, err := validation.SanitizeID(c.Param("periodId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period id"})
			return
		}

		p, err := pay.GetPayoutPeriod(c.Request.Context(), periodID)
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "payout period not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payout lookup failed"})
			return
		}
		c.JSON(http.StatusOK, payoutResponse(p))
	}
}

// ApprovePayout releases a pending payout after the period has closed.
func ApprovePayout(pay *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		periodID, err := validation.SanitizeID(c.Param("periodId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period id"})
			return
		}

		reviewer := middleware.GetSession(c).ClientID
		p, err := pay.ApprovePayout(c.Request.Context(), periodID, reviewer)
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "payout period not found"})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, payoutResponse(p))
	}
}

// HoldPayout parks a pending payout with a reason.
func HoldPayout(pay *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		periodID, err := validation.SanitizeID(c.Param("periodId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period id"})
			return
		}

		var req datatypes.HoldPayoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		reviewer := middleware.GetSession(c).ClientID
		p, err := pay.HoldPayout(c.Request.Context(), periodID, reviewer, req.Reason)
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "payout period not found"})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, payoutResponse(p))
	}
}
