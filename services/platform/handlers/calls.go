// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Not-Another-Coach/nac-platform/pkg/validation"
	"github.com/Not-Another-Coach/nac-platform/services/engagement"
	"github.com/Not-Another-Coach/nac-platform/services/platform/datatypes"
	"github.com/Not-Another-Coach/nac-platform/services/platform/middleware"
	"github.com/Not-Another-Coach/nac-platform/services/scheduling"
)

func callResponse(call *scheduling.DiscoveryCall) datatypes.CallResponse {
	return datatypes.CallResponse{
		ID:          call.ID,
		ClientID:    call.ClientID,
		TrainerID:   call.TrainerID,
		ScheduledAt: call.ScheduledAt,
		Status:      string(call.Status),

		ReminderSentAt: call.ReminderSentAt,
		CreatedAt:      call.CreatedAt,
	}
}

// BookCall schedules a discovery call. Past slots are rejected.
func BookCall(calls *scheduling.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.BookCallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateID(req.TrainerID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sess := middleware.GetSession(c)
		call, err := calls.Book(c.Request.Context(), sess.ClientID, req.TrainerID, req.ScheduledAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, callResponse(call))
	}
}

// ListCalls returns the caller's discovery calls.
func ListCalls(calls *scheduling.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.GetSession(c)

		list, err := calls.ListByClient(c.Request.Context(), sess.ClientID)
		if err != nil {
			slog.Error("call listing failed", "clientId", sess.ClientID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "call listing failed"})
			return
		}

		out := make([]datatypes.CallResponse, 0, len(list))
		for _, call := range list {
			out = append(out, callResponse(call))
		}
		c.JSON(http.StatusOK, gin.H{"calls": out, "count": len(out)})
	}
}

// callOwnedBySession loads a call and checks the caller owns it.
func callOwnedBySession(c *gin.Context, calls *scheduling.Service) (*scheduling.DiscoveryCall, bool) {
	callID, err := validation.SanitizeID(c.Param("callId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call id"})
		return nil, false
	}

	call, err := calls.Get(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return nil, false
		}
		slog.Error("call lookup failed", "callId", callID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return nil, false
	}

	if call.ClientID != middleware.GetSession(c).ClientID {
		c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return nil, false
	}
	return call, true
}

// ConfirmCall moves a requested call to confirmed.
func ConfirmCall(calls *scheduling.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		call, ok := callOwnedBySession(c, calls)
		if !ok {
			return
		}

		updated, err := calls.Confirm(c.Request.Context(), call.ID)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, callResponse(updated))
	}
}

// CompleteCall marks a confirmed call as held and advances the
// engagement to discovery_completed. The stage write is best-effort;
// the call transition is the source of truth.
func CompleteCall(calls *scheduling.Service, svc *engagement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		call, ok := callOwnedBySession(c, calls)
		if !ok {
			return
		}

		updated, err := calls.Complete(c.Request.Context(), call.ID)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		sess := middleware.GetSession(c)
		if err := svc.UpdateStage(c.Request.Context(), sess, call.TrainerID,
			engagement.StageDiscoveryCompleted); err != nil {
			slog.Warn("stage advance after call completion failed",
				"trainerId", call.TrainerID, "error", err)
		}

		c.JSON(http.StatusOK, callResponse(updated))
	}
}

// CancelCall cancels a requested or confirmed call.
func CancelCall(calls *scheduling.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		call, ok := callOwnedBySession(c, calls)
		if !ok {
			return
		}

		updated, err := calls.Cancel(c.Request.Context(), call.ID)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, callResponse(updated))
	}
}
