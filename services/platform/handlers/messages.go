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
	"github.com/gorilla/websocket"

	"github.com/Not-Another-Coach/nac-platform/pkg/validation"
	"github.com/Not-Another-Coach/nac-platform/services/messaging"
	"github.com/Not-Another-Coach/nac-platform/services/platform/datatypes"
	"github.com/Not-Another-Coach/nac-platform/services/platform/middleware"
	"github.com/Not-Another-Coach/nac-platform/services/platform/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
}

func messageResponse(m *messaging.Message) datatypes.MessageResponse {
	return datatypes.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		SentAt:         m.SentAt,
		ReadAt:         m.ReadAt,
	}
}

// ListConversations returns the caller's inbox with unread counts.
func ListConversations(msgs *messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.GetSession(c)

		convs, err := msgs.ConversationsForClient(c.Request.Context(), sess.ClientID)
		if err != nil {
			slog.Error("inbox listing failed", "clientId", sess.ClientID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "inbox listing failed"})
			return
		}

		out := make([]datatypes.ConversationSummary, 0, len(convs))
		for _, conv := range convs {
			unread, err := msgs.UnreadCount(c.Request.Context(), conv.ID, sess.ClientID)
			if err != nil {
				slog.Warn("unread count failed", "conversationId", conv.ID, "error", err)
			}
			out = append(out, datatypes.ConversationSummary{
				ID:            conv.ID,
				TrainerID:     conv.TrainerID,
				LastMessageAt: conv.LastMessageAt,
				UnreadCount:   unread,
			})
		}

		c.JSON(http.StatusOK, gin.H{"conversations": out, "count": len(out)})
	}
}

// GetMessages returns the full history of one thread, oldest first.
func GetMessages(msgs *messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		sess := middleware.GetSession(c)
		conv, err := msgs.Conversation(c.Request.Context(), sess.ClientID, trainerID)
		if err != nil {
			if errors.Is(err, messaging.ErrNotFound) {
				c.JSON(http.StatusOK, gin.H{"messages": []datatypes.MessageResponse{}})
				return
			}
			slog.Error("conversation lookup failed", "trainerId", trainerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "conversation lookup failed"})
			return
		}

		history, err := msgs.Messages(c.Request.Context(), conv.ID)
		if err != nil {
			slog.Error("history read failed", "conversationId", conv.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "history read failed"})
			return
		}

		out := make([]datatypes.MessageResponse, 0, len(history))
		for _, m := range history {
			out = append(out, messageResponse(m))
		}
		c.JSON(http.StatusOK, gin.H{"messages": out})
	}
}

// SendMessage appends one message to the thread, creating the
// conversation on first contact.
func SendMessage(msgs *messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		var req datatypes.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sess := middleware.GetSession(c)
		conv, err := msgs.EnsureConversation(c.Request.Context(), sess.ClientID, trainerID)
		if err != nil {
			slog.Error("conversation create failed", "trainerId", trainerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "conversation create failed"})
			return
		}

		m, err := msgs.Append(c.Request.Context(), conv, sess.ClientID, req.Body)
		if err != nil {
			slog.Error("message append failed", "conversationId", conv.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "message append failed"})
			return
		}

		if metrics := observability.DefaultMetrics; metrics != nil {
			metrics.MessagesSentTotal.Inc()
		}
		c.JSON(http.StatusCreated, messageResponse(m))
	}
}

// MarkRead marks every message addressed to the caller in this thread
// as read. Idempotent.
func MarkRead(msgs *messaging.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		sess := middleware.GetSession(c)
		conv, err := msgs.Conversation(c.Request.Context(), sess.ClientID, trainerID)
		if err != nil {
			if errors.Is(err, messaging.ErrNotFound) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "conversation lookup failed"})
			return
		}

		if err := msgs.MarkRead(c.Request.Context(), conv.ID, sess.ClientID); err != nil {
			slog.Error("mark read failed", "conversationId", conv.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "mark read failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// HandleMessagesWebSocket upgrades the connection and registers it for
// live message delivery. The read loop exists only to detect the close;
// sends go through the REST endpoint.
func HandleMessagesWebSocket(hub *messaging.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.GetSession(c)
		if sess.IsGuest() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}

		hub.Register(sess.ClientID, ws)
		if metrics := observability.DefaultMetrics; metrics != nil {
			metrics.ActiveWebsockets.Inc()
		}
		defer func() {
			hub.Unregister(sess.ClientID, ws)
			if metrics := observability.DefaultMetrics; metrics != nil {
				metrics.ActiveWebsockets.Dec()
			}
			_ = ws.Close()
		}()

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Warn("websocket closed unexpectedly", "clientId", sess.ClientID, "error", err)
				}
				return
			}
		}
	}
}
