// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// MaxMessageBodyBytes caps a single chat message.
const MaxMessageBodyBytes = 8 * 1024

// SendMessageRequest appends one message to a conversation.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required,max=8192"`
}

// MessageResponse is one chat message on the wire.
type MessageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	SentAt         time.Time  `json:"sent_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// ConversationSummary is one thread in the client's inbox.
type ConversationSummary struct {
	ID            string    `json:"id"`
	TrainerID     string    `json:"trainer_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}
