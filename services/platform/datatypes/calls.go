// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// BookCallRequest schedules a discovery call with a trainer.
type BookCallRequest struct {
	TrainerID   string    `json:"trainer_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// CallResponse is one discovery call on the wire.
type CallResponse struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	TrainerID   string    `json:"trainer_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
