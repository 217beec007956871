// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// ListTrainersQuery narrows the trainer directory listing. Bound from
// query parameters; zero values mean "no constraint".
type ListTrainersQuery struct {
	Specialization string  `form:"specialization"`
	MaxHourlyRate  float64 `form:"max_rate" binding:"omitempty,gte=0"`
	MinRating      float64 `form:"min_rating" binding:"omitempty,gte=0,lte=5"`
	AcceptingOnly  bool    `form:"accepting"`

	// Override forces a visibility state for preview rendering.
	Override string `form:"override" binding:"omitempty,oneof=hidden blurred visible"`
}

// TrainerCard is a directory entry with identity disclosure already
// applied. Name and media fields reflect the viewer's engagement stage
// with this trainer, never the raw profile.
type TrainerCard struct {
	TrainerID   string `json:"trainer_id"`
	DisplayName string `json:"display_name"`
	NameLevel   string `json:"name_level"`
	Stage       string `json:"stage"`

	Bio             string   `json:"bio,omitempty"`
	Specializations []string `json:"specializations,omitempty"`
	ExperienceYears int      `json:"experience_years"`
	HourlyRate      float64  `json:"hourly_rate"`
	Rating          float64  `json:"rating"`
	TotalReviews    int      `json:"total_reviews"`

	AcceptingClients bool `json:"accepting_clients"`
	WaitlistOpen     bool `json:"waitlist_open"`
	OnWaitlist       bool `json:"on_waitlist,omitempty"`

	GalleryState      string   `json:"gallery_state"`
	GalleryURLs       []string `json:"gallery_urls,omitempty"`
	TestimonialsState string   `json:"testimonials_state"`
}

// ListTrainersResponse wraps a directory page.
type ListTrainersResponse struct {
	Trainers []TrainerCard `json:"trainers"`
	Count    int           `json:"count"`
}

// UpsertTrainerRequest creates or replaces a trainer profile. Used by
// the back office and the seed tooling.
type UpsertTrainerRequest struct {
	ID              string   `json:"id" binding:"required"`
	FirstName       string   `json:"first_name" binding:"required"`
	LastName        string   `json:"last_name"`
	DisplayName     string   `json:"display_name"`
	Bio             string   `json:"bio"`
	Specializations []string `json:"specializations"`
	Certifications  []string `json:"certifications"`
	ExperienceYears int      `json:"experience_years" binding:"gte=0"`
	HourlyRate      float64  `json:"hourly_rate" binding:"gte=0"`
	Rating          float64  `json:"rating" binding:"gte=0,lte=5"`
	TotalReviews    int      `json:"total_reviews" binding:"gte=0"`

	AcceptingClients bool `json:"accepting_clients"`
	WaitlistOpen     bool `json:"waitlist_open"`

	GalleryKeys     []string `json:"gallery_keys"`
	CertificateKeys []string `json:"certificate_keys"`
}
