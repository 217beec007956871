// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Not-Another-Coach/nac-platform/services/engagement"
	"github.com/Not-Another-Coach/nac-platform/services/media"
	"github.com/Not-Another-Coach/nac-platform/services/messaging"
	"github.com/Not-Another-Coach/nac-platform/services/payments"
	"github.com/Not-Another-Coach/nac-platform/services/platform/handlers"
	"github.com/Not-Another-Coach/nac-platform/services/platform/middleware"
	"github.com/Not-Another-Coach/nac-platform/services/profiles"
	"github.com/Not-Another-Coach/nac-platform/services/scheduling"
)

// Deps carries the service handles the route tree is wired onto.
type Deps struct {
	Sessions   middleware.SessionProvider
	Engagement *engagement.Service
	Resolver   *engagement.Resolver
	Profiles   *profiles.Store
	Messages   *messaging.Service
	Hub        *messaging.Hub
	Calls      *scheduling.Service
	Payments   *payments.Service
	Processor  payments.Processor
	Media      media.MediaStore
}

func SetupRoutes(router *gin.Engine, d Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.RequestMetrics())
	v1.Use(middleware.SessionMiddleware(d.Sessions))
	v1.Use(middleware.RateLimit(20, 40))
	{
		// Trainer directory: open to guests, disclosure applied per viewer.
		trainers := v1.Group("/trainers")
		{
			trainers.GET("", handlers.ListTrainers(d.Profiles, d.Engagement, d.Resolver, d.Media))
			trainers.GET("/:trainerId", handlers.GetTrainer(d.Profiles, d.Engagement, d.Resolver, d.Media))
			trainers.PUT("", middleware.RequireClient(), handlers.UpsertTrainer(d.Profiles))
			trainers.POST("/:trainerId/waitlist", middleware.RequireClient(), handlers.JoinWaitlist(d.Profiles))
			trainers.DELETE("/:trainerId/waitlist", middleware.RequireClient(), handlers.LeaveWaitlist(d.Profiles))
		}

		// Engagement stages: reads work for guests (always browsing),
		// writes need a signed-in client.
		eng := v1.Group("/engagement")
		{
			eng.GET("/:trainerId", handlers.GetStage(d.Engagement))
			eng.PUT("/:trainerId", middleware.RequireClient(), handlers.UpdateStage(d.Engagement))
			eng.DELETE("/:trainerId", middleware.RequireClient(), handlers.RemoveTrainer(d.Engagement))
		}
		v1.GET("/journey", handlers.GetJourney(d.Engagement, d.Profiles))
		v1.GET("/journey/:bucket", handlers.GetJourneyBucket(d.Engagement, d.Profiles))

		// Messaging
		conversations := v1.Group("/conversations", middleware.RequireClient())
		{
			conversations.GET("", handlers.ListConversations(d.Messages))
			conversations.GET("/:trainerId/messages", handlers.GetMessages(d.Messages))
			conversations.POST("/:trainerId/messages", handlers.SendMessage(d.Messages))
			conversations.POST("/:trainerId/read", handlers.MarkRead(d.Messages))
		}
		v1.GET("/conversations/ws", handlers.HandleMessagesWebSocket(d.Hub))

		// Discovery calls
		calls := v1.Group("/calls", middleware.RequireClient())
		{
			calls.POST("", handlers.BookCall(d.Calls))
			calls.GET("", handlers.ListCalls(d.Calls))
			calls.POST("/:callId/confirm", handlers.ConfirmCall(d.Calls))
			calls.POST("/:callId/complete", handlers.CompleteCall(d.Calls, d.Engagement))
			calls.POST("/:callId/cancel", handlers.CancelCall(d.Calls))
		}

		// Payments
		pay := v1.Group("/payments")
		{
			pay.POST("/plans", middleware.RequireClient(),
				handlers.CreateInstallmentPlan(d.Payments, d.Engagement, d.Processor))
			pay.GET("/plans/:planId", middleware.RequireClient(),
				handlers.GetInstallmentPlan(d.Payments, d.Processor))
			// Webhook authenticates by signature, not session.
			pay.POST("/webhook", handlers.PaymentWebhook(d.Payments, d.Engagement, d.Processor))
		}

		// Back office payout review
		admin := v1.Group("/admin", middleware.RequireClient())
		{
			admin.GET("/payouts/:periodId", handlers.GetPayout(d.Payments))
			admin.POST("/payouts/:periodId/approve", handlers.ApprovePayout(d.Payments))
			admin.POST("/payouts/:periodId/hold", handlers.HoldPayout(d.Payments))
		}
	}
}
