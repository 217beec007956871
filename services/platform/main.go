// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Not-Another-Coach/nac-platform/pkg/validation"
	"github.com/Not-Another-Coach/nac-platform/services/engagement"
	engstore "github.com/Not-Another-Coach/nac-platform/services/engagement/store"
	"github.com/Not-Another-Coach/nac-platform/services/media"
	"github.com/Not-Another-Coach/nac-platform/services/messaging"
	"github.com/Not-Another-Coach/nac-platform/services/payments"
	"github.com/Not-Another-Coach/nac-platform/services/platform/middleware"
	"github.com/Not-Another-Coach/nac-platform/services/platform/observability"
	"github.com/Not-Another-Coach/nac-platform/services/platform/routes"
	"github.com/Not-Another-Coach/nac-platform/services/profiles"
	"github.com/Not-Another-Coach/nac-platform/services/scheduling"
	storagebadger "github.com/Not-Another-Coach/nac-platform/services/storage/badger"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "nac-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("platform-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newMediaStore picks the media backend from the environment: a GCS
// bucket when MEDIA_BUCKET is set, a local directory otherwise.
func newMediaStore(ctx context.Context) (media.MediaStore, error) {
	if bucket := os.Getenv("MEDIA_BUCKET"); bucket != "" {
		return media.NewGCSStore(ctx, bucket, os.Getenv("MEDIA_SA_KEY_PATH"))
	}
	dir := os.Getenv("MEDIA_DIR")
	if dir == "" {
		dir = "./data/media"
	}
	return media.NewDirStore(dir)
}

func main() {
	port := os.Getenv("PLATFORM_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data/badger"
	}
	db, err := storagebadger.OpenWithPath(dataDir)
	if err != nil {
		log.Fatalf("FATAL: could not open the badger store: %v", err)
	}
	defer db.Close()

	resolver, err := engagement.NewResolver()
	if err != nil {
		log.Fatalf("FATAL: could not load the disclosure policy: %v", err)
	}

	mediaStore, err := newMediaStore(context.Background())
	if err != nil {
		slog.Warn("media store unavailable, gallery links disabled", "error", err)
		mediaStore = nil
	}

	observability.InitMetrics()

	hub := messaging.NewHub()
	engagementSvc := engagement.NewService(engstore.NewBadgerStore(db), nil, logger)
	callsSvc := scheduling.NewService(db, nil)

	// Background sweep: expire stale call requests and send reminders.
	sweeper := scheduling.NewScheduler(callsSvc, scheduling.DefaultSweepConfig(),
		scheduling.LogEmailer{Logger: logger}, 15*time.Minute, logger)
	sweeper.OnResult = func(_ scheduling.SweepResult, err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		observability.RecordSweepRun(outcome)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Register the engagementstage binding rule used by request structs.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.RegisterStringRule(v, "engagementstage", func(s string) bool {
			_, err := engagement.NormalizeStage(s)
			return err == nil
		}); err != nil {
			log.Fatalf("FATAL: could not register the stage validator: %v", err)
		}
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("platform-service"))

	routes.SetupRoutes(router, routes.Deps{
		Sessions:   middleware.StaticProvider{},
		Engagement: engagementSvc,
		Resolver:   resolver,
		Profiles:   profiles.NewStore(db),
		Messages:   messaging.NewService(db, hub, nil),
		Hub:        hub,
		Calls:      callsSvc,
		Payments:   payments.NewService(db, nil),
		Processor:  payments.FakeProcessor{},
		Media:      mediaStore,
	})

	log.Println("Starting the platform server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
