// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command server starts the StudyRobo assistant HTTP server.
//
// # Environment Variables
//
//   - STUDYROBO_PORT: HTTP server port (default: 8080)
//   - STUDYROBO_DATA_DIR: Badger data directory (default: /data/studyrobo)
//   - LLM_BACKEND_TYPE: Model provider - openai, mistral (default: openai)
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL (optional; study-material
//     search degrades gracefully without it)
//   - AUTH_BACKEND_TYPE: Identity provider - google, static (default: static)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: studyrobo-otel-collector:4317)
//
// # Usage
//
//	go build -o server ./cmd/server
//	./server
package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/StudyRobo/StudyRoboServer/pkg/identity"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/engine"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/middleware"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/observability"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/routes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/store"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/tools"
	"github.com/StudyRobo/StudyRoboServer/services/llm"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "studyrobo-otel-collector:4317"
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
		resource.WithAttributes(semconv.ServiceNameKey.String("studyrobo-assistant")))
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

// connectWeaviate builds a Weaviate client from WEAVIATE_SERVICE_URL, or
// nil when the URL is unset or unusable.
func connectWeaviate() *weaviate.Client {
	weaviateURL := os.Getenv("WEAVIATE_SERVICE_URL")
	// Sanitize: Trim quotes and whitespace in case the container runtime
	// passes them literally
	weaviateURL = strings.Trim(weaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Study material search disabled.")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Study material search disabled.",
			"url", weaviateURL, "error", err)
		return nil
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}
	if err := tools.EnsureStudyMaterialSchema(context.Background(), client); err != nil {
		slog.Error("Failed to ensure Weaviate schema", "error", err)
	}
	return client
}

func main() {
	port := os.Getenv("STUDYROBO_PORT")
	if port == "" {
		port = "8080"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	dataDir := os.Getenv("STUDYROBO_DATA_DIR")
	if dataDir == "" {
		dataDir = "/data/studyrobo"
	}
	db, err := store.Open(store.DefaultConfig(dataDir))
	if err != nil {
		log.Fatalf("Failed to open conversation database: %v", err)
	}
	defer db.Close()

	conversations := store.NewConversationStore(db)
	attendance := store.NewAttendanceStore(db)
	tokens := store.NewTokenStore(db)

	log.Println("Configuring the LLM Client")
	var llmClient llm.LLMClient
	backend := os.Getenv("LLM_BACKEND_TYPE")
	switch backend {
	case "mistral":
		llmClient, err = llm.NewMistralClient()
		slog.Info("Using Mistral LLM backend")
	case "openai":
		llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to openai")
		backend = "openai"
		llmClient, err = llm.NewOpenAIClient()
	}
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	registryCaps := []tools.Capability{
		tools.NewCareerInsights(),
		tools.NewAttendanceMarker(attendance),
		tools.NewAttendanceReader(attendance),
		tools.NewUnreadEmailReader(),
		tools.NewEmailDrafter(),
		tools.NewUpcomingEventsReader(),
		tools.NewCalendarEventCreator(),
	}
	if weaviateClient := connectWeaviate(); weaviateClient != nil {
		registryCaps = append([]tools.Capability{tools.NewStudyMaterialSearch(weaviateClient)}, registryCaps...)
	}
	registry := tools.NewRegistry(registryCaps...)

	var verifier identity.Verifier
	switch os.Getenv("AUTH_BACKEND_TYPE") {
	case "google":
		verifier = identity.NewGoogleVerifier()
		slog.Info("Using Google identity verification")
	default:
		verifier = &identity.StaticVerifier{}
		slog.Warn("AUTH_BACKEND_TYPE not set to google, using static local-user identity")
	}

	chatEngine := engine.NewEngine(llmClient, registry, llm.GenerationParams{}, backend)
	chatService := engine.NewChatService(chatEngine, conversations)

	router := gin.Default()
	router.Use(otelgin.Middleware("studyrobo-assistant"))

	limiter := middleware.NewRateLimiter(5, 10)
	defer limiter.Stop()

	routes.SetupRoutes(router, routes.Deps{
		ChatService:   chatService,
		Conversations: conversations,
		Attendance:    attendance,
		Tokens:        tokens,
		Verifier:      verifier,
		RateLimiter:   limiter,
	})

	log.Println("Starting the assistant server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
