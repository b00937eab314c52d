package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/intake/application"
	intakehttp "github.com/dmehra2102/Order-Lifecycle-System/internal/intake/infrastructure/http"
	intakekafka "github.com/dmehra2102/Order-Lifecycle-System/internal/intake/infrastructure/kafka"
	"github.com/dmehra2102/Order-Lifecycle-System/pkg/logging"
	"github.com/dmehra2102/Order-Lifecycle-System/pkg/shutdown"
	"github.com/dmehra2102/Order-Lifecycle-System/pkg/tracing"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Configuration
	kafkaBrokers := []string{env("KAFKA_ADDR", "localhost:9092")}
	busName := env("EVENT_BUS_NAME", "order.lifecycle")
	jaeger := env("JAEGER_URL", "http://localhost:14268/api/traces")
	httpAddr := env("HTTP_ADDR", ":8080")

	tp, err := tracing.Init("intake-service", jaeger, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	// Bus publisher
	publisher := intakekafka.NewPublisher(log, kafkaBrokers, busName)
	defer publisher.Close()

	svc := application.NewService(log, publisher)
	handler := intakehttp.NewHandler(log, svc)

	// HTTP server
	r := chi.NewRouter()
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", httpAddr, "bus", busName)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("intake-service shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
