package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/intake/application"
	"github.com/dmehra2102/Order-Lifecycle-System/internal/lifecycle"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("intake-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.submitOrder)
	r.Get("/healthz", h.health)

	return r
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitOrder")
	defer span.End()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	ack, err := h.service.Accept(ctx, body)
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	case err != nil:
		// Publish failures included: retryable from the client's side.
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to process order"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Order processed successfully!",
		"order_id": ack.OrderID,
		"event_id": ack.EventID,
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
