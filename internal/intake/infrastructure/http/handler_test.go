package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/intake/application"
)

type stubPublisher struct {
	err error
	n   int
}

func (s *stubPublisher) Publish(_ context.Context, _ application.OutboundEvent) error {
	s.n++
	return s.err
}

func TestSubmitOrder(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	t.Run("valid submission acknowledged", func(t *testing.T) {
		bus := &stubPublisher{}
		h := NewHandler(log, application.NewService(log, bus))

		req := httptest.NewRequest(http.MethodPost, "/orders",
			strings.NewReader(`{"detailType":"OrderPlaced","orderId":"O1","items":[{"productId":"P1","quantity":2}]}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"order_id":"O1"`)
		assert.Equal(t, 1, bus.n)
	})

	t.Run("malformed payload rejected", func(t *testing.T) {
		bus := &stubPublisher{}
		h := NewHandler(log, application.NewService(log, bus))

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`not json`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, bus.n)
	})

	t.Run("publish failure is a server error", func(t *testing.T) {
		bus := &stubPublisher{err: errors.New("broker down")}
		h := NewHandler(log, application.NewService(log, bus))

		req := httptest.NewRequest(http.MethodPost, "/orders",
			strings.NewReader(`{"detailType":"OrderShipped","orderId":"O1"}`))
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Failed to process order")
	})
}
