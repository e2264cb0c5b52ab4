package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/codec"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/pkg/middleware"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/ports"
)

const (
	DefaultMaxBodyBytes = 1 << 20

	malformedBodyMessage = "Malformed request body"
	bodyTooLargeMessage  = "Request body too large"
	internalErrorMessage = "Internal server error"
)

type ExpenseUseCase interface {
	RecordExpense(ctx context.Context, expense domain.ExpenseInput) domain.RecordOutcome
	ExpensesOn(ctx context.Context, date string) ([]domain.Expense, error)
}

// Handler serves the expense routes. Request and response formats are
// negotiated independently for every request.
type Handler struct {
	expenses     ExpenseUseCase
	codecs       *codec.Registry
	health       ports.HealthPort
	metrics      *middleware.Metrics
	maxBodyBytes int64
}

type Option func(*Handler)

func WithHealth(h ports.HealthPort) Option {
	return func(handler *Handler) { handler.health = h }
}

func WithMetrics(m *middleware.Metrics) Option {
	return func(handler *Handler) { handler.metrics = m }
}

func WithMaxBodyBytes(n int64) Option {
	return func(handler *Handler) {
		if n > 0 {
			handler.maxBodyBytes = n
		}
	}
}

func NewHandler(expenses ExpenseUseCase, codecs *codec.Registry, opts ...Option) *Handler {
	h := &Handler{
		expenses:     expenses,
		codecs:       codecs,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /expenses", h.metrics.Instrument("/expenses", http.HandlerFunc(h.handleRecord)))
	mux.Handle("GET /expenses/{date}", h.metrics.Instrument("/expenses/{date}", http.HandlerFunc(h.handleExpensesOn)))
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleRecord answers in the format the body was sent in; Accept is not
// consulted for this route.
func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	c, format := h.codecs.ForContentType(r.Header.Get("Content-Type"))
	h.metrics.ObserveNegotiation("request", format)
	if format == domain.FormatUnsupported {
		h.metrics.ObserveOutcome("unsupported")
		h.writeUnrecognised(w, r, http.StatusUnprocessableEntity)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.metrics.ObserveOutcome("malformed")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respond(w, r, c, http.StatusRequestEntityTooLarge, errorBody(bodyTooLargeMessage))
			return
		}
		h.respond(w, r, c, http.StatusBadRequest, errorBody(malformedBodyMessage))
		return
	}

	expense, err := c.Decode(body)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("rejecting malformed body")
		h.metrics.ObserveOutcome("malformed")
		h.respond(w, r, c, http.StatusBadRequest, errorBody(malformedBodyMessage))
		return
	}

	outcome := h.expenses.RecordExpense(r.Context(), expense)
	if !outcome.Success() {
		h.metrics.ObserveOutcome("rejected")
		h.respond(w, r, c, http.StatusUnprocessableEntity, outcome)
		return
	}
	h.metrics.ObserveOutcome("accepted")
	h.respond(w, r, c, http.StatusOK, outcome)
}

// handleExpensesOn always consults the ledger. An unsupported Accept header
// still answers 200, with the fixed JSON error body.
func (h *Handler) handleExpensesOn(w http.ResponseWriter, r *http.Request) {
	c, format := h.codecs.ForAccept(r.Header.Get("Accept"))
	h.metrics.ObserveNegotiation("response", format)

	expenses, err := h.expenses.ExpensesOn(r.Context(), r.PathValue("date"))
	if err != nil {
		h.writeInternal(w, r, err)
		return
	}

	if format == domain.FormatUnsupported {
		h.writeUnrecognised(w, r, http.StatusOK)
		return
	}
	h.respond(w, r, c, http.StatusOK, expenses)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		h.respond(w, r, codec.JSON(), http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	healthy, msg := h.health.Check(r.Context(), "ledger")
	if !healthy {
		hlog.FromRequest(r).Warn().Str("reason", msg).Msg("health check failed")
		h.respond(w, r, codec.JSON(), http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": msg})
		return
	}
	h.respond(w, r, codec.JSON(), http.StatusOK, map[string]any{"status": "ok"})
}

func errorBody(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// writeUnrecognised always answers in JSON; there is no negotiated format
// to answer in.
func (h *Handler) writeUnrecognised(w http.ResponseWriter, r *http.Request, status int) {
	h.respond(w, r, codec.JSON(), status, errorBody(codec.UnrecognisedFormatMessage))
}

// writeInternal logs err and answers 500 without exposing it.
func (h *Handler) writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).Msg("internal server error")
	body, _ := codec.JSON().Encode(errorBody(internalErrorMessage))
	w.Header().Set("Content-Type", codec.JSON().ContentType())
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, c codec.Codec, status int, v any) {
	body, err := c.Encode(v)
	if err != nil {
		h.writeInternal(w, r, fmt.Errorf("encode %s response: %w", c.Format(), err))
		return
	}
	w.Header().Set("Content-Type", c.ContentType())
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to write response body")
	}
}
