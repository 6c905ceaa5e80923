package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// TransferHandler handles transfer-related HTTP requests. When a secret
// attempt limiter is configured, identities that keep presenting an invalid
// secret are throttled before the use case is invoked.
type TransferHandler struct {
	transferUC *usecase.TransferUseCase
	limiter    usecase.SecretAttemptLimiter
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewTransferHandler creates a new TransferHandler. limiter and m may be nil.
func NewTransferHandler(transferUC *usecase.TransferUseCase, limiter usecase.SecretAttemptLimiter, m *metrics.Metrics, logger zerolog.Logger) *TransferHandler {
	return &TransferHandler{
		transferUC: transferUC,
		limiter:    limiter,
		metrics:    m,
		logger:     logger,
	}
}

// Create creates a new transfer.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "")
		return
	}

	if !h.allowed(r, identity) {
		if h.metrics != nil {
			h.metrics.SecretLockouts.Inc()
		}

		writeError(w, http.StatusTooManyRequests, "too many invalid secret attempts", "retry later")

		return
	}

	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()

	result, err := h.transferUC.Transfer(r.Context(), req.ToUseCaseInput(identity))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSecret) {
			h.recordFailure(r, identity)
		}

		if h.metrics != nil {
			h.metrics.TransferErrors.WithLabelValues(errorType(err)).Inc()
		}

		status := mapDomainError(err)
		writeError(w, status, "failed to create transfer", err.Error())

		return
	}

	h.reset(r, identity)

	if h.metrics != nil {
		h.metrics.TransfersCreated.Inc()
		h.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		h.metrics.TransferAmount.Observe(req.Amount.InexactFloat64())
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromResult(result))
}

func (h *TransferHandler) allowed(r *http.Request, identity string) bool {
	if h.limiter == nil {
		return true
	}

	allowed, err := h.limiter.Allowed(r.Context(), identity)
	if err != nil {
		// Fail open: a limiter outage must not block transfers.
		h.logger.Warn().Err(err).Str("identity", identity).Msg("secret attempt limiter check failed")
		return true
	}

	return allowed
}

func (h *TransferHandler) recordFailure(r *http.Request, identity string) {
	if h.limiter == nil {
		return
	}

	if err := h.limiter.RecordFailure(r.Context(), identity); err != nil {
		h.logger.Warn().Err(err).Str("identity", identity).Msg("failed to record invalid secret attempt")
	}
}

func (h *TransferHandler) reset(r *http.Request, identity string) {
	if h.limiter == nil {
		return
	}

	if err := h.limiter.Reset(r.Context(), identity); err != nil {
		h.logger.Warn().Err(err).Str("identity", identity).Msg("failed to reset invalid secret attempts")
	}
}

// errorType labels transfer failures for metrics.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrInvalidSecret):
		return "invalid_secret"
	case errors.Is(err, domain.ErrTransferConflict):
		return "conflict"
	case errors.Is(err, domain.ErrSenderNotFound):
		return "sender_not_found"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "internal"
	}
}
