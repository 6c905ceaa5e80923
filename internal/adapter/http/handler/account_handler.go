package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC      *usecase.AccountUseCase
	provisioningUC *usecase.ProvisioningUseCase
	metrics        *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler. m may be nil.
func NewAccountHandler(accountUC *usecase.AccountUseCase, provisioningUC *usecase.ProvisioningUseCase, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{
		accountUC:      accountUC,
		provisioningUC: provisioningUC,
		metrics:        m,
	}
}

// Provision creates an account for the authenticated identity.
func (h *AccountHandler) Provision(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "")
		return
	}

	var req dto.ProvisionAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.provisioningUC.Provision(r.Context(), req.ToUseCaseInput(identity))
	if err != nil {
		status := mapDomainError(err)
		// A malformed secret at provisioning is a validation problem, not an
		// authentication failure.
		if errors.Is(err, domain.ErrInvalidSecret) {
			status = http.StatusBadRequest
		}

		writeError(w, status, "failed to provision account", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.AccountsProvisioned.Inc()
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Ensure provisions an account for the authenticated identity if none exists
// yet, otherwise returns the existing account untouched. Gateways use it to
// lazily materialize accounts on first login.
func (h *AccountHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "")
		return
	}

	var req dto.EnsureAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.provisioningUC.EnsureAccount(r.Context(), identity, req.DisplayName, req.Secret)
	if err != nil {
		status := mapDomainError(err)
		if errors.Is(err, domain.ErrInvalidSecret) {
			status = http.StatusBadRequest
		}

		writeError(w, status, "failed to ensure account", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List pages through all accounts, for operator tooling behind the gateway.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", usecase.DefaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accountUC.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// Get retrieves the authenticated identity's own account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), identity)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get account", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Lookup resolves a destination account number to its display name, for
// confirmation before a transfer. Only the reduced counterparty view is
// returned.
func (h *AccountHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")
	if accountNumber == "" {
		writeError(w, http.StatusBadRequest, "missing account number", "")
		return
	}

	account, err := h.accountUC.GetByAccountNumber(r.Context(), accountNumber)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to resolve account number", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.CounterpartyFromDomain(account))
}

// RotateSecret replaces the authenticated identity's transaction secret.
func (h *AccountHandler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "")
		return
	}

	var req dto.RotateSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.accountUC.RotateSecret(r.Context(), identity, req.NewSecret); err != nil {
		status := mapDomainError(err)
		if errors.Is(err, domain.ErrInvalidSecret) {
			status = http.StatusBadRequest
		}

		writeError(w, status, "failed to rotate secret", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.SecretRotations.Inc()
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "rotated"})
}
