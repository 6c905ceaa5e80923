package handler

import (
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/usecase"
)

// EntryHandler handles ledger read requests.
type EntryHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledgerUC *usecase.LedgerUseCase) *EntryHandler {
	return &EntryHandler{ledgerUC: ledgerUC}
}

// List lists ledger entries for the authenticated identity, newest first.
// Clients page by passing the last seen entry ID as the before parameter.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "")
		return
	}

	limit := parseIntQuery(r, "limit", usecase.DefaultListLimit)
	beforeID := r.URL.Query().Get("before")

	entries, err := h.ledgerUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		Identity: identity,
		Limit:    limit,
		BeforeID: beforeID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Verify replays the authenticated identity's entries from zero and reports
// whether the result matches the stored balance.
func (h *EntryHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity", "")
		return
	}

	result, err := h.ledgerUC.VerifyAccount(r.Context(), identity)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to verify account", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.VerificationFromResult(result))
}
