package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/factorchain/compliance-node/internal/config"
	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/core/services"
	"github.com/factorchain/compliance-node/internal/log"
	"github.com/factorchain/compliance-node/internal/repositories"
	"github.com/factorchain/compliance-node/internal/storage"
)

type statusResponse struct {
	Status   map[string]bool `json:"status"`
	Revision string          `json:"revision,omitempty"`
	Backend  string          `json:"backend"`
}

type errorResponse struct {
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

type documentResponse struct {
	Document domain.Document `json:"document"`
}

type locatorResponse struct {
	Locator string `json:"locator"`
}

type urlResponse struct {
	URL string `json:"url"`
}

type requestIDResponse struct {
	ID int64 `json:"id"`
}

type validityResponse struct {
	Valid bool `json:"valid"`
}

type onChainResponse struct {
	Recorded bool  `json:"recorded"`
	Status   uint8 `json:"status,omitempty"`
}

type requestResponse struct {
	ID               int64      `json:"id"`
	BusinessIdentity string     `json:"business_identity"`
	BusinessHash     string     `json:"business_hash"`
	Jurisdiction     string     `json:"jurisdiction,omitempty"`
	BusinessType     string     `json:"business_type,omitempty"`
	Proofs           []string   `json:"proofs"`
	Status           string     `json:"status"`
	RequestedAt      time.Time  `json:"requested_at"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	ValidUntil       *time.Time `json:"valid_until,omitempty"`
}

type dossierResponse struct {
	Locator string                  `json:"locator"`
	Dossier *domain.BusinessDossier `json:"dossier"`
}

type revisionResponse struct {
	Locator   string    `json:"locator"`
	CreatedAt time.Time `json:"created_at"`
}

func toRequestResponse(request *domain.VerificationRequest) requestResponse {
	return requestResponse{
		ID:               request.ID,
		BusinessIdentity: request.BusinessIdentity,
		BusinessHash:     request.BusinessHash,
		Jurisdiction:     request.Jurisdiction,
		BusinessType:     request.BusinessType,
		Proofs:           request.Proofs,
		Status:           string(request.Status),
		RequestedAt:      request.RequestedAt,
		DecidedAt:        request.DecidedAt,
		RejectionReason:  request.RejectionReason,
		ValidUntil:       request.ValidUntil,
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error(ctx, "writing response", "err", err)
	}
}

func writeErrorMsg(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, errorResponse{Message: msg})
}

// writeError maps the error taxonomy to http status codes. Precondition
// violations are 409 and must be resolved logically by the caller, only
// backend unavailability is worth retrying.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var hint string
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, repositories.ErrNoMapping),
		errors.Is(err, repositories.ErrRequestNotFound):
		status = http.StatusNotFound
		if errors.Is(err, storage.ErrNotFound) && s.cfg.StorageProvider() == config.StorageProviderLocal {
			hint = "content was stored with the local fallback backend and is only visible to the instance that wrote it"
		}
	case errors.Is(err, repositories.ErrAlreadyPending),
		errors.Is(err, repositories.ErrRequestNotPending),
		errors.Is(err, services.ErrRenewalNotAllowed):
		status = http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrDecode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrBackendUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.Error(ctx, "unhandled api error", "err", err)
	}
	writeJSON(ctx, w, status, errorResponse{Message: err.Error(), Hint: hint})
}
