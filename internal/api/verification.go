package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/factorchain/compliance-node/internal/common"
	"github.com/factorchain/compliance-node/internal/locator"
	"github.com/factorchain/compliance-node/internal/repositories"
)

type submitRequestBody struct {
	BusinessIdentity string   `json:"business_identity"`
	BusinessHash     string   `json:"business_hash"`
	Proofs           []string `json:"proofs"`
	Jurisdiction     string   `json:"jurisdiction"`
	BusinessType     string   `json:"business_type"`
}

func (s *Server) submitRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body submitRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsWalletAddress(body.BusinessIdentity) {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "business_identity must be a wallet address")
		return
	}
	if !validProofs(body.Proofs) {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "proofs must be well formed locators")
		return
	}
	hash, ok := s.resolveBusinessHash(ctx, w, body.BusinessIdentity, body.BusinessHash)
	if !ok {
		return
	}
	id, err := s.verification.Submit(ctx, body.BusinessIdentity, hash, body.Proofs, body.Jurisdiction, body.BusinessType)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, requestIDResponse{ID: id})
}

type renewRequestBody struct {
	BusinessIdentity string   `json:"business_identity"`
	BusinessHash     string   `json:"business_hash"`
	Proofs           []string `json:"proofs"`
}

func (s *Server) renewRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body renewRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsWalletAddress(body.BusinessIdentity) {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "business_identity must be a wallet address")
		return
	}
	if !validProofs(body.Proofs) {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "proofs must be well formed locators")
		return
	}
	hash, ok := s.resolveBusinessHash(ctx, w, body.BusinessIdentity, body.BusinessHash)
	if !ok {
		return
	}
	id, err := s.verification.RequestRenewal(ctx, body.BusinessIdentity, hash, body.Proofs)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, requestIDResponse{ID: id})
}

func (s *Server) listPendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requests, err := s.verification.ListPending(ctx)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	out := make([]requestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, toRequestResponse(&requests[i]))
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestID(r)
	if err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	request, err := s.verification.Get(ctx, id)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toRequestResponse(request))
}

func (s *Server) getRequestOnChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestID(r)
	if err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	status, found, err := s.ledger.RequestStatus(ctx, id)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, onChainResponse{Recorded: found, Status: status})
}

type addProofBody struct {
	ProofLocator string `json:"proof_locator"`
}

func (s *Server) addProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestID(r)
	if err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	var body addProofBody
	if err := decodeJSON(r, &body); err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if !locator.IsValid(body.ProofLocator) {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "proof_locator must be a well formed locator")
		return
	}
	if err := s.verification.AddProof(ctx, id, body.ProofLocator); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cancelBody struct {
	BusinessIdentity string `json:"business_identity"`
}

func (s *Server) cancelRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestID(r)
	if err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	var body cancelBody
	if err := decodeJSON(r, &body); err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.verification.Cancel(ctx, id, body.BusinessIdentity); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type approveBody struct {
	Reviewer     string `json:"reviewer"`
	ValidityDays int    `json:"validity_days"`
}

func (s *Server) approveRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestID(r)
	if err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	var body approveBody
	if err := decodeJSON(r, &body); err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Reviewer == "" || body.ValidityDays <= 0 {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "reviewer and a positive validity_days are required")
		return
	}
	validity := time.Duration(body.ValidityDays) * 24 * time.Hour
	if err := s.verification.Approve(ctx, id, body.Reviewer, validity); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rejectBody struct {
	Reviewer string `json:"reviewer"`
	Reason   string `json:"reason"`
}

func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := requestID(r)
	if err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	var body rejectBody
	if err := decodeJSON(r, &body); err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Reviewer == "" || body.Reason == "" {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "reviewer and reason are required")
		return
	}
	if err := s.verification.Reject(ctx, id, body.Reviewer, body.Reason); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getValidity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	valid, err := s.verification.IsCurrentlyValid(ctx, chi.URLParam(r, "identity"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, validityResponse{Valid: valid})
}

// resolveBusinessHash returns the commitment supplied by the caller or, when
// omitted, derives it over the business's current canonical dossier manifest.
// It writes the error response itself and reports success in the second return.
func (s *Server) resolveBusinessHash(ctx context.Context, w http.ResponseWriter, identity, provided string) (string, bool) {
	if provided != "" {
		return provided, true
	}
	dossier, err := s.documents.DossierByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, repositories.ErrNoMapping) {
			writeErrorMsg(ctx, w, http.StatusBadRequest, "business_hash is required when no dossier is on file")
			return "", false
		}
		s.writeError(ctx, w, err)
		return "", false
	}
	raw, err := dossier.MarshalCanonical()
	if err != nil {
		s.writeError(ctx, w, err)
		return "", false
	}
	return common.BusinessHash(raw), true
}

func requestID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("request id must be a positive integer")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("malformed json body")
	}
	return nil
}

func validProofs(proofs []string) bool {
	for _, proof := range proofs {
		if !locator.IsValid(proof) {
			return false
		}
	}
	return true
}
