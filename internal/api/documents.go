package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/factorchain/compliance-node/internal/common"
	"github.com/factorchain/compliance-node/internal/core/domain"
	"github.com/factorchain/compliance-node/internal/locator"
	"github.com/factorchain/compliance-node/internal/log"
	"github.com/factorchain/compliance-node/internal/storage"
)

const (
	maxUploadSize  = 32 << 20 // 32 MiB
	uploadAttempts = 3
	uploadBackoff  = 250 * time.Millisecond
)

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "could not read file")
		return
	}
	if len(content) > maxUploadSize {
		writeErrorMsg(ctx, w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	document, err := s.uploadWithRetry(ctx, content, header.Filename, mimeType)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, documentResponse{Document: *document})
}

// uploadWithRetry is the caller-side retry policy for transient backend
// failures: bounded attempts with doubling backoff, only for
// ErrBackendUnavailable. Put is idempotent on identical content, so a retry
// after an ambiguous failure cannot duplicate anything.
func (s *Server) uploadWithRetry(ctx context.Context, content []byte, name, mimeType string) (*domain.Document, error) {
	backoff := uploadBackoff
	var lastErr error
	for attempt := 1; attempt <= uploadAttempts; attempt++ {
		document, err := s.documents.UploadDocument(ctx, content, name, mimeType)
		if err == nil {
			return document, nil
		}
		if !errors.Is(err, storage.ErrBackendUnavailable) {
			return nil, err
		}
		lastErr = err
		log.Warn(ctx, "upload attempt failed", "attempt", attempt, "name", name, "err", err)
		if attempt == uploadAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := chi.URLParam(r, "locator")
	if !locator.IsValid(loc) {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "malformed locator")
		return
	}
	content, err := s.documents.FetchDocument(ctx, loc)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) getDocumentURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := chi.URLParam(r, "locator")
	if !locator.IsValid(loc) {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "malformed locator")
		return
	}
	url, err := s.documents.DocumentURL(ctx, loc)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, urlResponse{URL: url})
}

type submitDossierRequest struct {
	BusinessIdentity string                     `json:"business_identity"`
	Jurisdiction     string                     `json:"jurisdiction"`
	BusinessType     string                     `json:"business_type"`
	Documents        map[string]domain.Document `json:"documents"`
}

func (s *Server) submitDossier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req submitDossierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorMsg(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if !common.IsWalletAddress(req.BusinessIdentity) {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "business_identity must be a wallet address")
		return
	}
	if len(req.Documents) == 0 {
		writeErrorMsg(ctx, w, http.StatusBadRequest, "documents are required")
		return
	}
	for key, document := range req.Documents {
		if !locator.IsValid(document.Locator) {
			writeErrorMsg(ctx, w, http.StatusBadRequest, "document "+key+" has a malformed locator")
			return
		}
	}

	dossier := &domain.BusinessDossier{
		BusinessIdentity: req.BusinessIdentity,
		Jurisdiction:     req.Jurisdiction,
		BusinessType:     req.BusinessType,
		Documents:        req.Documents,
		SubmittedAt:      time.Now().UTC(),
	}
	loc, err := s.documents.UploadDossier(ctx, dossier)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, locatorResponse{Locator: loc})
}

func (s *Server) getDossier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dossier, err := s.documents.DossierByIdentity(ctx, chi.URLParam(r, "identity"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, dossierResponse{Locator: dossier.SelfLocator, Dossier: dossier})
}

func (s *Server) getDossierRevisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	revisions, err := s.dossiers.Revisions(ctx, chi.URLParam(r, "identity"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	out := make([]revisionResponse, 0, len(revisions))
	for _, rev := range revisions {
		out = append(out, revisionResponse{Locator: rev.Locator, CreatedAt: rev.CreatedAt})
	}
	writeJSON(ctx, w, http.StatusOK, out)
}
