package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/factorchain/compliance-node/internal/buildinfo"
	"github.com/factorchain/compliance-node/internal/config"
	"github.com/factorchain/compliance-node/internal/core/ports"
	"github.com/factorchain/compliance-node/internal/health"
	"github.com/factorchain/compliance-node/internal/log"
)

// Server wires the document store and the verification workflow to HTTP
type Server struct {
	cfg          *config.Configuration
	documents    ports.DocumentService
	verification ports.VerificationService
	dossiers     ports.DossierRepository
	ledger       ports.Ledger
	health       *health.Status
}

// NewServer creates a new api server
func NewServer(cfg *config.Configuration, documents ports.DocumentService, verification ports.VerificationService, dossiers ports.DossierRepository, ledger ports.Ledger, healthStatus *health.Status) *Server {
	return &Server{
		cfg:          cfg,
		documents:    documents,
		verification: verification,
		dossiers:     dossiers,
		ledger:       ledger,
		health:       healthStatus,
	}
}

// Routes registers all handlers on mux
func (s *Server) Routes(ctx context.Context, mux *chi.Mux) {
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.AllowAll().Handler)
	mux.Use(log.ChiMiddleware(ctx))

	mux.Get("/status", s.status)

	mux.Route("/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.uploadDocument)
			r.Get("/{locator}", s.getDocument)
			r.Get("/{locator}/url", s.getDocumentURL)
		})

		r.Route("/dossiers", func(r chi.Router) {
			r.Post("/", s.submitDossier)
			r.Get("/{identity}", s.getDossier)
			r.Get("/{identity}/revisions", s.getDossierRevisions)
		})

		r.Route("/verification/requests", func(r chi.Router) {
			r.Post("/", s.submitRequest)
			r.Post("/renewal", s.renewRequest)
			r.Get("/", s.listPendingRequests)
			r.Get("/{id}", s.getRequest)
			r.Get("/{id}/onchain", s.getRequestOnChain)
			r.Post("/{id}/proofs", s.addProof)
			r.Post("/{id}/cancel", s.cancelRequest)

			r.Group(func(r chi.Router) {
				r.Use(s.basicAuth)
				r.Post("/{id}/approve", s.approveRequest)
				r.Post("/{id}/reject", s.rejectRequest)
			})
		})

		r.Get("/businesses/{identity}/validity", s.getValidity)
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, statusResponse{
		Status:   s.health.Status(r.Context()),
		Revision: buildinfo.Revision(),
		Backend:  s.cfg.StorageProvider(),
	})
}

// basicAuth protects reviewer endpoints before the ledger role check happens
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.cfg.HTTPBasicAuth.User || pass != s.cfg.HTTPBasicAuth.Password {
			w.Header().Add("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
			writeErrorMsg(r.Context(), w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
