// Package httpapi is the thin HTTP layer over the registry persistence core.
// Handlers delegate to the entity store; transport concerns stay here.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"annal/internal/domain"
	"annal/internal/entitystore"
	"annal/internal/revision"
	"annal/pkg/platform/middleware/auth"
	"annal/pkg/sentinel"
)

type Handler struct {
	domains *entitystore.Store[*domain.Domain]
	logger  *slog.Logger
}

func NewHandler(domains *entitystore.Store[*domain.Domain], logger *slog.Logger) *Handler {
	return &Handler{domains: domains, logger: logger}
}

type createDomainRequest struct {
	Name         string   `json:"name"`
	RegistrarID  string   `json:"registrar_id"`
	Registrant   string   `json:"registrant"`
	Nameservers  []string `json:"nameservers"`
	PeriodYears  int      `json:"period_years"`
	AuthPassword string   `json:"auth_password"`
}

type updateDomainRequest struct {
	Registrant  *string   `json:"registrant"`
	Nameservers *[]string `json:"nameservers"`
}

type domainResponse struct {
	Name        string    `json:"name"`
	TLD         string    `json:"tld"`
	RegistrarID string    `json:"registrar_id"`
	Registrant  string    `json:"registrant,omitempty"`
	Nameservers []string  `json:"nameservers,omitempty"`
	PeriodYears int       `json:"period_years"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Revisions   int       `json:"revisions"`
}

type revisionResponse struct {
	CommitTime  time.Time `json:"commit_time"`
	ManifestRef string    `json:"manifest_ref"`
}

type pointInTimeResponse struct {
	CommitTime time.Time       `json:"commit_time"`
	State      json.RawMessage `json:"state"`
}

func (h *Handler) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	var req createDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RegistrarID == "" {
		req.RegistrarID = auth.Subject(r.Context())
	}
	if req.PeriodYears == 0 {
		req.PeriodYears = 1
	}

	if _, err := h.domains.Find(r.Context(), req.Name); err == nil {
		writeError(w, http.StatusConflict, "domain already registered")
		return
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}

	d, err := domain.New(req.Name, req.RegistrarID, req.PeriodYears)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d.Registrant = req.Registrant
	d.Nameservers = req.Nameservers
	if req.AuthPassword != "" {
		if err := d.SetAuthInfo(req.AuthPassword); err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	if err := h.domains.Save(r.Context(), d); err != nil {
		h.serverError(w, r, err)
		return
	}

	// d never sees the commit-time timestamps or index; reload the stored
	// snapshot so the response carries them.
	created, err := h.domains.Find(r.Context(), d.Name)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDomainResponse(created, created.RevisionIndex()))
}

func (h *Handler) handleUpdateDomain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req updateDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.domains.Find(r.Context(), name)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}
	if req.Registrant != nil {
		d.Registrant = *req.Registrant
	}
	if req.Nameservers != nil {
		d.Nameservers = *req.Nameservers
	}
	if err := h.domains.Save(r.Context(), d); err != nil {
		h.serverError(w, r, err)
		return
	}

	// The caller's copy deliberately does not reflect the new index; reload
	// for an accurate revision count.
	reloaded, err := h.domains.Find(r.Context(), name)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDomainResponse(reloaded, reloaded.RevisionIndex()))
}

func (h *Handler) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.domains.Find(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.lookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDomainResponse(d, d.RevisionIndex()))
}

func (h *Handler) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	d, err := h.domains.Find(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.lookupError(w, r, err)
		return
	}
	entries := d.RevisionIndex().Entries()
	out := make([]revisionResponse, len(entries))
	for i, e := range entries {
		out[i] = revisionResponse{CommitTime: e.At, ManifestRef: e.Ref.String()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDomainAt(w http.ResponseWriter, r *http.Request) {
	at, err := time.Parse(time.RFC3339, r.URL.Query().Get("time"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be RFC 3339")
		return
	}
	m, err := h.domains.FindAt(r.Context(), chi.URLParam(r, "name"), at)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pointInTimeResponse{
		CommitTime: m.CommitTime,
		State:      json.RawMessage(m.Payload),
	})
}

func (h *Handler) lookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.serverError(w, r, err)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func toDomainResponse(d *domain.Domain, idx revision.Index) domainResponse {
	return domainResponse{
		Name:        d.Name,
		TLD:         d.TLD,
		RegistrarID: d.RegistrarID,
		Registrant:  d.Registrant,
		Nameservers: d.Nameservers,
		PeriodYears: d.PeriodYears,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Revisions:   idx.Len(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
