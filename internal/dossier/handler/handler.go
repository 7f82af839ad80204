// Package handler exposes the dossier workflow over HTTP. Every route
// requires an authenticated caller.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dossier/internal/auth/guard"
	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	"dossier/internal/dossier/service"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/httputil"
)

type Service interface {
	Save(ctx context.Context, index int, body []byte, target service.Target) (*models.Application, error)
	Submit(ctx context.Context, index int, body []byte, target service.Target) (*service.SubmitResult, error)
	Section(ctx context.Context, index int, target service.Target) (map[string]string, error)
	Progress(ctx context.Context) (*service.Progress, error)
	CreateItem(ctx context.Context, req service.CollectionRequest) ([]form.Item, error)
	DeleteItem(ctx context.Context, req service.CollectionRequest) ([]form.Item, error)
	ListItems(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID) ([]form.Item, error)
	CreateAdditional(ctx context.Context, req service.AdditionalRequest) (*models.Application, error)
	ListMine(ctx context.Context) ([]*models.Application, error)
	GetDossier(ctx context.Context, appID id.ApplicationID) (*models.Dossier, error)
	DeleteMine(ctx context.Context, appID id.ApplicationID) error
}

type Handler struct {
	dossiers Service
	guard    *guard.Guard
	logger   *slog.Logger
}

func New(dossiers Service, g *guard.Guard, logger *slog.Logger) *Handler {
	return &Handler{dossiers: dossiers, guard: g, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireIdentity)

		r.Get("/me/progress", h.handleProgress)

		r.Get("/sections/{section}", h.handleGetSection)
		r.Put("/sections/{section}", h.handleSave)
		r.Post("/sections/{section}/submit", h.handleSubmit)

		r.Get("/collections/{kind}", h.handleListItems)
		r.Post("/collections/{kind}", h.handleCreateItem)
		r.Post("/collections/{kind}/delete", h.handleDeleteItem)

		r.Get("/applications", h.handleListApplications)
		r.Post("/applications", h.handleCreateApplication)
		r.Get("/applications/{applicationID}", h.handleGetApplication)
		r.Delete("/applications/{applicationID}", h.handleDeleteApplication)
	})
}

func sectionParam(r *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "section"))
	if err != nil {
		return 0, dErrors.New(dErrors.CodeNotFound, "unknown section")
	}
	return index, nil
}

// target reads the optional application_id query parameter.
func target(r *http.Request) (service.Target, error) {
	raw := r.URL.Query().Get("application_id")
	if raw == "" {
		return service.Target{}, nil
	}
	appID, err := id.ParseApplicationID(raw)
	if err != nil {
		return service.Target{}, err
	}
	return service.Target{ApplicationID: appID}, nil
}

func (h *Handler) sectionRequest(r *http.Request) (int, service.Target, error) {
	index, err := sectionParam(r)
	if err != nil {
		return 0, service.Target{}, err
	}
	t, err := target(r)
	return index, t, err
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.dossiers.Progress(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progress)
}

func (h *Handler) handleGetSection(w http.ResponseWriter, r *http.Request) {
	index, t, err := h.sectionRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	values, err := h.dossiers.Section(r.Context(), index, t)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, values)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	index, t, err := h.sectionRequest(r)
	if err == nil {
		var body []byte
		if body, err = httputil.ReadBody(r); err == nil {
			_, err = h.dossiers.Save(r.Context(), index, body, t)
		}
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, fmt.Sprintf("section %d saved", index))
}

type submitResponse struct {
	Message           string `json:"message"`
	CompletedSections []int  `json:"completed_sections,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	index, t, err := h.sectionRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, err := httputil.ReadBody(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.dossiers.Submit(r.Context(), index, body, t)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := submitResponse{Message: fmt.Sprintf("section %d submitted", index)}
	if result.Completed != nil {
		resp.CompletedSections = result.Completed.Sorted()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type collectionEnvelope struct {
	ApplicationID string          `json:"application_id"`
	TargetID      string          `json:"target_id"`
	Items         json.RawMessage `json:"items"`
}

type itemsResponse struct {
	Items []map[string]string `json:"items"`
}

func collectionKind(r *http.Request) (form.CollectionKind, error) {
	kind, err := form.ParseCollectionKind(chi.URLParam(r, "kind"))
	if err != nil {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown collection")
	}
	return kind, nil
}

// collectionRequest decodes the envelope. Absent ids stay nil so the
// service can report them as missing.
func collectionRequest(r *http.Request) (service.CollectionRequest, error) {
	kind, err := collectionKind(r)
	if err != nil {
		return service.CollectionRequest{}, err
	}
	var env collectionEnvelope
	if err := httputil.DecodeJSON(r, &env); err != nil {
		return service.CollectionRequest{}, err
	}
	req := service.CollectionRequest{Kind: kind, Snapshot: env.Items}
	if env.ApplicationID != "" {
		if req.ApplicationID, err = id.ParseApplicationID(env.ApplicationID); err != nil {
			return service.CollectionRequest{}, err
		}
	}
	if env.TargetID != "" {
		if req.TargetID, err = id.ParseItemID(env.TargetID); err != nil {
			return service.CollectionRequest{}, err
		}
	}
	return req, nil
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	kind, err := collectionKind(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	appID, err := id.ParseApplicationID(r.URL.Query().Get("application_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, err := h.dossiers.ListItems(r.Context(), kind, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, itemsResponse{Items: EncodeItems(kind, items)})
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	h.editCollection(w, r, h.dossiers.CreateItem)
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	h.editCollection(w, r, h.dossiers.DeleteItem)
}

func (h *Handler) editCollection(w http.ResponseWriter, r *http.Request, edit func(context.Context, service.CollectionRequest) ([]form.Item, error)) {
	req, err := collectionRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, err := edit(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, itemsResponse{Items: EncodeItems(req.Kind, items)})
}

func applicationIDParam(r *http.Request) (id.ApplicationID, error) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		return id.ApplicationID{}, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return appID, nil
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.dossiers.ListMine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, NewApplicationResponse(app, nil))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"applications": out})
}

func (h *Handler) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req service.AdditionalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.dossiers.CreateAdditional(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, NewApplicationResponse(app, nil))
}

func (h *Handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	appID, err := applicationIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dossier, err := h.dossiers.GetDossier(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NewApplicationResponse(dossier.Application, dossier.Collections))
}

func (h *Handler) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	appID, err := applicationIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.dossiers.DeleteMine(r.Context(), appID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "application deleted")
}
