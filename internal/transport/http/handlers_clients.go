package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"realmgate/internal/client"
	clientservice "realmgate/internal/client/service"
	"realmgate/internal/guard"
	"realmgate/pkg/platform/httputil"
	"realmgate/pkg/requestcontext"
)

func (h *handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[clientservice.CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if p, ok := guard.FromContext(ctx); ok {
		req.CreatedBy = p.SubjectID
	}

	result, err := h.deps.Clients.Create(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "oauth client created",
		"request_id", requestID,
		"client_id", result.Client.ClientID,
	)
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.deps.Clients.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if clients == nil {
		clients = []client.Client{}
	}
	httputil.WriteJSON(w, http.StatusOK, clients)
}

func (h *handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Clients.Get(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *handler) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	patch, ok := httputil.DecodeAndPrepare[client.Patch](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.deps.Clients.Update(ctx, chi.URLParam(r, "clientID"), *patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Clients.Delete(r.Context(), chi.URLParam(r, "clientID")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleRegenerateClientSecret(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Clients.RegenerateSecret(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
