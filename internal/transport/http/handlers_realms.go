package httptransport

import (
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"realmgate/internal/realm"
	dErrors "realmgate/pkg/domain-errors"
	"realmgate/pkg/platform/httputil"
	"realmgate/pkg/requestcontext"
)

func (h *handler) handleListRealms(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.deps.Realms.List())
}

func (h *handler) handleGetRealm(w http.ResponseWriter, r *http.Request) {
	rl, err := h.deps.Realms.Get(chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rl)
}

func (h *handler) handleUpsertRealm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	name := chi.URLParam(r, "name")

	req, ok := httputil.DecodeAndPrepare[realm.Realm](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validateRealm(*req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.deps.Realms.Add(name, *req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "realm upserted", "request_id", requestID, "realm", name)
	rl, err := h.deps.Realms.Get(name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rl)
}

func (h *handler) handlePatchRealm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	name := chi.URLParam(r, "name")

	patch, ok := httputil.DecodeAndPrepare[realm.Patch](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rl, err := h.deps.Realms.Update(name, *patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "realm patched", "request_id", requestID, "realm", name)
	httputil.WriteJSON(w, http.StatusOK, rl)
}

func (h *handler) handleDeleteRealm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	if err := h.deps.Realms.Delete(name); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "realm deleted", "request_id", requestcontext.RequestID(ctx), "realm", name)
	w.WriteHeader(http.StatusNoContent)
}

func validateRealm(r realm.Realm) error {
	if !govalidator.StringLength(r.Issuer, "1", "2048") {
		return dErrors.New(dErrors.CodeValidation, "issuer is required")
	}
	if !govalidator.StringLength(r.Audience, "1", "255") {
		return dErrors.New(dErrors.CodeValidation, "audience is required")
	}
	if r.AccessTokenTTL == "" || r.RefreshTokenTTL == "" {
		return dErrors.New(dErrors.CodeValidation, "access and refresh token TTLs are required")
	}
	return nil
}
