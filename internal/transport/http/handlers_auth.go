package httptransport

import (
	"net/http"
	"strings"
	"time"

	"realmgate/internal/auth/models"
	dErrors "realmgate/pkg/domain-errors"
	"realmgate/pkg/platform/httputil"
	"realmgate/pkg/requestcontext"
)

func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	bundle, err := h.deps.Auth.Login(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login succeeded",
		"request_id", requestID,
		"account_id", bundle.Account.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, bundle)
}

func (h *handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RefreshRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	bundle, err := h.deps.Auth.Refresh(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bundle)
}

func (h *handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.Token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	// Validation always answers 200; the verdict is in the body.
	httputil.WriteJSON(w, http.StatusOK, h.deps.Auth.Validate(ctx, req.Token))
}

func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
		return
	}

	if err := h.deps.Auth.Logout(ctx, raw); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
