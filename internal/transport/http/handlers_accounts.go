package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"realmgate/internal/auth/models"
	"realmgate/internal/guard"
	dErrors "realmgate/pkg/domain-errors"
	"realmgate/pkg/platform/httputil"
	"realmgate/pkg/requestcontext"
)

func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.deps.Accounts.Register(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "account registered",
		"request_id", requestID,
		"account_id", view.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *handler) handleCurrentAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := guard.FromContext(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	view, err := h.deps.Accounts.GetAccount(ctx, p.SubjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Accounts.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

type updateRolesRequest struct {
	Roles []string `json:"roles"`
}

func (h *handler) handleUpdateRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	accountID := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[updateRolesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.deps.Accounts.UpdateRoles(ctx, accountID, req.Roles)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "account roles updated",
		"request_id", requestID,
		"account_id", accountID,
		"roles", req.Roles,
	)
	httputil.WriteJSON(w, http.StatusOK, view)
}
