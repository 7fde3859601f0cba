package httptransport

import (
	"net/http"

	"realmgate/internal/auth/models"
	dErrors "realmgate/pkg/domain-errors"
	"realmgate/pkg/platform/httputil"
	"realmgate/pkg/requestcontext"
)

// handleOAuthToken implements the RFC 6749 token endpoint. The body is
// form-encoded, not JSON.
func (h *handler) handleOAuthToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}

	req := &models.OAuthTokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		Username:     r.PostFormValue("username"),
		Password:     r.PostFormValue("password"),
		Scope:        r.PostFormValue("scope"),
	}

	// Client credentials may also arrive via HTTP Basic auth.
	if req.ClientID == "" {
		if id, secret, ok := r.BasicAuth(); ok {
			req.ClientID = id
			req.ClientSecret = secret
		}
	}

	resp, err := h.deps.Auth.OAuthToken(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "token grant rejected",
			"request_id", requestID,
			"grant_type", req.GrantType,
			"client_id", req.ClientID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, resp)
}
