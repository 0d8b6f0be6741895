package op

import (
	"errors"
	"net/http"

	"golang.org/x/exp/slog"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

// AuthRequestError delivers err to the client of an authorization request.
// authReq must only be passed once its redirect_uri was validated,
// with a nil authReq the error is written as JSON body.
func AuthRequestError(w http.ResponseWriter, r *http.Request, authReq ErrAuthRequest, err error, encoder httphelper.Encoder, logger *slog.Logger) {
	e := oidc.DefaultToServerError(err, "internal server error")
	logger = logger.With("oidc_error", e)

	if authReq == nil || authReq.GetRedirectURI() == "" || e.IsRedirectDisabled() {
		logger.Log(r.Context(), e.LogLevel(), "auth request: not redirecting")
		writeError(w, e)
		return
	}
	e.State = authReq.GetState()
	var responseMode oidc.ResponseMode
	if rm, ok := authReq.(interface{ GetResponseMode() oidc.ResponseMode }); ok {
		responseMode = rm.GetResponseMode()
	}
	url, err := AuthResponseURL(authReq.GetRedirectURI(), authReq.GetResponseType(), responseMode, e, encoder)
	if err != nil {
		logger.ErrorContext(r.Context(), "auth response URL", "error", err)
		writeError(w, oidc.ErrServerError().WithParent(err))
		return
	}
	logger.Log(r.Context(), e.LogLevel(), "auth request")
	http.Redirect(w, r, url, http.StatusFound)
}

// RequestError writes err as JSON body, with the status matching its type.
func RequestError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	e := oidc.DefaultToServerError(err, "internal server error")
	logger.Log(r.Context(), e.LogLevel(), "request error", "oidc_error", e)
	writeError(w, e)
}

func writeError(w http.ResponseWriter, e *oidc.Error) {
	status := StatusFromError(e)
	if e.ErrorType == oidc.ServerError {
		// never expose the parent chain
		e = &oidc.Error{ErrorType: oidc.ServerError, Description: e.Description}
	}
	if e.ErrorType == oidc.InvalidToken {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	httphelper.MarshalJSONWithStatus(w, e, status)
}

// StatusFromError returns the HTTP status of the error response.
func StatusFromError(err error) int {
	var e *oidc.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.ErrorType {
	case oidc.InvalidClient, oidc.InvalidToken:
		return http.StatusUnauthorized
	case oidc.ServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
