package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/practicerx-backend/api/responses"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
)

type csrfIssuer interface {
	Issue(ctx context.Context, userID string) (string, error)
}

// CSRFToken issues a fresh token the caller echoes back in the checkout body.
func CSRFToken(issuer csrfIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		token, err := issuer.Issue(r.Context(), caller.UserID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue csrf token"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"csrf_token": token})
	}
}
