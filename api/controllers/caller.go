package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/practicerx-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/practicerx-backend/internal/checkout"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

func callerFromRequest(r *http.Request) (checkoutsvc.CallerContext, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return checkoutsvc.CallerContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return checkoutsvc.CallerContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
	}
	return checkoutsvc.CallerContext{UserID: userID, Role: role}, nil
}
