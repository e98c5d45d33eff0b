package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rematter-io/rematter-backend/api/middleware"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/enums"
)

// actor resolves the authenticated caller placed on the context by the auth
// middleware.
func actor(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return userID, role, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id in path").WithDetails(map[string]any{"field": param})
	}
	return id, nil
}
