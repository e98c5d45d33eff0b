package middleware

import (
	"net/http"
	"strings"

	"github.com/rematter-io/rematter-backend/api/responses"
	pkgauth "github.com/rematter-io/rematter-backend/pkg/auth"
	"github.com/rematter-io/rematter-backend/pkg/config"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/logger"
)

// Auth verifies the bearer token and stashes the caller's identity on the
// request context. Tokens are stateless: possession of a valid signature is
// the whole check.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid or expired token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID, claims.Role)
			ctx = logg.WithUserID(ctx, claims.UserID.String())
			ctx = logg.WithActorRole(ctx, claims.Role.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed authorization header")
	}
	return parts[1], nil
}
