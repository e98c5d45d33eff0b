package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rematter-io/rematter-backend/api/responses"
	"github.com/rematter-io/rematter-backend/pkg/config"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/logger"
)

const maxAuthBodyBytes = 1 << 16

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type authRateRule struct {
	scope      string
	window     time.Duration
	emailLimit int64
	ipLimit    int64
}

// AuthRateLimit throttles login and register attempts with two fixed
// windows: one keyed by caller IP and one keyed by a hash of the submitted
// email. Limiter outages fail open so an unreachable redis never locks
// everyone out of authentication.
func AuthRateLimit(cfg config.AuthRateLimitConfig, limiter rateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	rules := map[string]authRateRule{
		"/api/v1/auth/login": {
			scope:      "login",
			window:     cfg.LoginWindow,
			emailLimit: int64(cfg.LoginEmailLimit),
			ipLimit:    int64(cfg.LoginIPLimit),
		},
		"/api/v1/auth/register": {
			scope:      "register",
			window:     cfg.RegisterWindow,
			emailLimit: int64(cfg.RegisterEmailLimit),
			ipLimit:    int64(cfg.RegisterIPLimit),
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := rules[r.URL.Path]
			if !ok || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			if !allowScope(ctx, limiter, logg, rule.scope+":ip:"+clientIP(r), rule.ipLimit, rule.window) {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, slow down"))
				return
			}

			email, body := peekEmail(r)
			if body != nil {
				r.Body = io.NopCloser(bytes.NewReader(body))
			}
			if email != "" {
				if !allowScope(ctx, limiter, logg, rule.scope+":email:"+hashEmail(email), rule.emailLimit, rule.window) {
					responses.WriteError(ctx, logg, w,
						pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts for this account"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allowScope(ctx context.Context, limiter rateLimiter, logg *logger.Logger, scope string, limit int64, window time.Duration) bool {
	if limit <= 0 || window <= 0 {
		return true
	}

	allowed, _, err := limiter.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		logg.Error(ctx, "rate_limit.check_failed", err)
		return true
	}
	return allowed
}

// peekEmail reads the request body to extract the email field and hands the
// raw bytes back so the handler can still decode them.
func peekEmail(r *http.Request) (string, []byte) {
	if r.Body == nil {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAuthBodyBytes))
	_ = r.Body.Close()
	if err != nil {
		return "", body
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", body
	}
	return strings.ToLower(strings.TrimSpace(payload.Email)), body
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
