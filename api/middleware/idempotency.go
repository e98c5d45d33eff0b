package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rematter-io/rematter-backend/api/responses"
	"github.com/rematter-io/rematter-backend/pkg/config"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/logger"
	"github.com/rematter-io/rematter-backend/pkg/redis"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	idempotencyPending = "__pending__"
	maxIdempotencyBody = 1 << 20
)

type idempotencyRule struct {
	scope string
	ttl   time.Duration
}

type idempotencyRecord struct {
	RequestHash string          `json:"request_hash"`
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
}

type responseCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (c *responseCapture) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	c.buf.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotency replays the stored response when a POST arrives again with the
// same Idempotency-Key, and rejects reuse of a key with a different body.
// Only mutation endpoints where a client retry can double-charge carry a rule.
func Idempotency(cfg config.IdempotencyConfig, store redis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	rules := map[string]idempotencyRule{
		"/api/v1/orders":        {scope: "orders", ttl: cfg.OrderTTL},
		"/api/v1/auth/register": {scope: "register", ttl: 24 * time.Hour},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := rules[r.URL.Path]
			if !ok || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBody))
			_ = r.Body.Close()
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashRequest(body)
			storeKey := store.IdempotencyKey(rule.scope, key)

			created, err := store.SetNX(ctx, storeKey, pendingRecord(requestHash), rule.ttl)
			if err != nil {
				// Redis outage: run the handler without replay protection
				// rather than reject the request.
				logg.Error(ctx, "idempotency.store_failed", err)
				next.ServeHTTP(w, r)
				return
			}

			if !created {
				replayStored(ctx, store, storeKey, requestHash, logg, w)
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			if capture.status >= http.StatusInternalServerError {
				// Do not pin a failed attempt; the client should be able to retry.
				if delErr := store.Del(ctx, storeKey); delErr != nil {
					logg.Error(ctx, "idempotency.release_failed", delErr)
				}
				return
			}

			record, err := json.Marshal(idempotencyRecord{
				RequestHash: requestHash,
				Status:      capture.status,
				Body:        json.RawMessage(capture.buf.Bytes()),
			})
			if err == nil {
				err = store.Set(ctx, storeKey, record, rule.ttl)
			}
			if err != nil {
				logg.Error(ctx, "idempotency.record_failed", err)
			}
		})
	}
}

func pendingRecord(requestHash string) string {
	record, _ := json.Marshal(idempotencyRecord{
		RequestHash: requestHash,
		Body:        json.RawMessage(`"` + idempotencyPending + `"`),
	})
	return string(record)
}

func replayStored(ctx context.Context, store redis.IdempotencyStore, storeKey, requestHash string, logg *logger.Logger, w http.ResponseWriter) {
	raw, err := store.Get(ctx, storeKey)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			// Record expired between SetNX and Get; treat like a fresh miss.
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency record expired, retry the request"))
			return
		}
		responses.WriteError(ctx, logg, w,
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		responses.WriteError(ctx, logg, w,
			pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt idempotency record"))
		return
	}

	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w,
			pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
		return
	}

	if record.Status == 0 {
		responses.WriteError(ctx, logg, w,
			pkgerrors.New(pkgerrors.CodeConflict, "original request still in flight"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

func hashRequest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
