package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rematter-io/rematter-backend/api/responses"
	"github.com/rematter-io/rematter-backend/pkg/db"
	"github.com/rematter-io/rematter-backend/pkg/logger"
	"github.com/rematter-io/rematter-backend/pkg/redis"
)

const readyProbeTimeout = 2 * time.Second

type HealthController struct {
	db    db.Pinger
	redis redis.Pinger
	logg  *logger.Logger
}

func NewHealthController(database db.Pinger, cache redis.Pinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: database, redis: cache, logg: logg}
}

// Live reports process liveness only.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}

// Ready verifies the backing stores are reachable.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
	defer cancel()

	checks := map[string]string{"db": "ok", "redis": "ok"}
	healthy := true

	if err := c.db.Ping(ctx); err != nil {
		c.logg.Error(ctx, "health.db_unreachable", err)
		checks["db"] = "unreachable"
		healthy = false
	}
	if err := c.redis.Ping(ctx); err != nil {
		c.logg.Error(ctx, "health.redis_unreachable", err)
		checks["redis"] = "unreachable"
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	responses.WriteSuccessStatus(w, status, checks)
}
