package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 2 * time.Second

// Check is one dependency probed by HealthCheck.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthCheck probes every dependency concurrently and reports 503 if any fails.
//
//	@Summary	Readiness
//	@Tags		ops
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Failure	503	{object}	errorPayload
//	@Router		/health [get]
func HealthCheck(checks ...Check) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		results := make([]string, len(checks))
		g, gctx := errgroup.WithContext(ctx)
		for i, chk := range checks {
			i, chk := i, chk
			g.Go(func() error {
				if err := chk.Ping(gctx); err != nil {
					results[i] = "down"
					return err
				}
				results[i] = "up"
				return nil
			})
		}
		err := g.Wait()

		if err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		deps := make(fiber.Map, len(checks))
		for i, chk := range checks {
			deps[chk.Name] = results[i]
		}
		return c.JSON(fiber.Map{"status": "healthy", "dependencies": deps})
	}
}

// LivenessProbe answers 200 while the process is serving.
//
//	@Summary	Liveness
//	@Tags		ops
//	@Success	200
//	@Router		/healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
