package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/popstats/internal/analysis"
	"github.com/soltixdb/popstats/internal/ingest"
	"github.com/soltixdb/popstats/internal/logging"
)

// InvokeIngest runs the ingest pipeline. The HTTP status mirrors the
// envelope status code.
func (h *Handler) InvokeIngest(c *fiber.Ctx) error {
	return h.invoke(c, ingest.FunctionName, h.ingest)
}

// InvokeAnalysis runs the analysis pipeline
func (h *Handler) InvokeAnalysis(c *fiber.Ctx) error {
	return h.invoke(c, analysis.FunctionName, h.analysis)
}

func (h *Handler) invoke(c *fiber.Ctx, function string, inv Invoker) error {
	ctx := c.UserContext()
	ctx = logging.WithInvocation(ctx, function, logging.InvocationID(ctx))

	env := inv.Invoke(ctx)
	log := logging.FromContext(ctx)
	if env.StatusCode == 0 {
		// No envelope: the run was abandoned
		if err := ctx.Err(); err != nil {
			return err
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Invocation returned no result")
	}
	if err := ctx.Err(); err != nil {
		log.Warn("Invocation finished after its deadline", "status_code", env.StatusCode, "error", err)
	}

	log.Info("Invocation finished", "status_code", env.StatusCode)
	return c.Status(env.StatusCode).JSON(env)
}
