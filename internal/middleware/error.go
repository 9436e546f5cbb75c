package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"

	"github.com/soltixdb/popstats/internal/blobstore"
	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/models"
)

// ErrorHandler renders handler errors as models.ErrorResponse. Missing
// objects map to 404 and expired invocation deadlines to 504.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message := classify(err)

		log := logger
		if id := logging.InvocationID(c.UserContext()); id != "" {
			log = logger.With("invocation_id", id)
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("Request error", "path", c.Path(), "method", c.Method(), "status", code, "error", err)
		} else {
			log.Debug("Request rejected", "path", c.Path(), "method", c.Method(), "status", code, "error", err)
		}

		return c.Status(code).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    errorCode(code),
				Message: message,
				Path:    c.Path(),
			},
		})
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case blobstore.IsNotFound(err):
		return fiber.StatusNotFound, "Object not found"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "Invocation timed out"
	default:
		return fiber.StatusInternalServerError, "Internal Server Error"
	}
}

// errorCode turns a status into an upper snake case code, e.g. NOT_FOUND
func errorCode(status int) string {
	text := fiberutils.StatusMessage(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
