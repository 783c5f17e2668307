package httpapi

import (
	"github.com/thirdeye/overseer/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// respondAppError writes an apperror.Error as its canonical JSON shape and
// status code, the same shape every middleware rejection already uses.
func respondAppError(c *fiber.Ctx, err *apperror.Error) error {
	return c.Status(err.HTTPStatus()).JSON(fiber.Map{
		"code": err.Code,
		"hint": err.Hint,
	})
}

// respondErr classifies err as an apperror if possible, otherwise treats it
// as an unanticipated internal failure. Every handler funnels its failure
// path through this so a caller never sees a prose-only error.
func respondErr(c *fiber.Ctx, err error) error {
	if ae, ok := apperror.As(err); ok {
		return respondAppError(c, ae)
	}
	return respondAppError(c, apperror.Wrap(apperror.CodeInternal, "unexpected internal error", err))
}
