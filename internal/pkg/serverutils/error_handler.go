package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders any error returned further down the chain
// as a BaseResponse envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, message := classify(err)
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// FiberErrorHandler is the app-level fallback for errors raised outside
// the middleware, such as body-limit rejections.
func FiberErrorHandler(ctx *fiber.Ctx, err error) error {
	code, message := classify(err)
	return ctx.Status(code).JSON(ErrorResponse(code, message))
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest, ve.Error()
	}
	return fiber.StatusInternalServerError, "Internal server error"
}
