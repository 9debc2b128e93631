package controller

import (
	"errors"

	"convohealth-be/internal/service"
	"convohealth-be/pkg/recording/capture"
	"convohealth-be/pkg/recording/orchestrator"
	"convohealth-be/pkg/usage"

	"github.com/gofiber/fiber/v2"
)

// toHTTPError maps service errors onto status codes. Anything it does not
// recognise is passed through and ends up as a 500.
func toHTTPError(err error) error {
	var transition *orchestrator.TransitionError
	var device *capture.DeviceError

	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrUnauthenticated):
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrNoteNotFound):
		return fiber.NewError(fiber.StatusNotFound, "SOAP note not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Recording session not found")
	case errors.Is(err, usage.ErrInvalidDuration):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, capture.ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSessionActive),
		errors.Is(err, capture.ErrDeviceBusy),
		errors.Is(err, orchestrator.ErrAlreadyStopped),
		errors.Is(err, orchestrator.ErrNotRecording),
		errors.Is(err, orchestrator.ErrProcessing),
		errors.Is(err, orchestrator.ErrClosed),
		errors.As(err, &transition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.As(err, &device):
		return fiber.NewError(fiber.StatusFailedDependency, err.Error())
	}
	return err
}

func parseID(ctx *fiber.Ctx) (string, error) {
	id := ctx.Params("id")
	if id == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "Missing id")
	}
	return id, nil
}
