package controller

import (
	"context"

	"convohealth-be/internal/dto"
	"convohealth-be/internal/pkg/serverutils"
	"convohealth-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRecordingController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	UploadChunk(ctx *fiber.Ctx) error
	Pause(ctx *fiber.Ctx) error
	Resume(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Abandon(ctx *fiber.Ctx) error
}

type recordingController struct {
	recordingService service.IRecordingService
}

func NewRecordingController(recordingService service.IRecordingService) IRecordingController {
	return &recordingController{
		recordingService: recordingService,
	}
}

func (c *recordingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/recording/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Start)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Abandon)
	h.Post(":id/chunks", c.UploadChunk)
	h.Post(":id/pause", c.Pause)
	h.Post(":id/resume", c.Resume)
	h.Post(":id/stop", c.Stop)
	h.Post(":id/reset", c.Reset)
}

func (c *recordingController) Start(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}

	res, err := c.recordingService.Start(ctx.UserContext(), userId)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Recording started", res))
}

// UploadChunk takes the raw request body as audio bytes.
func (c *recordingController) UploadChunk(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	// fasthttp reuses the body buffer once the handler returns.
	body := append([]byte(nil), ctx.Body()...)

	res, err := c.recordingService.UploadChunk(ctx.UserContext(), userId, id, body)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Chunk accepted", res))
}

func (c *recordingController) Pause(ctx *fiber.Ctx) error {
	return c.transition(ctx, "Recording paused", c.recordingService.Pause)
}

func (c *recordingController) Resume(ctx *fiber.Ctx) error {
	return c.transition(ctx, "Recording resumed", c.recordingService.Resume)
}

func (c *recordingController) Stop(ctx *fiber.Ctx) error {
	return c.transition(ctx, "Recording stopped", c.recordingService.Stop)
}

func (c *recordingController) Reset(ctx *fiber.Ctx) error {
	return c.transition(ctx, "Recording reset", c.recordingService.Reset)
}

func (c *recordingController) Show(ctx *fiber.Ctx) error {
	return c.transition(ctx, "Success show recording", c.recordingService.Status)
}

func (c *recordingController) Abandon(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	if err := c.recordingService.Abandon(ctx.UserContext(), userId, id); err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Recording abandoned", nil))
}

type sessionOp func(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error)

func (c *recordingController) transition(ctx *fiber.Ctx, message string, op sessionOp) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	res, err := op(ctx.UserContext(), userId, id)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse(message, res))
}
