package controller

import (
	"fmt"

	"convohealth-be/internal/dto"
	"convohealth-be/internal/pkg/serverutils"
	"convohealth-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISoapNoteController interface {
	RegisterRoutes(r fiber.Router)
	Save(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type soapNoteController struct {
	soapNoteService service.ISoapNoteService
}

func NewSoapNoteController(soapNoteService service.ISoapNoteService) ISoapNoteController {
	return &soapNoteController{
		soapNoteService: soapNoteService,
	}
}

func (c *soapNoteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/soap-note/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Save)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Get(":id/export", c.Export)
	h.Delete(":id", c.Delete)
}

func noteID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		// Malformed ids cannot name a stored note.
		return uuid.Nil, toHTTPError(service.ErrNoteNotFound)
	}
	return id, nil
}

func (c *soapNoteController) Save(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}

	var req dto.SaveSoapNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.soapNoteService.Save(ctx.UserContext(), userId, &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success save SOAP note", res))
}

func (c *soapNoteController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}

	res, err := c.soapNoteService.List(ctx.UserContext(), userId)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list SOAP notes", res))
}

func (c *soapNoteController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}
	id, err := noteID(ctx)
	if err != nil {
		return err
	}

	res, err := c.soapNoteService.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show SOAP note", res))
}

// Export returns plain text as an attachment unless ?format=json is given.
func (c *soapNoteController) Export(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}
	id, err := noteID(ctx)
	if err != nil {
		return err
	}

	res, err := c.soapNoteService.Export(ctx.UserContext(), userId, id)
	if err != nil {
		return toHTTPError(err)
	}

	if ctx.Query("format") == "json" {
		return ctx.JSON(serverutils.SuccessResponse("Success export SOAP note", res))
	}

	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	ctx.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return ctx.SendString(res.Content)
}

func (c *soapNoteController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}
	id, err := noteID(ctx)
	if err != nil {
		return err
	}

	if err := c.soapNoteService.Delete(ctx.UserContext(), userId, id); err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete SOAP note", nil))
}
