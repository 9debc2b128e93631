package controller

import (
	"convohealth-be/internal/dto"
	"convohealth-be/internal/pkg/serverutils"
	"convohealth-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUsageController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Repair(ctx *fiber.Ctx) error
	GetTutorial(ctx *fiber.Ctx) error
	SetTutorial(ctx *fiber.Ctx) error
}

type usageController struct {
	usageService service.IUsageService
}

func NewUsageController(usageService service.IUsageService) IUsageController {
	return &usageController{
		usageService: usageService,
	}
}

func (c *usageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/usage/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.Status)
	h.Post("repair", c.Repair)
	h.Get("tutorial", c.GetTutorial)
	h.Put("tutorial", c.SetTutorial)
}

func (c *usageController) Status(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}

	res, err := c.usageService.Status(ctx.UserContext(), userId)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get usage", res))
}

func (c *usageController) Repair(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}

	res, err := c.usageService.Repair(ctx.UserContext(), userId)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success repair usage", res))
}

func (c *usageController) GetTutorial(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}

	seen, err := c.usageService.TutorialSeen(ctx.UserContext(), userId)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get tutorial state", dto.TutorialStateResponse{Seen: seen}))
}

func (c *usageController) SetTutorial(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return toHTTPError(service.ErrUnauthenticated)
	}

	var req dto.TutorialStateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.usageService.SetTutorialSeen(ctx.UserContext(), userId, *req.Seen); err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update tutorial state", dto.TutorialStateResponse{Seen: *req.Seen}))
}
