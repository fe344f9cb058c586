package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/service"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(s service.AccountService) *AccountHandler {
	return &AccountHandler{s: s}
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.s.List(c.UserContext(), GetUserID(c))
	if err != nil {
		return sendError(c, err)
	}
	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}
