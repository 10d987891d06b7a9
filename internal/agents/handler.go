package agents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/agentvault/agentvault/internal/vault"
)

// Handler exposes the agent catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an agents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name        string `json:"name"`
	Wallet      string `json:"wallet"`
	Price       uint64 `json:"price"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Price       *uint64 `json:"price"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Active      *bool   `json:"is_active"`
}

// Create registers a new agent.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	agent, err := h.service.Create(c.UserContext(), CreateInput{
		Name:        req.Name,
		Wallet:      req.Wallet,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return h.mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(agent)
}

// List pages through the catalog. active=true narrows to active agents.
func (h *Handler) List(c *fiber.Ctx) error {
	filter := ListFilter{
		ActiveOnly: c.QueryBool("active", false),
		Limit:      c.QueryInt("limit", 50),
		Offset:     c.QueryInt("offset", 0),
	}
	listing, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(fiber.Map{"agents": listing, "count": len(listing)})
}

// Get returns one agent by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid agent id")
	}
	agent, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(agent)
}

// GetByWallet returns one agent by payout wallet.
func (h *Handler) GetByWallet(c *fiber.Ctx) error {
	agent, err := h.service.GetByWallet(c.UserContext(), c.Params("address"))
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(agent)
}

// Update applies a partial update.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid agent id")
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	agent, err := h.service.Update(c.UserContext(), id, Update{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Active:      req.Active,
	})
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(agent)
}

// Delete removes an agent.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid agent id")
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.mapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "agent not found")
	case errors.Is(err, ErrDuplicateWallet):
		return fiber.NewError(http.StatusConflict, "wallet already registered")
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, vault.ErrInvalidIdentity),
		errors.Is(err, vault.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
