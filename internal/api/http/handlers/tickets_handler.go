package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// TicketsHandler exposes the ticket lifecycle.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), p, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		CategoryID:   req.CategoryID,
		ClientID:     req.ClientID,
		TechnicianID: req.TechnicianID,
	})
	if err != nil {
		return err
	}
	return created(c, dto.NewTicketResponse(ticket))
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTicketStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), p, id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketResponse(ticket))
}

// ListAll GET /tickets.
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.FindAll(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketResponses(tickets))
}

// ListByClient GET /tickets/client/:clientId.
func (h *TicketsHandler) ListByClient(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "clientId")
	if err != nil {
		return err
	}
	tickets, err := h.service.FindByClient(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketResponses(tickets))
}

// ListByTechnician GET /tickets/technician/:technicianId.
func (h *TicketsHandler) ListByTechnician(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "technicianId")
	if err != nil {
		return err
	}
	tickets, err := h.service.FindByTechnician(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketResponses(tickets))
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.FindOne(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketResponse(ticket))
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTicketHistoryResponses(entries))
}
