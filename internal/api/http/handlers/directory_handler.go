package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// DirectoryHandler exposes category, client and technician management.
type DirectoryHandler struct {
	service *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directory *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: directory}
}

// withID resolves the principal and the :id path param before running fn.
func withID(c *fiber.Ctx, fn func(p domain.Principal, id int64) error) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	return fn(p, id)
}

func (h *DirectoryHandler) CreateCategory(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.service.CreateCategory(c.UserContext(), p, service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return created(c, dto.NewCategoryResponse(category))
}

func (h *DirectoryHandler) ListCategories(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	categories, err := h.service.ListCategories(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, dto.NewCategoryResponses(categories))
}

func (h *DirectoryHandler) GetCategory(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		category, err := h.service.GetCategory(c.UserContext(), p, id)
		if err != nil {
			return err
		}
		return ok(c, dto.NewCategoryResponse(category))
	})
}

func (h *DirectoryHandler) UpdateCategory(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		var req dto.UpdateCategoryRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		category, err := h.service.UpdateCategory(c.UserContext(), p, id, domain.CategoryPatch{Name: req.Name, Description: req.Description})
		if err != nil {
			return err
		}
		return ok(c, dto.NewCategoryResponse(category))
	})
}

func (h *DirectoryHandler) DeleteCategory(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		if err := h.service.DeleteCategory(c.UserContext(), p, id); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	})
}

func (h *DirectoryHandler) CreateClient(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ClientRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	client, err := h.service.CreateClient(c.UserContext(), p, service.ClientInput{
		Name:         req.Name,
		Company:      req.Company,
		ContactEmail: req.ContactEmail,
		UserID:       req.UserID,
	})
	if err != nil {
		return err
	}
	return created(c, dto.NewClientResponse(client))
}

func (h *DirectoryHandler) ListClients(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	clients, err := h.service.ListClients(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, dto.NewClientResponses(clients))
}

func (h *DirectoryHandler) GetClient(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		client, err := h.service.GetClient(c.UserContext(), p, id)
		if err != nil {
			return err
		}
		return ok(c, dto.NewClientResponse(client))
	})
}

func (h *DirectoryHandler) UpdateClient(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		var req dto.UpdateClientRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		client, err := h.service.UpdateClient(c.UserContext(), p, id, domain.ClientPatch{
			Name:         req.Name,
			Company:      req.Company,
			ContactEmail: req.ContactEmail,
			UserID:       req.UserID,
		})
		if err != nil {
			return err
		}
		return ok(c, dto.NewClientResponse(client))
	})
}

func (h *DirectoryHandler) DeleteClient(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		if err := h.service.DeleteClient(c.UserContext(), p, id); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	})
}

func (h *DirectoryHandler) CreateTechnician(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.TechnicianRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	technician, err := h.service.CreateTechnician(c.UserContext(), p, service.TechnicianInput{
		Name:      req.Name,
		Specialty: req.Specialty,
		Available: req.Availability,
		UserID:    req.UserID,
	})
	if err != nil {
		return err
	}
	return created(c, dto.NewTechnicianResponse(technician))
}

func (h *DirectoryHandler) ListTechnicians(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	technicians, err := h.service.ListTechnicians(c.UserContext(), p)
	if err != nil {
		return err
	}
	return ok(c, dto.NewTechnicianResponses(technicians))
}

func (h *DirectoryHandler) GetTechnician(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		technician, err := h.service.GetTechnician(c.UserContext(), p, id)
		if err != nil {
			return err
		}
		return ok(c, dto.NewTechnicianResponse(technician))
	})
}

func (h *DirectoryHandler) UpdateTechnician(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		var req dto.UpdateTechnicianRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		technician, err := h.service.UpdateTechnician(c.UserContext(), p, id, domain.TechnicianPatch{
			Name:      req.Name,
			Specialty: req.Specialty,
			Available: req.Availability,
			UserID:    req.UserID,
		})
		if err != nil {
			return err
		}
		return ok(c, dto.NewTechnicianResponse(technician))
	})
}

func (h *DirectoryHandler) DeleteTechnician(c *fiber.Ctx) error {
	return withID(c, func(p domain.Principal, id int64) error {
		if err := h.service.DeleteTechnician(c.UserContext(), p, id); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	})
}
