package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CategoryResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type ClientRequest struct {
	Name         string  `json:"name"`
	Company      *string `json:"company"`
	ContactEmail string  `json:"contact_email"`
	UserID       int64   `json:"user_id"`
}

type UpdateClientRequest struct {
	Name         *string `json:"name"`
	Company      *string `json:"company"`
	ContactEmail *string `json:"contact_email"`
	UserID       *int64  `json:"user_id"`
}

type ClientResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Company      *string `json:"company"`
	ContactEmail string  `json:"contact_email"`
	UserID       int64   `json:"user_id"`
}

// TechnicianRequest payload. Availability defaults to true.
type TechnicianRequest struct {
	Name         string  `json:"name"`
	Specialty    *string `json:"specialty"`
	Availability *bool   `json:"availability"`
	UserID       int64   `json:"user_id"`
}

type UpdateTechnicianRequest struct {
	Name         *string `json:"name"`
	Specialty    *string `json:"specialty"`
	Availability *bool   `json:"availability"`
	UserID       *int64  `json:"user_id"`
}

type TechnicianResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Specialty    *string `json:"specialty"`
	Availability bool    `json:"availability"`
	UserID       int64   `json:"user_id"`
}

func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description}
}

func NewCategoryResponses(categories []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, NewCategoryResponse(&categories[i]))
	}
	return out
}

func NewClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{ID: c.ID, Name: c.Name, Company: c.Company, ContactEmail: c.ContactEmail, UserID: c.UserID}
}

func NewClientResponses(clients []domain.Client) []ClientResponse {
	out := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		out = append(out, NewClientResponse(&clients[i]))
	}
	return out
}

func NewTechnicianResponse(t *domain.Technician) TechnicianResponse {
	return TechnicianResponse{ID: t.ID, Name: t.Name, Specialty: t.Specialty, Availability: t.Available, UserID: t.UserID}
}

func NewTechnicianResponses(technicians []domain.Technician) []TechnicianResponse {
	out := make([]TechnicianResponse, 0, len(technicians))
	for i := range technicians {
		out = append(out, NewTechnicianResponse(&technicians[i]))
	}
	return out
}
