package api

import "strings"

// LoginRequest is the body of POST /admins/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// RegisterRequest is the body of POST /admins/sign-up.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *RegisterRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

// CreateCompanyRequest is the body of POST /companies.
type CreateCompanyRequest struct {
	Name string `json:"name" validate:"required"`
}

func (r *CreateCompanyRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// CreateEmployeeRequest is the body of POST /employees.
type CreateEmployeeRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	SurName   string `json:"surName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	CompanyID string `json:"companyId" validate:"required"`
	Position  string `json:"position" validate:"required"`
}

func (r *CreateEmployeeRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.SurName = strings.TrimSpace(r.SurName)
	r.Email = strings.TrimSpace(r.Email)
	r.CompanyID = strings.TrimSpace(r.CompanyID)
	r.Position = strings.TrimSpace(r.Position)
}

// UpdateEmployeeRequest is the body of PATCH /employees/{id}.
type UpdateEmployeeRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	SurName   string `json:"surName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	CompanyID string `json:"companyId,omitempty"`
	Position  string `json:"position,omitempty"`
}

func (r *UpdateEmployeeRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.SurName = strings.TrimSpace(r.SurName)
	r.Email = strings.TrimSpace(r.Email)
	r.CompanyID = strings.TrimSpace(r.CompanyID)
	r.Position = strings.TrimSpace(r.Position)
}

// AttachEmployeeRequest is the body of PATCH /employees/{id}/attach.
type AttachEmployeeRequest struct {
	CompanyID string `json:"companyId" validate:"required"`
	Position  string `json:"position" validate:"required"`
}

func (r *AttachEmployeeRequest) normalize() {
	r.CompanyID = strings.TrimSpace(r.CompanyID)
	r.Position = strings.TrimSpace(r.Position)
}

// detachEmployeeRequest is the body of PATCH /employees/{id}/detach.
type detachEmployeeRequest struct {
	CompanyID string `json:"companyId"`
}
