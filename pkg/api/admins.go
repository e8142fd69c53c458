package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Profile returns the admin owning the current token.
func (a *API) Profile(ctx context.Context) (Admin, error) {
	var admin Admin
	err := a.c.DoJSON(withRoute(ctx, "admins.profile"), http.MethodGet, "/admins", nil, nil, &admin)
	if err != nil {
		return Admin{}, fmt.Errorf("load profile: %w", err)
	}
	return admin, nil
}

// Login exchanges credentials for a token.
func (a *API) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	if err := Validate(&req); err != nil {
		return AuthResponse{}, err
	}

	var resp AuthResponse
	if err := a.c.DoJSON(withRoute(ctx, "admins.login"), http.MethodPost, "/admins/login", nil, req, &resp); err != nil {
		return AuthResponse{}, fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken() == "" {
		return AuthResponse{}, fmt.Errorf("login: response carries no access token")
	}
	return resp, nil
}

// Register creates an admin account and returns its token.
func (a *API) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	if err := Validate(&req); err != nil {
		return AuthResponse{}, err
	}

	var resp AuthResponse
	if err := a.c.DoJSON(withRoute(ctx, "admins.register"), http.MethodPost, "/admins/sign-up", nil, req, &resp); err != nil {
		return AuthResponse{}, fmt.Errorf("register: %w", err)
	}
	if resp.AccessToken() == "" {
		return AuthResponse{}, fmt.Errorf("register: response carries no access token")
	}
	return resp, nil
}

// AttachCompany links an existing company to the current admin and returns
// the company as the server now lists it. Attached companies default to
// StatusDefault when the answer carries no status.
func (a *API) AttachCompany(ctx context.Context, companyID string) (Company, error) {
	if companyID == "" {
		return Company{}, &ValidationError{Fields: map[string]string{"companyId": "is required"}}
	}
	path := "/admins/" + url.PathEscape(companyID) + "/attach"
	var company Company
	if err := a.c.DoJSON(withRoute(ctx, "admins.attach"), http.MethodPatch, path, nil, struct{}{}, &company); err != nil {
		return Company{}, fmt.Errorf("attach company %s: %w", companyID, err)
	}
	if company.ID == "" {
		company.ID = companyID
	}
	if company.Status == "" {
		company.Status = StatusDefault
	}
	return company, nil
}

// DetachCompany unlinks a company from the current admin.
func (a *API) DetachCompany(ctx context.Context, companyID string) error {
	if companyID == "" {
		return &ValidationError{Fields: map[string]string{"companyId": "is required"}}
	}
	path := "/admins/" + url.PathEscape(companyID) + "/detach"
	if err := a.c.DoJSON(withRoute(ctx, "admins.detach"), http.MethodPatch, path, nil, struct{}{}, nil); err != nil {
		return fmt.Errorf("detach company %s: %w", companyID, err)
	}
	return nil
}
