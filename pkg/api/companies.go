package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
)

// CompanyScope selects which companies a listing returns.
type CompanyScope string

const (
	// ScopeAll lists every company.
	ScopeAll CompanyScope = ""

	// ScopeIncluded lists companies attached to the current admin.
	ScopeIncluded CompanyScope = "admin-include"

	// ScopeExcluded lists companies not yet attached to the current admin.
	ScopeExcluded CompanyScope = "admin-exclude"
)

func (s CompanyScope) path() string {
	if s == ScopeAll {
		return "/companies"
	}
	return "/companies/" + string(s)
}

func (s CompanyScope) route() string {
	switch s {
	case ScopeIncluded:
		return "companies.included"
	case ScopeExcluded:
		return "companies.excluded"
	default:
		return "companies.list"
	}
}

// ListCompanies returns one page of companies in scope.
func (a *API) ListCompanies(ctx context.Context, scope CompanyScope, q pagination.Query) (pagination.Page[Company], error) {
	var page pagination.Page[Company]
	if err := a.list(ctx, scope.route(), scope.path(), q, &page); err != nil {
		return pagination.Page[Company]{}, fmt.Errorf("list companies: %w", err)
	}
	return page, nil
}

// Companies returns a FetchFunc for a company listing.
func (a *API) Companies(scope CompanyScope) pagination.FetchFunc[Company] {
	return func(ctx context.Context, q pagination.Query) (pagination.Page[Company], error) {
		return a.ListCompanies(ctx, scope, q)
	}
}

// CreateCompany creates a company owned by the current admin.
func (a *API) CreateCompany(ctx context.Context, req CreateCompanyRequest) (Company, error) {
	if err := Validate(&req); err != nil {
		return Company{}, err
	}

	var company Company
	if err := a.c.DoJSON(withRoute(ctx, "companies.create"), http.MethodPost, "/companies", nil, req, &company); err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	if company.Status == "" {
		company.Status = StatusCreated
	}
	return company, nil
}
