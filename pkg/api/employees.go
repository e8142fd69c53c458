package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/admin-dashboard/pkg/client"
	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
)

func withRoute(ctx context.Context, route string) context.Context {
	return client.WithRoute(ctx, route)
}

func requireCompany(q pagination.Query) error {
	if q.ParentID == "" {
		return &ValidationError{Fields: map[string]string{"companyId": "is required"}}
	}
	return nil
}

// ListEmployees returns one page of a company's employees (q.ParentID).
func (a *API) ListEmployees(ctx context.Context, q pagination.Query) (pagination.Page[Employee], error) {
	if err := requireCompany(q); err != nil {
		return pagination.Page[Employee]{}, err
	}

	var page pagination.Page[Employee]
	path := "/employees/" + url.PathEscape(q.ParentID)
	if err := a.list(ctx, "employees.list", path, q, &page); err != nil {
		return pagination.Page[Employee]{}, fmt.Errorf("list employees of %s: %w", q.ParentID, err)
	}
	return page, nil
}

// ListEmployeesNotIn returns one page of employees not attached to q.ParentID.
func (a *API) ListEmployeesNotIn(ctx context.Context, q pagination.Query) (pagination.Page[Employee], error) {
	if err := requireCompany(q); err != nil {
		return pagination.Page[Employee]{}, err
	}

	var page pagination.Page[Employee]
	path := "/employees/" + url.PathEscape(q.ParentID) + "/not-in"
	if err := a.list(ctx, "employees.not_in", path, q, &page); err != nil {
		return pagination.Page[Employee]{}, fmt.Errorf("list employees outside %s: %w", q.ParentID, err)
	}
	return page, nil
}

// Employees is the FetchFunc of a company's employee table.
func (a *API) Employees() pagination.FetchFunc[Employee] {
	return a.ListEmployees
}

// EmployeesNotIn is the FetchFunc of the add-employee picker.
func (a *API) EmployeesNotIn() pagination.FetchFunc[Employee] {
	return a.ListEmployeesNotIn
}

// CreateEmployee creates an employee inside a company.
func (a *API) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (Employee, error) {
	if err := Validate(&req); err != nil {
		return Employee{}, err
	}

	var emp Employee
	if err := a.c.DoJSON(withRoute(ctx, "employees.create"), http.MethodPost, "/employees", nil, req, &emp); err != nil {
		return Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return emp, nil
}

// UpdateEmployee changes an employee's details.
func (a *API) UpdateEmployee(ctx context.Context, id string, req UpdateEmployeeRequest) (Employee, error) {
	if id == "" {
		return Employee{}, &ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	if err := Validate(&req); err != nil {
		return Employee{}, err
	}

	var emp Employee
	path := "/employees/" + url.PathEscape(id)
	if err := a.c.DoJSON(withRoute(ctx, "employees.update"), http.MethodPatch, path, nil, req, &emp); err != nil {
		return Employee{}, fmt.Errorf("update employee %s: %w", id, err)
	}
	if emp.ID == "" {
		emp = Employee{ID: id, FirstName: req.FirstName, SurName: req.SurName, Email: req.Email, Position: req.Position}
	}
	return emp, nil
}

// AttachEmployee employs an existing employee at a company.
func (a *API) AttachEmployee(ctx context.Context, id string, req AttachEmployeeRequest) error {
	if id == "" {
		return &ValidationError{Fields: map[string]string{"id": "is required"}}
	}
	if err := Validate(&req); err != nil {
		return err
	}

	path := "/employees/" + url.PathEscape(id) + "/attach"
	if err := a.c.DoJSON(withRoute(ctx, "employees.attach"), http.MethodPatch, path, nil, req, nil); err != nil {
		return fmt.Errorf("attach employee %s: %w", id, err)
	}
	return nil
}

// DetachEmployee removes an employee from a company.
func (a *API) DetachEmployee(ctx context.Context, id, companyID string) error {
	fields := map[string]string{}
	if id == "" {
		fields["id"] = "is required"
	}
	if companyID == "" {
		fields["companyId"] = "is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	path := "/employees/" + url.PathEscape(id) + "/detach"
	body := detachEmployeeRequest{CompanyID: companyID}
	if err := a.c.DoJSON(withRoute(ctx, "employees.detach"), http.MethodPatch, path, nil, body, nil); err != nil {
		return fmt.Errorf("detach employee %s: %w", id, err)
	}
	return nil
}

// DeleteEmployee deletes an employee.
func (a *API) DeleteEmployee(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Fields: map[string]string{"id": "is required"}}
	}

	path := "/employees/" + url.PathEscape(id)
	if err := a.c.DoJSON(withRoute(ctx, "employees.delete"), http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete employee %s: %w", id, err)
	}
	return nil
}
