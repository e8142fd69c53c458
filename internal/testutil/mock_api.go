// Package testutil provides an in-memory fake of the dashboard REST API
// for tests.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Route names reported by Calls.
const (
	RouteProfile          = "admins.profile"
	RouteLogin            = "admins.login"
	RouteSignUp           = "admins.sign_up"
	RouteAttachCompany    = "admins.attach"
	RouteDetachCompany    = "admins.detach"
	RouteCompanies        = "companies.list"
	RouteCompaniesInclude = "companies.include"
	RouteCompaniesExclude = "companies.exclude"
	RouteCreateCompany    = "companies.create"
	RouteEmployees        = "employees.list"
	RouteEmployeesNotIn   = "employees.not_in"
	RouteCreateEmployee   = "employees.create"
	RouteUpdateEmployee   = "employees.update"
	RouteAttachEmployee   = "employees.attach"
	RouteDetachEmployee   = "employees.detach"
	RouteDeleteEmployee   = "employees.delete"
)

type adminRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	password string
}

type companyRecord struct {
	ID      string
	Name    string
	OwnerID string
}

type employeeRecord struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	SurName   string `json:"surName"`
	Email     string `json:"email"`
}

// MockAPI is a fake REST backend holding admins, companies and employees.
type MockAPI struct {
	server *httptest.Server
	router *mux.Router

	mu          sync.Mutex
	nextID      int
	admins      map[string]*adminRecord // by id
	tokens      map[string]string       // token -> admin id
	companies   map[string]*companyRecord
	attached    map[string]map[string]bool   // admin id -> company ids
	employees   map[string]*employeeRecord   // by id
	employments map[string]map[string]string // company id -> employee id -> position

	calls       map[string]int
	queries     map[string][]url.Values
	bodies      map[string][]map[string]any
	overrides   map[string]MockResponse
	gates       map[string]chan struct{}
	conditional int
	lastHeader  http.Header
}

// NewMockAPI starts a fake API server.
func NewMockAPI() *MockAPI {
	m := &MockAPI{
		admins:      make(map[string]*adminRecord),
		tokens:      make(map[string]string),
		companies:   make(map[string]*companyRecord),
		attached:    make(map[string]map[string]bool),
		employees:   make(map[string]*employeeRecord),
		employments: make(map[string]map[string]string),
		calls:       make(map[string]int),
		queries:     make(map[string][]url.Values),
		bodies:      make(map[string][]map[string]any),
		overrides:   make(map[string]MockResponse),
		gates:       make(map[string]chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/admins", m.authed(m.profile)).Methods(http.MethodGet).Name(RouteProfile)
	r.HandleFunc("/admins/login", m.login).Methods(http.MethodPost).Name(RouteLogin)
	r.HandleFunc("/admins/sign-up", m.signUp).Methods(http.MethodPost).Name(RouteSignUp)
	r.HandleFunc("/admins/{id}/attach", m.authed(m.attachCompany)).Methods(http.MethodPatch).Name(RouteAttachCompany)
	r.HandleFunc("/admins/{id}/detach", m.authed(m.detachCompany)).Methods(http.MethodPatch).Name(RouteDetachCompany)

	r.HandleFunc("/companies", m.authed(m.listCompanies(""))).Methods(http.MethodGet).Name(RouteCompanies)
	r.HandleFunc("/companies/admin-include", m.authed(m.listCompanies("include"))).Methods(http.MethodGet).Name(RouteCompaniesInclude)
	r.HandleFunc("/companies/admin-exclude", m.authed(m.listCompanies("exclude"))).Methods(http.MethodGet).Name(RouteCompaniesExclude)
	r.HandleFunc("/companies", m.authed(m.createCompany)).Methods(http.MethodPost).Name(RouteCreateCompany)

	r.HandleFunc("/employees", m.authed(m.createEmployee)).Methods(http.MethodPost).Name(RouteCreateEmployee)
	r.HandleFunc("/employees/{id}/not-in", m.authed(m.listEmployees(true))).Methods(http.MethodGet).Name(RouteEmployeesNotIn)
	r.HandleFunc("/employees/{id}/attach", m.authed(m.attachEmployee)).Methods(http.MethodPatch).Name(RouteAttachEmployee)
	r.HandleFunc("/employees/{id}/detach", m.authed(m.detachEmployee)).Methods(http.MethodPatch).Name(RouteDetachEmployee)
	r.HandleFunc("/employees/{id}", m.authed(m.listEmployees(false))).Methods(http.MethodGet).Name(RouteEmployees)
	r.HandleFunc("/employees/{id}", m.authed(m.updateEmployee)).Methods(http.MethodPatch).Name(RouteUpdateEmployee)
	r.HandleFunc("/employees/{id}", m.authed(m.deleteEmployee)).Methods(http.MethodDelete).Name(RouteDeleteEmployee)

	r.Use(m.track)
	m.router = r
	m.server = httptest.NewServer(r)
	return m
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.mu.Lock()
	for name, gate := range m.gates {
		close(gate)
		delete(m.gates, name)
	}
	m.mu.Unlock()
	m.server.Close()
}

// ResetCounters clears all tracking counters.
func (m *MockAPI) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
	m.queries = make(map[string][]url.Values)
	m.bodies = make(map[string][]map[string]any)
	m.conditional = 0
	m.lastHeader = nil
}

// Calls returns how many requests hit a route.
func (m *MockAPI) Calls(route string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[route]
}

// Queries returns the query strings received by a route, in order.
func (m *MockAPI) Queries(route string) []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]url.Values(nil), m.queries[route]...)
}

// Bodies returns the decoded JSON bodies received by a route, in order.
func (m *MockAPI) Bodies(route string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]any(nil), m.bodies[route]...)
}

// ConditionalCount returns the number of requests carrying If-None-Match.
func (m *MockAPI) ConditionalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conditional
}

// LastRequestHeader returns the headers of the latest request.
func (m *MockAPI) LastRequestHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeader.Clone()
}

// SetResponse makes a route answer with resp until ClearResponse.
func (m *MockAPI) SetResponse(route string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[route] = resp
}

// ClearResponse restores the default behaviour of a route.
func (m *MockAPI) ClearResponse(route string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, route)
}

// Hold makes requests to route block until the returned release func is
// called (or the server closes).
func (m *MockAPI) Hold(route string) (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gates[route] = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.gates[route] == gate {
				delete(m.gates, route)
				close(gate)
			}
			m.mu.Unlock()
		})
	}
}

// AddAdmin registers an admin and returns it with a valid token.
func (m *MockAPI) AddAdmin(username, email, password string) (id, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.addAdminLocked(username, email, password)
	return a.ID, m.issueTokenLocked(a.ID)
}

// AddCompany creates a company. With ownerID it is created by (and attached
// to) that admin; otherwise it belongs to nobody.
func (m *MockAPI) AddCompany(name, ownerID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &companyRecord{ID: m.newIDLocked("c"), Name: name, OwnerID: ownerID}
	m.companies[c.ID] = c
	if ownerID != "" {
		m.attachLocked(ownerID, c.ID)
	}
	return c.ID
}

// AttachCompany attaches an existing company to an admin.
func (m *MockAPI) AttachCompany(adminID, companyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachLocked(adminID, companyID)
}

// AddEmployee creates an employee, employed at companyID when non-empty.
func (m *MockAPI) AddEmployee(companyID, firstName, surName, email, position string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &employeeRecord{ID: m.newIDLocked("e"), FirstName: firstName, SurName: surName, Email: email}
	m.employees[e.ID] = e
	if companyID != "" {
		m.employLocked(companyID, e.ID, position)
	}
	return e.ID
}

// EmployeeCount returns how many employees a company has.
func (m *MockAPI) EmployeeCount(companyID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.employments[companyID])
}

// IsAttached reports whether a company is attached to an admin.
func (m *MockAPI) IsAttached(adminID, companyID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached[adminID][companyID]
}

func (m *MockAPI) newIDLocked(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s%d", prefix, m.nextID)
}

func (m *MockAPI) addAdminLocked(username, email, password string) *adminRecord {
	a := &adminRecord{ID: m.newIDLocked("a"), Username: username, Email: email, password: password}
	m.admins[a.ID] = a
	return a
}

func (m *MockAPI) issueTokenLocked(adminID string) string {
	token := fmt.Sprintf("token-%s-%d", adminID, time.Now().UnixNano())
	m.tokens[token] = adminID
	return token
}

func (m *MockAPI) attachLocked(adminID, companyID string) {
	if m.attached[adminID] == nil {
		m.attached[adminID] = make(map[string]bool)
	}
	m.attached[adminID][companyID] = true
}

func (m *MockAPI) employLocked(companyID, employeeID, position string) {
	if m.employments[companyID] == nil {
		m.employments[companyID] = make(map[string]string)
	}
	m.employments[companyID][employeeID] = position
}

// track counts requests, applies overrides and gates.
func (m *MockAPI) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		var body map[string]any
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
			r.Body.Close()
			r.Body = http.NoBody
		}

		m.mu.Lock()
		m.calls[name]++
		m.queries[name] = append(m.queries[name], r.URL.Query())
		if body != nil {
			m.bodies[name] = append(m.bodies[name], body)
		}
		if r.Header.Get("If-None-Match") != "" {
			m.conditional++
		}
		m.lastHeader = r.Header.Clone()
		override, hasOverride := m.overrides[name]
		gate := m.gates[name]
		m.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("X-RateLimit-Remaining", "1000")
		w.Header().Set("X-RateLimit-Reset", "60")

		if hasOverride {
			override.write(w)
			return
		}

		next.ServeHTTP(w, withBody(r, body))
	})
}

type bodyKey struct{}

func withBody(r *http.Request, body map[string]any) *http.Request {
	if body == nil {
		body = map[string]any{}
	}
	return r.WithContext(context.WithValue(r.Context(), bodyKey{}, body))
}

func bodyFrom(r *http.Request) map[string]any {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	return body
}

// authed resolves the bearer token to an admin id.
func (m *MockAPI) authed(h func(w http.ResponseWriter, r *http.Request, adminID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		m.mu.Lock()
		adminID, known := m.tokens[token]
		m.mu.Unlock()
		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		h(w, r, adminID)
	}
}

func (m *MockAPI) profile(w http.ResponseWriter, r *http.Request, adminID string) {
	m.mu.Lock()
	a := *m.admins[adminID]
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, a)
}

func (m *MockAPI) login(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r)
	email, password := str(body, "email"), str(body, "password")

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Email == email && a.password == password {
			writeJSON(w, http.StatusOK, authResponse(*a, m.issueTokenLocked(a.ID)))
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
}

func (m *MockAPI) signUp(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r)
	username, email, password := str(body, "username"), str(body, "email"), str(body, "password")
	if username == "" || email == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": []string{"username, email and password are required"}})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Email == email {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already registered"})
			return
		}
	}
	a := m.addAdminLocked(username, email, password)
	writeJSON(w, http.StatusCreated, authResponse(*a, m.issueTokenLocked(a.ID)))
}

func authResponse(a adminRecord, token string) map[string]any {
	return map[string]any{
		"admin": a,
		"tokens": map[string]any{
			"accessToken": map[string]any{"token": token},
		},
	}
}

func (m *MockAPI) attachCompany(w http.ResponseWriter, r *http.Request, adminID string) {
	id := mux.Vars(r)["id"]
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Company not found"})
		return
	}
	m.attachLocked(adminID, id)
	c := m.companies[id]
	status := "default"
	if c.OwnerID == adminID {
		status = "created"
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": c.ID, "name": c.Name, "status": status})
}

func (m *MockAPI) detachCompany(w http.ResponseWriter, r *http.Request, adminID string) {
	id := mux.Vars(r)["id"]
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.attached[adminID][id] {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Company not attached"})
		return
	}
	delete(m.attached[adminID], id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockAPI) listCompanies(scope string) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, adminID string) {
		search := strings.ToLower(r.URL.Query().Get("search"))

		m.mu.Lock()
		var out []map[string]any
		for _, c := range m.companies {
			attached := m.attached[adminID][c.ID]
			if (scope == "include" && !attached) || (scope == "exclude" && attached) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
				continue
			}
			item := map[string]any{"id": c.ID, "name": c.Name}
			if scope == "include" {
				status := "default"
				if c.OwnerID == adminID {
					status = "created"
				}
				item["status"] = status
			}
			out = append(out, item)
		}
		m.mu.Unlock()

		sort.Slice(out, func(i, j int) bool {
			a, b := out[i]["name"].(string), out[j]["name"].(string)
			if a == b {
				return out[i]["id"].(string) < out[j]["id"].(string)
			}
			return a < b
		})
		writePage(w, r, out)
	}
}

func (m *MockAPI) createCompany(w http.ResponseWriter, r *http.Request, adminID string) {
	name := strings.TrimSpace(str(bodyFrom(r), "name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": []string{"name should not be empty"}})
		return
	}

	m.mu.Lock()
	c := &companyRecord{ID: m.newIDLocked("c"), Name: name, OwnerID: adminID}
	m.companies[c.ID] = c
	m.attachLocked(adminID, c.ID)
	m.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"id": c.ID, "name": c.Name, "status": "created"})
}

func (m *MockAPI) listEmployees(notIn bool) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, _ string) {
		companyID := mux.Vars(r)["id"]
		search := strings.ToLower(r.URL.Query().Get("search"))

		m.mu.Lock()
		if _, ok := m.companies[companyID]; !ok {
			m.mu.Unlock()
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Company not found"})
			return
		}
		employed := m.employments[companyID]
		var out []map[string]any
		for _, e := range m.employees {
			position, in := employed[e.ID]
			if in == notIn {
				continue
			}
			full := strings.ToLower(e.FirstName + " " + e.SurName + " " + e.Email)
			if search != "" && !strings.Contains(full, search) {
				continue
			}
			item := map[string]any{"id": e.ID, "firstName": e.FirstName, "surName": e.SurName, "email": e.Email}
			if in {
				item["position"] = position
			}
			out = append(out, item)
		}
		m.mu.Unlock()

		sort.Slice(out, func(i, j int) bool {
			a, b := idNumber(out[i]["id"].(string)), idNumber(out[j]["id"].(string))
			return a < b
		})
		writePage(w, r, out)
	}
}

func (m *MockAPI) createEmployee(w http.ResponseWriter, r *http.Request, _ string) {
	body := bodyFrom(r)
	first, sur, email := str(body, "firstName"), str(body, "surName"), str(body, "email")
	companyID, position := str(body, "companyId"), str(body, "position")
	if first == "" || sur == "" || email == "" || companyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": []string{"firstName, surName, email and companyId are required"}})
		return
	}

	m.mu.Lock()
	if _, ok := m.companies[companyID]; !ok {
		m.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Company not found"})
		return
	}
	e := &employeeRecord{ID: m.newIDLocked("e"), FirstName: first, SurName: sur, Email: email}
	m.employees[e.ID] = e
	m.employLocked(companyID, e.ID, position)
	out := map[string]any{"id": e.ID, "firstName": first, "surName": sur, "email": email, "position": position}
	m.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (m *MockAPI) updateEmployee(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]
	body := bodyFrom(r)

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Employee not found"})
		return
	}
	if v := str(body, "firstName"); v != "" {
		e.FirstName = v
	}
	if v := str(body, "surName"); v != "" {
		e.SurName = v
	}
	if v := str(body, "email"); v != "" {
		e.Email = v
	}
	out := map[string]any{"id": e.ID, "firstName": e.FirstName, "surName": e.SurName, "email": e.Email}
	if companyID := str(body, "companyId"); companyID != "" {
		if _, employed := m.employments[companyID][id]; employed {
			if v := str(body, "position"); v != "" {
				m.employments[companyID][id] = v
			}
			out["position"] = m.employments[companyID][id]
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *MockAPI) attachEmployee(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]
	body := bodyFrom(r)
	companyID, position := str(body, "companyId"), str(body, "position")

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Employee not found"})
		return
	}
	if _, ok := m.companies[companyID]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Company not found"})
		return
	}
	m.employLocked(companyID, id, position)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockAPI) detachEmployee(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]
	companyID := str(bodyFrom(r), "companyId")

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employments[companyID][id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Employee not in company"})
		return
	}
	delete(m.employments[companyID], id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *MockAPI) deleteEmployee(w http.ResponseWriter, r *http.Request, _ string) {
	id := mux.Vars(r)["id"]

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Employee not found"})
		return
	}
	delete(m.employees, id)
	for _, employed := range m.employments {
		delete(employed, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// writePage slices items by limit/offset and answers with an ETag.
func writePage(w http.ResponseWriter, r *http.Request, items []map[string]any) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	page := []map[string]any{}
	if offset < len(items) {
		page = items[offset:min(offset+limit, len(items))]
	}

	body, _ := json.Marshal(map[string]any{"data": page, "total": len(items)})
	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=60")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func str(body map[string]any, key string) string {
	s, _ := body[key].(string)
	return s
}

func idNumber(id string) int {
	n, _ := strconv.Atoi(strings.TrimLeft(id, "ace"))
	return n
}
