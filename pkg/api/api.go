// Package api is the typed client of the dashboard REST API: admins,
// companies and employees. Every call goes through the shared HTTP core in
// pkg/client, which supplies the bearer token of the current session.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Sternrassler/admin-dashboard/pkg/client"
	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
)

// API wraps the HTTP core with the dashboard endpoints.
type API struct {
	c *client.Client
}

// New creates an API on top of c.
func New(c *client.Client) *API {
	return &API{c: c}
}

// Client returns the underlying HTTP core.
func (a *API) Client() *client.Client {
	return a.c
}

func listParams(q pagination.Query) url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

func (a *API) list(ctx context.Context, route, path string, q pagination.Query, out any) error {
	if err := q.Validate(); err != nil {
		return err
	}
	return a.c.DoJSON(withRoute(ctx, route), http.MethodGet, path, listParams(q), nil, out)
}
