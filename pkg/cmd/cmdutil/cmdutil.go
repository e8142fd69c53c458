// Package cmdutil holds helpers shared by the CLI commands.
package cmdutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/admin-dashboard/internal/state"
	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
)

// RequestTimeout bounds a single CLI command.
const RequestTimeout = 60 * time.Second

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// ListFlags are the paging flags of list commands.
type ListFlags struct {
	Search string
	Limit  int
	Offset int
	All    bool
	JSON   bool
}

// AddListFlags registers the paging flags on cmd.
func AddListFlags(cmd *cobra.Command, f *ListFlags) {
	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "Only show matching entries")
	cmd.Flags().IntVarP(&f.Limit, "limit", "l", 0, "Page size (defaults to page_size from the config)")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "Number of entries to skip")
	cmd.Flags().BoolVarP(&f.All, "all", "a", false, "Fetch every page")
	cmd.Flags().BoolVar(&f.JSON, "json", false, "Print JSON")
}

// Query builds the page query for parentID.
func (f ListFlags) Query(s *state.State, parentID string) pagination.Query {
	limit := f.Limit
	if limit <= 0 {
		limit = s.PageSize()
	}
	return pagination.Query{ParentID: parentID, Search: f.Search, Limit: limit, Offset: f.Offset}
}

// Fetch loads one page, or every page with --all.
func Fetch[T any](ctx context.Context, fetch pagination.FetchFunc[T], f ListFlags, q pagination.Query) (pagination.Page[T], error) {
	if !f.All {
		return fetch(ctx, q)
	}
	items, total, err := pagination.FetchAll(ctx, fetch, q, pagination.DefaultBatchConfig())
	if err != nil {
		return pagination.Page[T]{}, err
	}
	return pagination.Page[T]{Data: items, Total: total}, nil
}

// LoggedIn resolves State for cmd and restores the session.
func LoggedIn(cmd *cobra.Command, p *state.Provider) (*state.State, api.Admin, error) {
	s, err := p.Get(state.Options{})
	if err != nil {
		return nil, api.Admin{}, err
	}
	admin, err := s.RequireLogin(cmd.Context())
	if err != nil {
		return nil, api.Admin{}, err
	}
	return s, admin, nil
}

// Context derives the per-command context.
func Context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, RequestTimeout)
}

// PrintJSON writes v indented.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTable renders rows with a header and a paging footer.
func PrintTable(w io.Writer, headers []string, rows [][]string, shown, offset, total int) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == 0 { // header
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())

	if shown == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	fmt.Fprintf(w, "Showing %d-%d of %d\n", offset+1, offset+shown, total)
}
