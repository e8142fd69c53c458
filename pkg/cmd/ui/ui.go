package ui

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/admin-dashboard/internal/state"
	"github.com/Sternrassler/admin-dashboard/internal/tui"
)

func NewCmdUI(p *state.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive dashboard",
		Long: heredoc.Doc(`
			Open the full-screen dashboard: your companies on the left, the
			employees of the selected company on the right. If no session is
			stored the login form is shown first.

			Logs are written to log_file while the dashboard runs.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := p.Get(state.Options{LogToFile: true})
			if err != nil {
				return err
			}
			return tui.Run(s)
		},
	}
}
