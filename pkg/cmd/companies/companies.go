package companies

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/admin-dashboard/internal/state"
	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/cmd/cmdutil"
)

func NewCmdCompanies(p *state.Provider) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "companies",
		Aliases: []string{"company", "c"},
		Short:   "List and manage companies",
	}

	cmd.AddCommand(
		newCmdList(p),
		newCmdCreate(p),
		newCmdAttach(p),
		newCmdDetach(p),
	)
	return cmd
}

func newCmdList(p *state.Provider) *cobra.Command {
	var (
		flags    cmdutil.ListFlags
		scopeArg string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List companies",
		Long: heredoc.Doc(`
			List companies. By default only the companies attached to you are
			shown; --scope available lists the ones you can still add.
		`),
		Example: heredoc.Doc(`
			$ dashboard companies list
			$ dashboard companies list --scope available --all
			$ dashboard companies list --limit 5 --offset 10 --json
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(scopeArg)
			if err != nil {
				return err
			}

			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}

			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			q := flags.Query(s, "")
			page, err := cmdutil.Fetch(ctx, s.API.Companies(scope), flags, q)
			if err != nil {
				return err
			}

			if flags.JSON {
				return cmdutil.PrintJSON(cmd.OutOrStdout(), page)
			}

			rows := make([][]string, len(page.Data))
			for i, c := range page.Data {
				rows[i] = []string{c.ID, c.Name, string(c.Status)}
			}
			offset := q.Offset
			if flags.All {
				offset = 0
			}
			cmdutil.PrintTable(cmd.OutOrStdout(), []string{"ID", "Name", "Status"}, rows, len(rows), offset, page.Total)
			return nil
		},
	}

	cmdutil.AddListFlags(cmd, &flags)
	cmd.Flags().StringVar(&scopeArg, "scope", "mine", "Which companies to list: mine, available or all")
	return cmd
}

func parseScope(s string) (api.CompanyScope, error) {
	switch s {
	case "mine", "included":
		return api.ScopeIncluded, nil
	case "available", "excluded":
		return api.ScopeExcluded, nil
	case "all":
		return api.ScopeAll, nil
	}
	return "", fmt.Errorf("unknown scope %q (want mine, available or all)", s)
}

func newCmdCreate(p *state.Provider) *cobra.Command {
	return &cobra.Command{
		Use:     "create <name>",
		Short:   "Create a company you own",
		Args:    cobra.ExactArgs(1),
		Example: `$ dashboard companies create "Acme Corp"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			c, err := s.API.CreateCompany(ctx, api.CreateCompanyRequest{Name: args[0]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created company %s (%s).\n", c.Name, c.ID)
			return nil
		},
	}
}

func newCmdAttach(p *state.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <company-id>",
		Short: "Add an existing company to your list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			c, err := s.API.AttachCompany(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Attached company %s (%s).\n", c.Name, c.ID)
			return nil
		},
	}
}

func newCmdDetach(p *state.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "detach <company-id>",
		Short: "Remove a company from your list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			if err := s.API.DetachCompany(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Detached company %s.\n", args[0])
			return nil
		},
	}
}
