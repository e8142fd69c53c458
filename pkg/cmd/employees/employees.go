package employees

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/admin-dashboard/internal/state"
	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/cmd/cmdutil"
)

func NewCmdEmployees(p *state.Provider) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "employees",
		Aliases: []string{"employee", "e"},
		Short:   "List and manage the employees of a company",
	}

	cmd.AddCommand(
		newCmdList(p),
		newCmdCreate(p),
		newCmdUpdate(p),
		newCmdAttach(p),
		newCmdDetach(p),
		newCmdDelete(p),
	)
	return cmd
}

func newCmdList(p *state.Provider) *cobra.Command {
	var (
		flags     cmdutil.ListFlags
		companyID string
		available bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List employees of a company",
		Long: heredoc.Doc(`
			List the employees of a company one page at a time. With --available
			the employees that are not yet part of the company are listed.
		`),
		Example: heredoc.Doc(`
			$ dashboard employees list --company c1
			$ dashboard employees list --company c1 --search ada --offset 10
			$ dashboard employees list --company c1 --available --all --json
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}

			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			fetch := s.API.Employees()
			if available {
				fetch = s.API.EmployeesNotIn()
			}
			q := flags.Query(s, companyID)
			page, err := cmdutil.Fetch(ctx, fetch, flags, q)
			if err != nil {
				return err
			}

			if flags.JSON {
				return cmdutil.PrintJSON(cmd.OutOrStdout(), page)
			}

			rows := make([][]string, len(page.Data))
			for i, e := range page.Data {
				rows[i] = []string{e.ID, e.FullName(), e.Email, e.Position}
			}
			offset := q.Offset
			if flags.All {
				offset = 0
			}
			cmdutil.PrintTable(cmd.OutOrStdout(), []string{"ID", "Name", "Email", "Position"}, rows, len(rows), offset, page.Total)
			return nil
		},
	}

	cmdutil.AddListFlags(cmd, &flags)
	cmd.Flags().StringVarP(&companyID, "company", "c", "", "Company ID")
	cmd.Flags().BoolVar(&available, "available", false, "List employees not in the company")
	cmd.MarkFlagRequired("company")
	return cmd
}

type employeeFlags struct {
	companyID string
	firstName string
	surName   string
	email     string
	position  string
}

func (f *employeeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.companyID, "company", "c", "", "Company ID")
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&f.surName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&f.email, "email", "", "Email")
	cmd.Flags().StringVar(&f.position, "position", "", "Position in the company")
}

func newCmdCreate(p *state.Provider) *cobra.Command {
	var f employeeFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an employee in one of your companies",
		Example: heredoc.Doc(`
			$ dashboard employees create --company c1 --first-name Grace --last-name Hopper \
				--email grace@example.com --position Engineer
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			e, err := s.API.CreateEmployee(ctx, api.CreateEmployeeRequest{
				FirstName: f.firstName,
				SurName:   f.surName,
				Email:     f.email,
				CompanyID: f.companyID,
				Position:  f.position,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created employee %s (%s).\n", e.FullName(), e.ID)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newCmdUpdate(p *state.Provider) *cobra.Command {
	var f employeeFlags

	cmd := &cobra.Command{
		Use:   "update <employee-id>",
		Short: "Update an employee",
		Long: heredoc.Doc(`
			Update an employee. Name and email are always sent; the position is
			changed for the company given with --company.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			e, err := s.API.UpdateEmployee(ctx, args[0], api.UpdateEmployeeRequest{
				FirstName: f.firstName,
				SurName:   f.surName,
				Email:     f.email,
				CompanyID: f.companyID,
				Position:  f.position,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated employee %s (%s).\n", e.FullName(), e.ID)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newCmdAttach(p *state.Provider) *cobra.Command {
	var companyID, position string

	cmd := &cobra.Command{
		Use:   "attach <employee-id>",
		Short: "Add an existing employee to a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			err = s.API.AttachEmployee(ctx, args[0], api.AttachEmployeeRequest{CompanyID: companyID, Position: position})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added employee %s to company %s.\n", args[0], companyID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&companyID, "company", "c", "", "Company ID")
	cmd.Flags().StringVar(&position, "position", "", "Position in the company")
	return cmd
}

func newCmdDetach(p *state.Provider) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "detach <employee-id>",
		Short: "Remove an employee from a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			if err := s.API.DetachEmployee(ctx, args[0], companyID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed employee %s from company %s.\n", args[0], companyID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&companyID, "company", "c", "", "Company ID")
	cmd.MarkFlagRequired("company")
	return cmd
}

func newCmdDelete(p *state.Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <employee-id>",
		Short: "Delete an employee everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := cmdutil.LoggedIn(cmd, p)
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			if err := s.API.DeleteEmployee(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted employee %s.\n", args[0])
			return nil
		},
	}
}
