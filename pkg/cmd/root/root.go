package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sternrassler/admin-dashboard/internal/config"
	"github.com/Sternrassler/admin-dashboard/internal/state"
	"github.com/Sternrassler/admin-dashboard/pkg/cmd/auth"
	"github.com/Sternrassler/admin-dashboard/pkg/cmd/companies"
	"github.com/Sternrassler/admin-dashboard/pkg/cmd/employees"
	"github.com/Sternrassler/admin-dashboard/pkg/cmd/ui"
)

// NewCmdRoot builds the command tree. v receives flag bindings; build
// creates State once the flags are parsed (nil uses config.Load + state.New).
func NewCmdRoot(v *viper.Viper, build state.BuildFunc) *cobra.Command {
	var cfgFile string

	if build == nil {
		build = func(opts state.Options) (*state.State, error) {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return nil, err
			}
			return state.New(cfg, opts)
		}
	}
	p := state.NewProvider(build)

	uiCmd := ui.NewCmdUI(p)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Manage companies and their employees",
		Long: heredoc.Doc(`
			Admin dashboard for the company API. Run without a command to open
			the interactive dashboard, or use the commands below for scripting.

			Configuration is read from $XDG_CONFIG_HOME/admin-dashboard/config.yaml
			and DASHBOARD_* environment variables.
		`),
		Example: heredoc.Doc(`
			$ dashboard
			$ dashboard auth login --email ada@example.com --password secret
			$ dashboard companies list --all
			$ dashboard employees list --company c1 --search grace
		`),
		SilenceUsage: true,
		RunE:         uiCmd.RunE,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return p.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default is $XDG_CONFIG_HOME/admin-dashboard/config.yaml)")
	flags.String("api-url", "", "Base URL of the admin API")
	flags.String("log-level", "", "Log level: debug, info, warn, error or disabled")
	flags.Int("page-size", 0, "Entries per page")
	v.BindPFlag(config.KeyAPIURL, flags.Lookup("api-url"))
	v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	v.BindPFlag(config.KeyPageSize, flags.Lookup("page-size"))

	cmd.AddCommand(
		auth.NewCmdAuth(p),
		companies.NewCmdCompanies(p),
		employees.NewCmdEmployees(p),
		uiCmd,
	)
	return cmd
}
