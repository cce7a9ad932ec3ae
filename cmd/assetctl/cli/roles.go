package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/rbac"
)

func newRolesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List roles and the permissions each one grants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg := rbac.RegistryFromConfig(cfg.Roles)

			type roleRow struct {
				Role        string   `json:"role"`
				Permissions []string `json:"permissions"`
			}
			rows := make([]roleRow, 0)
			for _, role := range reg.Roles() {
				rows = append(rows, roleRow{Role: role, Permissions: reg.PermissionsFor(role).Slice()})
			}

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), rows)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROLE\tPERMISSIONS")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\n", r.Role, joinOrNone(r.Permissions))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
