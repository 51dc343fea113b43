package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/igraph100/DW-Spectrum/internal/integration"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users with their inferred role",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustSession(ctx)
		defer s.close(ctx)

		var attrs []integration.UserAttributes
		for _, u := range s.inst.Users() {
			attrs = append(attrs, integration.Attributes(u))
		}

		if jsonOutput {
			printJSON(attrs)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE\tENABLED")
		fmt.Fprintln(w, "--\t--------\t----\t----\t-------")
		for _, a := range attrs {
			role := a.Role
			if role == "" {
				role = "-"
			}
			fmt.Fprintf(w, "%s\t%v\t%v\t%s\t%s\n",
				a.UserID,
				orDash(a.Username),
				orDash(a.FullName),
				role,
				onOff(a.Enabled),
			)
		}
		w.Flush()
	},
}

var usersEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a user",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { setUserEnabled(args[0], true) },
}

var usersDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a user",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { setUserEnabled(args[0], false) },
}

func setUserEnabled(id string, enabled bool) {
	ctx := context.Background()
	s, err := openSession()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer s.close(ctx)

	if err := s.inst.SetUserEnabled(ctx, id, enabled); err != nil {
		exitOnAPIError("Error updating user", err)
	}
	fmt.Printf("User %s enabled: %s\n", id, onOff(enabled))
}

func orDash(v any) any {
	if v == nil || v == "" {
		return "-"
	}
	return v
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersEnableCmd)
	usersCmd.AddCommand(usersDisableCmd)
}
