package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/igraph100/DW-Spectrum/internal/integration"
	"github.com/igraph100/DW-Spectrum/internal/license"
)

type serverInfo struct {
	Identity integration.ServerIdentity `json:"identity"`
	Cameras  *int                       `json:"cameras"`
	Licenses license.Counts             `json:"licenses"`
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Show server identity, camera count and license usage",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustSession(ctx)
		defer s.close(ctx)

		info := serverInfo{
			Identity: s.inst.ServerIdentity(),
			Licenses: s.inst.Licenses(),
		}
		if n, ok := s.inst.CameraCount(); ok {
			info.Cameras = &n
		}

		if jsonOutput {
			printJSON(info)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "ID\t%s\n", info.Identity.ID)
		fmt.Fprintf(w, "NAME\t%s\n", info.Identity.Name)
		fmt.Fprintf(w, "CAMERAS\t%s\n", intOrDash(info.Cameras))
		fmt.Fprintf(w, "LICENSES TOTAL\t%s\n", intOrDash(info.Licenses.Total))
		fmt.Fprintf(w, "LICENSES USED\t%s\n", intOrDash(info.Licenses.Used))
		fmt.Fprintf(w, "LICENSES AVAILABLE\t%s\n", intOrDash(info.Licenses.Available))
		w.Flush()
	},
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
