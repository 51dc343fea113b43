package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/igraph100/DW-Spectrum/internal/schedule"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

// Variables to hold flag values
var (
	outputFile  string
	streamIndex int
)

type cameraRow struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Model            string `json:"model,omitempty"`
	MAC              string `json:"mac,omitempty"`
	Online           bool   `json:"online"`
	RecordingEnabled bool   `json:"recording_enabled"`
	Mode             string `json:"mode,omitempty"`
	StreamBlocked    bool   `json:"stream_blocked"`
}

// Parent Command
var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Manage cameras",
	Long:  `List cameras, take snapshots, and control recording and stream access.`,
}

// List Command
var camerasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cameras",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustSession(ctx)
		defer s.close(ctx)

		var rows []cameraRow
		for _, cam := range s.inst.Cameras() {
			row := cameraRow{
				ID:               cam.ID,
				Name:             cam.DisplayName(),
				Model:            cam.Model,
				MAC:              cam.MAC(),
				Online:           s.inst.CameraAvailable(cam.ID),
				RecordingEnabled: !s.inst.RecordingDisabled(cam.ID),
				StreamBlocked:    s.inst.StreamBlocked(cam.ID),
			}
			if mode, ok := s.inst.ActiveMode(cam.ID); ok {
				row.Mode = string(mode)
			}
			rows = append(rows, row)
		}

		if jsonOutput {
			printJSON(rows)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMODEL\tONLINE\tRECORDING\tMODE\tBLOCKED")
		fmt.Fprintln(w, "--\t----\t-----\t------\t---------\t----\t-------")
		for _, r := range rows {
			mode := "-"
			if r.Mode != "" {
				mode = schedule.Mode(r.Mode).Label()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID,
				r.Name,
				r.Model,
				onOff(r.Online),
				onOff(r.RecordingEnabled),
				mode,
				onOff(r.StreamBlocked),
			)
		}
		w.Flush()
	},
}

// Status Command
var camerasStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the status fields the server reports for a camera",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustSession(ctx)
		defer s.close(ctx)

		requireCamera(s, args[0])
		status := s.inst.CameraStatus(args[0])

		if jsonOutput {
			printJSON(status)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE")
		fmt.Fprintln(w, "---\t-----")
		for _, k := range models.StatusKeys {
			if v, ok := status[k]; ok {
				fmt.Fprintf(w, "%s\t%s\n", k, v)
			}
		}
		w.Flush()
	},
}

// Snapshot Command
var camerasSnapshotCmd = &cobra.Command{
	Use:     "snapshot <id>",
	Short:   "Save the current JPEG thumbnail of a camera",
	Example: `  spectrum-cli cameras snapshot "{camera-id}" --output image.jpg`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustSession(ctx)
		defer s.close(ctx)

		fmt.Printf("Requesting snapshot for Camera ID: %s ...\n", args[0])

		img, err := s.inst.CameraImage(ctx, args[0])
		if err != nil {
			exitOnAPIError("Error getting snapshot", err)
		}
		if img == nil {
			fmt.Println("Stream is blocked for this camera, no snapshot taken.")
			return
		}

		if err := os.WriteFile(outputFile, img, 0o644); err != nil {
			fmt.Printf("Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Snapshot saved to %s\n", outputFile)
	},
}

// Stream URL Command
var camerasStreamURLCmd = &cobra.Command{
	Use:   "stream-url <id>",
	Short: "Print the RTSP address of a camera stream",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustSession(ctx)
		defer s.close(ctx)

		requireCamera(s, args[0])
		u := s.inst.StreamURL(args[0], streamIndex)
		if u == "" {
			fmt.Println("Stream is blocked for this camera.")
			os.Exit(1)
		}
		fmt.Println(u)
	},
}

// Mode Command
var camerasModeCmd = &cobra.Command{
	Use:   "mode <id> <always|motion_low|motion>",
	Short: "Set the recording mode of a camera",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		mode, err := schedule.ParseMode(args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		s := mustSession(ctx)
		defer s.close(ctx)

		if err := s.inst.SetRecordingMode(ctx, args[0], mode); err != nil {
			exitOnAPIError("Error setting recording mode", err)
		}
		fmt.Printf("Camera %s now records %s.\n", args[0], mode.Label())
	},
}

// Recording Command
var camerasRecordingCmd = &cobra.Command{
	Use:   "recording <id> <enable|disable>",
	Short: "Resume or stop recording on a camera",
	Long: `Disabling remembers the current recording mode. Enabling restores the
remembered mode, or records always when none is known.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		disable, err := parseSwitch(args[1], "disable", "enable")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		s := mustSession(ctx)
		defer s.close(ctx)

		if err := s.inst.SetRecordingDisabled(ctx, args[0], disable); err != nil {
			exitOnAPIError("Error updating recording", err)
		}
		if disable {
			fmt.Printf("Recording disabled on %s.\n", args[0])
			return
		}
		fmt.Printf("Recording enabled on %s.\n", args[0])
	},
}

// Block Stream Command
var camerasBlockCmd = &cobra.Command{
	Use:   "block-stream <id> <on|off>",
	Short: "Block or allow the live stream and snapshots of a camera",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		blocked, err := parseSwitch(args[1], "on", "off")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		// Local state only, the server is not contacted.
		s, err := openSession()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer s.close(context.Background())

		if err := s.inst.SetStreamBlocked(args[0], blocked); err != nil {
			fmt.Printf("Error saving stream block: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Stream blocked on %s: %s\n", args[0], onOff(blocked))
	},
}

func requireCamera(s *session, id string) {
	if _, ok := s.inst.Camera(id); !ok {
		fmt.Printf("Error: camera %s not found\n", id)
		s.close(context.Background())
		os.Exit(1)
	}
}

func parseSwitch(arg, yes, no string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case yes:
		return true, nil
	case no:
		return false, nil
	}
	return false, fmt.Errorf("expected %q or %q, got %q", yes, no, arg)
}

func init() {
	// Register Parent
	rootCmd.AddCommand(camerasCmd)

	// Register Subcommands
	camerasCmd.AddCommand(camerasListCmd)
	camerasCmd.AddCommand(camerasStatusCmd)
	camerasCmd.AddCommand(camerasSnapshotCmd)
	camerasCmd.AddCommand(camerasStreamURLCmd)
	camerasCmd.AddCommand(camerasModeCmd)
	camerasCmd.AddCommand(camerasRecordingCmd)
	camerasCmd.AddCommand(camerasBlockCmd)

	camerasSnapshotCmd.Flags().StringVar(&outputFile, "output", "snapshot.jpg", "Output filename")
	camerasStreamURLCmd.Flags().IntVar(&streamIndex, "stream", 0, "Stream index (0 primary, 1 secondary)")
}
