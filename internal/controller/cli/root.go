package cli

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/infrastructure"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	// BuildTime is set at build time.
	BuildTime = "unknown"
)

// EventsOpener connects to the workflow event stream; nil when Kafka is
// not configured.
type EventsOpener func(ctx context.Context, fromBeginning bool) (infrastructure.EventsReceiver, error)

// Deps are the use cases the commands drive.
type Deps struct {
	Gallery usecase.Gallery
	Resize  usecase.Resize
	History usecase.History
	Status  usecase.Status

	OpenEvents EventsOpener
}

// NewRootCmd builds the adminctl command tree.
func NewRootCmd(d Deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Manage images stored behind the image API",
		Long: `adminctl lists, uploads, deletes, downloads and resizes images through
the same use cases as the admin panel.

Configuration is read from the environment (and an optional .env file),
API_BASE_URL first of all.

Examples:
  # List images with their resolved URLs
  adminctl images list

  # Upload two files
  adminctl images upload ./cat.png ./dog.jpg

  # Resize and wait for the backend to finish
  adminctl resize cat.png --width 640 --height 480 --wait`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newImagesCmd(d))
	rootCmd.AddCommand(newResizeCmd(d))
	rootCmd.AddCommand(newWorkflowsCmd(d))
	rootCmd.AddCommand(newEventsCmd(d))
	rootCmd.AddCommand(newStatusCmd(d))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adminctl %s (built %s)\n", Version, BuildTime)
		},
	}
}

func newStatusCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe the image API",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := d.Status.Check(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "API %s", h.State)
			if h.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), ": %s", h.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout())

			if h.State != entity.BackendOnline {
				return fmt.Errorf("image API is %s", h.State)
			}

			return nil
		},
	}
}
