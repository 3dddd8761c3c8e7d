package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/entity"
	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/gallery"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const (
	_spinnerRefresh      = 200 * time.Millisecond
	_defaultHistoryLimit = 20
)

func newResizeCmd(d Deps) *cobra.Command {
	var (
		width, height int
		wait          bool
	)

	cmd := &cobra.Command{
		Use:   "resize FILENAME",
		Short: "Start a resize job",
		Long: `Submit a resize job for an image. Dimensions missing from the flags
default to half of the original ones (500 when the original is unknown).
With --wait the command follows the job until it completes, fails or
times out; interrupting it stops observing and leaves the job running.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !cmd.Flags().Changed("width") || !cmd.Flags().Changed("height") {
				w, h, err := suggestedSize(cmd.Context(), d, name)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("width") {
					width = w
				}
				if !cmd.Flags().Changed("height") {
					height = h
				}
			}

			wf, err := d.Resize.Start(cmd.Context(), name, width, height)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "workflow %s: %s %dx%d\n", wf.ID, name, width, height)

			if wait && !wf.State.Terminal() {
				wf, err = follow(cmd.Context(), d, wf.ID, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			return report(cmd.OutOrStdout(), wf)
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "target width in pixels (1-5000)")
	cmd.Flags().IntVar(&height, "height", 0, "target height in pixels (1-5000)")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the job to finish")

	return cmd
}

func suggestedSize(ctx context.Context, d Deps, name string) (int, int, error) {
	if _, err := d.Gallery.Refresh(ctx); err != nil {
		return 0, 0, fmt.Errorf("list images: %w", err)
	}

	rec, ok := d.Gallery.Record(name)
	if !ok {
		return 0, 0, fmt.Errorf("%s: not in the image list, pass --width and --height", name)
	}

	w, h := gallery.DefaultResize(rec)

	return w, h, nil
}

// follow shows a spinner until the workflow stops being observed. On
// interrupt the workflow is dismissed.
func follow(ctx context.Context, d Deps, id uuid.UUID, out io.Writer) (entity.ResizeWorkflow, error) {
	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("processing"),
	)
	defer func() {
		_ = bar.Exit()
		fmt.Fprintln(out)
	}()

	done := make(chan struct{})
	var (
		wf  entity.ResizeWorkflow
		err error
	)
	go func() {
		defer close(done)
		wf, err = d.Resize.Wait(ctx, id)
	}()

	ticker := time.NewTicker(_spinnerRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			if errors.Is(err, context.Canceled) {
				wf, _ = d.Resize.Dismiss(id)

				return wf, nil
			}

			return wf, err
		case <-ticker.C:
			if cur, gerr := d.Resize.Get(id); gerr == nil {
				bar.Describe(fmt.Sprintf("%s (%d checks)", cur.State, cur.Polls))
			}
			_ = bar.Add(1)
		}
	}
}

func report(out io.Writer, wf entity.ResizeWorkflow) error {
	switch {
	case wf.Dismissed:
		fmt.Fprintf(out, "stopped watching in state %s; the job may still finish\n", wf.State)
	case wf.State == entity.StateCompleted:
		fmt.Fprintf(out, "resized %s to %dx%d\n", wf.Filename, wf.Width, wf.Height)
	case wf.State.Terminal():
		return fmt.Errorf("%s: %s", wf.State, wf.Message)
	default:
		fmt.Fprintf(out, "state %s, task %s\n", wf.State, wf.TaskID)
	}

	return nil
}

func newWorkflowsCmd(d Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflows",
		Aliases: []string{"wf"},
		Short:   "Inspect resize workflow history",
	}

	cmd.AddCommand(newWorkflowsListCmd(d))
	cmd.AddCommand(newWorkflowsGetCmd(d))

	return cmd
}

func newWorkflowsListCmd(d Deps) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			wfs, err := d.History.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list workflows: %w", err)
			}

			if len(wfs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workflows.")

				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tIMAGE\tSIZE\tSTATE\tCHECKS\tUPDATED")
			for _, wf := range wfs {
				state := string(wf.State)
				if wf.Dismissed {
					state += " (dismissed)"
				}

				fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%s\t%s\n",
					wf.ID, wf.Filename, wf.Width, wf.Height, state,
					strconv.Itoa(wf.Polls), gallery.FormatDate(wf.UpdatedAt, true))
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", _defaultHistoryLimit, "number of workflows to show")

	return cmd
}

func newWorkflowsGetCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid workflow id %q", args[0])
			}

			wf, err := d.History.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:       %s\n", wf.ID)
			fmt.Fprintf(out, "image:    %s\n", wf.Filename)
			fmt.Fprintf(out, "size:     %dx%d\n", wf.Width, wf.Height)
			fmt.Fprintf(out, "state:    %s\n", wf.State)
			if wf.Message != "" {
				fmt.Fprintf(out, "message:  %s\n", wf.Message)
			}
			if wf.TaskID != "" {
				fmt.Fprintf(out, "task:     %s\n", wf.TaskID)
			}
			fmt.Fprintf(out, "checks:   %d\n", wf.Polls)
			fmt.Fprintf(out, "created:  %s\n", gallery.FormatDate(wf.CreatedAt, true))
			if wf.FinishedAt != nil {
				fmt.Fprintf(out, "finished: %s\n", gallery.FormatDate(*wf.FinishedAt, true))
			}

			return nil
		},
	}
}
