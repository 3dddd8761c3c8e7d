package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/resolver"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const _resolveConcurrency = 4

func newImagesCmd(d Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"img"},
		Short:   "List and manage images",
	}

	cmd.AddCommand(newImagesListCmd(d))
	cmd.AddCommand(newImagesUploadCmd(d))
	cmd.AddCommand(newImagesDeleteCmd(d))
	cmd.AddCommand(newImagesDownloadCmd(d))
	cmd.AddCommand(newImagesURLCmd(d))

	return cmd
}

func newImagesListCmd(d Deps) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List images with their thumbnail URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := d.Gallery.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list images: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(items)
			}

			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No images.")

				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tCREATED\tDIMENSIONS\tTHUMBNAIL")

			for _, it := range items {
				dims := "N/A"
				if it.Width > 0 && it.Height > 0 {
					dims = fmt.Sprintf("%dx%d", it.Width, it.Height)
				}

				thumb := it.ThumbnailURL
				if it.Placeholder {
					thumb = "-"
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.Filename, it.SizeLabel, it.CreatedLabel, dims, thumb)
			}

			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print items as JSON")

	return cmd
}

func newImagesUploadCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := uploadFile(cmd, d, path); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func uploadFile(cmd *cobra.Command, d Deps, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	name := filepath.Base(path)

	contentType, err := detectContentType(f, name)
	if err != nil {
		return err
	}

	// checked up front so a rejected file never draws a progress bar
	if err := d.Gallery.ValidateUpload(contentType, info.Size()); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	bar := progressbar.NewOptions64(
		info.Size(),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("uploading "+name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	_, err = d.Gallery.Upload(cmd.Context(), name, contentType, info.Size(), io.TeeReader(f, bar))
	if err != nil {
		_ = bar.Exit()

		return fmt.Errorf("%s: %w", name, err)
	}

	_ = bar.Finish()
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", name)

	return nil
}

// detectContentType prefers the extension and sniffs the content when it
// says nothing. f is rewound afterwards.
func detectContentType(f *os.File, name string) (string, error) {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct, nil
	}

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return http.DetectContentType(head[:n]), nil
}

func newImagesDeleteCmd(d Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete FILENAME...",
		Aliases: []string{"rm"},
		Short:   "Delete images",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if _, err := d.Gallery.Delete(cmd.Context(), name); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
			}

			return nil
		},
	}
}

func newImagesDownloadCmd(d Deps) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download FILENAME",
		Short: "Download the original image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if output == "" {
				output = filepath.Base(name)
			}

			body, _, err := d.Gallery.Download(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			defer body.Close()

			f, err := os.Create(output)
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions64(
				-1,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("downloading "+name),
				progressbar.OptionShowBytes(true),
			)

			_, err = io.Copy(io.MultiWriter(f, bar), body)
			_ = bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())

			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(output)

				return fmt.Errorf("%s: %w", name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default: the image name)")

	return cmd
}

func newImagesURLCmd(d Deps) *cobra.Command {
	var prefer string

	cmd := &cobra.Command{
		Use:   "url FILENAME...",
		Short: "Resolve displayable URLs",
		Long: `Resolve a displayable URL for each image, walking the configured source
chain. --prefer picks the first source: proxy, signed or thumbnail.
Without it the full-view chain is used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type resolved struct {
				url string
				src resolver.Source
				err error
			}
			out := make([]resolved, len(args))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(_resolveConcurrency)

			for i, name := range args {
				g.Go(func() error {
					if prefer == "" {
						out[i].url, out[i].src, out[i].err = d.Gallery.ViewURL(ctx, name)
					} else {
						out[i].url, out[i].src, out[i].err = d.Gallery.ResolveURL(ctx, name, prefer)
					}

					return nil
				})
			}
			_ = g.Wait()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			failed := 0
			for i, name := range args {
				if out[i].err != nil {
					failed++
					fmt.Fprintf(w, "%s\t-\t%v\n", name, out[i].err)

					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, out[i].src, out[i].url)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d images could not be resolved", failed, len(args))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&prefer, "prefer", "", "first source to try: proxy, signed or thumbnail")

	return cmd
}
