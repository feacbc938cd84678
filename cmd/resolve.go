package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"teraplay/internal"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <URL>",
	Short: "Resolve a share link and print the file details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		_, snap, err := resolveSession(ctx, args[0])
		if err != nil {
			if resolveJSON {
				writeJSON(cmd.OutOrStdout(), internal.ResolutionFailure{Error: snap.Error})
			}
			return err
		}

		if resolveJSON {
			return writeJSON(cmd.OutOrStdout(), internal.SuccessResult(snap.Descriptor))
		}
		printDescriptor(cmd.OutOrStdout(), snap.Descriptor)
		return nil
	},
}

func printDescriptor(w io.Writer, desc *internal.MediaDescriptor) {
	fmt.Fprintf(w, "Filename:  %s\n", desc.Filename)
	fmt.Fprintf(w, "Size:      %s\n", desc.Size)
	fmt.Fprintf(w, "Thumbnail: %s\n", desc.Thumbnail)
	fmt.Fprintf(w, "Download:  %s\n", desc.DownloadURL)
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Print the API response body as JSON")
	addServerFlag(resolveCmd)
}
