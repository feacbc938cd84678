package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"teraplay/downloader"
	"teraplay/internal"
	"teraplay/utils"
)

var (
	outputPath string
	rateLimit  string
)

var downloadCmd = &cobra.Command{
	Use:   "download <URL>",
	Short: "Resolve a share link and download the file",
	Long: `Resolve a share link and download the file. An interrupted download keeps
its .part file and continues from there on the next run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rateLimitBytes int64
		if rateLimit != "" {
			var err error
			rateLimitBytes, err = utils.ParseRateLimit(rateLimit)
			if err != nil {
				validationErr := internal.NewValidationErrorWithValue("limit_rate", "invalid format", rateLimit).
					WithSuggestion("Use formats like 1M (1 MB/s), 500K (500 KB/s), 2G (2 GB/s), or 1024 (1024 bytes/s)")
				internal.LogValidationError(validationErr)
				return fmt.Errorf("invalid rate limit format: %w", err)
			}
			internal.LogDebug("Rate limit parsed: %s = %d bytes/sec", rateLimit, rateLimitBytes)
		}

		printDisclaimer(cmd)

		ctx, stop := signalContext(cmd)
		defer stop()

		session, snap, err := resolveSession(ctx, args[0])
		if err != nil {
			return err
		}
		link, filename, ok := session.DownloadLink()
		if !ok {
			return fmt.Errorf("resolved file has no download link")
		}
		internal.LogInfo("Resolved %s (%s)", filename, snap.Descriptor.Size)

		httpClient, err := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
			ProxyURL: config.ProxyURL,
		})
		if err != nil {
			return err
		}
		engine := downloader.NewStreamEngine(httpClient)
		engine.SetProgressOutput(cmd.ErrOrStderr())

		return engine.Download(ctx, &internal.MediaDescriptor{
			Filename:    filename,
			Size:        snap.Descriptor.Size,
			DownloadURL: link,
		}, &internal.DownloadConfig{
			OutputPath: outputPath,
			RateLimit:  rateLimitBytes,
			Quiet:      config.QuietMode,
		})
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file or directory (default: the resolved file name)")
	downloadCmd.Flags().StringVarP(&rateLimit, "limit-rate", "r", "", "Bandwidth limit (e.g., 5M for 5MB/s)")
	addServerFlag(downloadCmd)
}
