package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teraplay/client"
	"teraplay/downloader"
	"teraplay/internal"
)

var (
	configFile string
	serverURL  string
	config     *internal.Config
)

// flagKeys maps config keys to the flags that override them
var flagKeys = map[string]string{
	internal.KeyListen:          "listen",
	internal.KeyEndpointTimeout: "timeout",
	internal.KeyStrictHosts:     "strict-hosts",
	internal.KeyProxy:           "proxy",
	internal.KeyLogLevel:        "log-level",
	internal.KeyLogFormat:       "log-format",
	internal.KeyLogFile:         "log-file",
	internal.KeyDebug:           "debug",
	internal.KeyQuiet:           "quiet",
}

var rootCmd = &cobra.Command{
	Use:     "teraplay",
	Short:   "Resolve TeraBox share links, then download or stream the file",
	Version: "v1.0.0",
	Long: `TeraPlay resolves TeraBox share links through a list of public resolver
services and hands back a direct media link. It can serve the resolve API,
resolve a single link, download the file or play it with mpv.

Examples:
  teraplay serve --listen :3000
  teraplay resolve https://terabox.com/s/1AbC123
  teraplay download -o /videos -r 5M https://terabox.com/s/1AbC123
  teraplay watch --fullscreen https://terabox.com/s/1AbC123

Environment Variables:
  TERAPLAY_LISTEN            API listen address
  TERAPLAY_ENDPOINTS         Resolver list, e.g. "API 1=https://host/?url=,API 2=..."
  TERAPLAY_ENDPOINT_TIMEOUT  Per-endpoint timeout, e.g. 15s
  TERAPLAY_PROXY             Proxy URL
  TERAPLAY_LOG_LEVEL         Log level

DISCLAIMER: Respect TeraBox's Terms of Service and copyright laws.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfiguration(cmd); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		if err := internal.InitLogger(config); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		internal.LogDebug("Configuration loaded: endpoints=%d, timeout=%v, strict_hosts=%v, debug=%v, quiet=%v",
			len(config.Endpoints), config.EndpointTimeout, config.StrictHosts, config.EnableDebug, config.QuietMode)
		return nil
	},
}

// loadConfiguration layers defaults, config file, environment and the flags
// the user actually set.
func loadConfiguration(cmd *cobra.Command) error {
	v := viper.New()
	for key, name := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}

	loaded, err := internal.LoadConfig(v, configFile)
	if err != nil {
		return err
	}
	config = loaded
	return nil
}

// newResolver resolves in-process, or through a running API when --server
// is set.
func newResolver() (internal.LinkResolver, error) {
	if serverURL != "" {
		internal.LogDebug("Resolving through %s", serverURL)
		return client.New(serverURL, nil)
	}
	return downloader.NewEndpointResolver(config)
}

// resolveSession runs one submission and fails with the user-facing message
func resolveSession(ctx context.Context, url string) (*client.Session, client.Snapshot, error) {
	resolver, err := newResolver()
	if err != nil {
		return nil, client.Snapshot{}, err
	}

	session := client.NewSession(resolver)
	snap := session.Submit(ctx, url)
	if snap.State != client.StateSuccess {
		return session, snap, errors.New(snap.Error)
	}
	return session, snap, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func printDisclaimer(cmd *cobra.Command) {
	if !config.QuietMode {
		fmt.Fprintln(cmd.ErrOrStderr(), "⚠️  DISCLAIMER: Respect TeraBox's Terms of Service and copyright laws.")
		fmt.Fprintln(cmd.ErrOrStderr(), "")
	}
}

func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serverURL, "server", "", "Resolve through a running teraplay API, e.g. http://localhost:3000")
}

func init() {
	def := internal.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./teraplay.{yaml,toml,json})")
	flags.String("log-level", def.LogLevel, "Set log level (debug, info, warn, error) (env: TERAPLAY_LOG_LEVEL)")
	flags.String("log-format", def.LogFormat, "Log format, text or json (env: TERAPLAY_LOG_FORMAT)")
	flags.String("log-file", "", "Write logs to file instead of stderr (env: TERAPLAY_LOG_FILE)")
	flags.BoolP("debug", "d", false, "Enable debug logging with file and line information (env: TERAPLAY_DEBUG)")
	flags.BoolP("quiet", "q", false, "Suppress progress bar and informational output (env: TERAPLAY_QUIET)")
	flags.String("proxy", "", "HTTP/SOCKS proxy URL (env: TERAPLAY_PROXY)")
	flags.Duration("timeout", def.EndpointTimeout, "Timeout for each resolver endpoint (env: TERAPLAY_ENDPOINT_TIMEOUT)")
	flags.Bool("strict-hosts", false, "Only accept links on known TeraBox domains (env: TERAPLAY_STRICT_HOSTS)")

	rootCmd.AddCommand(serveCmd, resolveCmd, downloadCmd, watchCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
