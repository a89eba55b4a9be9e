package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/sonda/internal/config"
	"github.com/KilimcininKorOglu/sonda/internal/logging"
	"github.com/KilimcininKorOglu/sonda/internal/output"
	"github.com/KilimcininKorOglu/sonda/internal/probe"
)

var (
	// Global flags
	cfgFile    string
	noColor    bool
	jsonOutput bool
	verbose    bool
	logLevel   string

	// Loaded by the persistent pre-run
	cfg     *config.Config
	cfgPath string
	logger  *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sonda",
	Short: "ICMP ping and traceroute",
	Long: `sonda - ICMP echo and path discovery prober

sonda sends ICMP probes over a raw socket. "ping" measures round-trip
time and loss to one host; "traceroute" discovers the routers on the way
to a host by raising the IP time to live one hop at a time.

Raw sockets need root (or CAP_NET_RAW on Linux).

Examples:
  sonda ping -c 5 example.com        Five echo requests
  sonda ping -q -c 100 10.0.0.1      Summary only
  sonda traceroute example.com       Classic hop listing
  sonda traceroute -f 3 -m 16 host   Hops 3 to 16 only
  sonda traceroute --tui host        Live view
  sonda config --init                Create default config file`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.config/sonda/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log probe activity to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(tracerouteCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads configuration from file and sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error

	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
		cfgPath = cfgFile
	} else {
		cfg, cfgPath, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyGlobalDefaults(cmd, cfg)

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if verbose && level < log.DebugLevel {
		level = log.DebugLevel
	}
	logger = logging.NewLogger(level)
	logger.WithField("config", cfgPath).Debug("configuration loaded")

	return nil
}

// applyGlobalDefaults applies config file values for unset global flags.
func applyGlobalDefaults(cmd *cobra.Command, c *config.Config) {
	if !cmd.Flags().Changed("no-color") && c.Output.NoColor {
		noColor = true
	}
	if !cmd.Flags().Changed("json") && c.Output.JSON {
		jsonOutput = true
	}
	if !cmd.Flags().Changed("log-level") {
		logLevel = c.LogLevel
	}
}

// resolveTarget expands aliases and resolves the target to IPv4.
func resolveTarget(ctx context.Context, target string) (string, net.IP, error) {
	host := cfg.Resolve(target)
	if host != target {
		logger.WithFields(log.Fields{"alias": target, "host": host}).Debug("expanded alias")
	}

	addr, err := probe.ResolveIPv4(ctx, host)
	if err != nil {
		if errors.Is(err, probe.ErrUnknownHost) {
			return "", nil, fmt.Errorf("cannot resolve %s: Unknown host", host)
		}
		return "", nil, err
	}
	return host, addr, nil
}

// openSocket opens the raw ICMP socket shared by both commands.
func openSocket(config probe.SocketConfig) (*probe.RawConn, error) {
	conn, err := probe.Listen(config)
	if err != nil {
		if probe.IsPermissionError(err) {
			return nil, fmt.Errorf("%w (try running as root)", err)
		}
		return nil, fmt.Errorf("failed to open ICMP socket: %w", err)
	}
	logger.WithFields(log.Fields{"ttl": config.TTL, "debug": config.Debug}).Debug("opened raw socket")
	return conn, nil
}

// outputFormat picks the format shared by both commands.
func outputFormat(table, csv bool) output.Format {
	switch {
	case jsonOutput:
		return output.FormatJSON
	case csv:
		return output.FormatCSV
	case table:
		return output.FormatVerbose
	default:
		return output.FormatText
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets version information for the CLI.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}
