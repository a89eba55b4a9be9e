package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KilimcininKorOglu/sonda/internal/config"
	"github.com/KilimcininKorOglu/sonda/internal/output"
	"github.com/KilimcininKorOglu/sonda/internal/ping"
	"github.com/KilimcininKorOglu/sonda/internal/probe"
)

// pingFlags holds the flags of the ping command.
type pingFlags struct {
	count    int
	ttl      int
	size     int
	interval float64 // seconds
	timeout  time.Duration
	quiet    bool
	table    bool
}

var pingOpts pingFlags

var pingCmd = &cobra.Command{
	Use:   "ping [flags] <host>",
	Short: "Send ICMP echo requests to a host",
	Long: `Send one ICMP echo request per interval to host and validate every
reply. Stops after -c requests or on Ctrl+C, then prints round-trip
statistics. Exits with status 1 when no valid reply arrived.`,
	Args: cobra.ExactArgs(1),
	RunE: runPing,
}

func init() {
	pingOpts.register(pingCmd.Flags())
}

// register defines the ping flags on fs.
func (o *pingFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&o.count, "count", "c", ping.Unbounded, "Stop after sending count requests")
	fs.IntVarP(&o.ttl, "ttl", "t", 64, "IP time to live")
	fs.IntVarP(&o.size, "size", "s", 56, "Payload bytes per request")
	fs.Float64VarP(&o.interval, "interval", "i", 1, "Seconds between requests")
	fs.DurationVarP(&o.timeout, "timeout", "W", probe.DefaultTimeout, "Time to wait for each reply")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "Only print the header and the summary")
	fs.BoolVar(&o.table, "table", false, "Print a detailed table when done")
}

// applyPingDefaults applies config file values for unset ping flags.
func applyPingDefaults(cmd *cobra.Command, d config.PingDefaults, o *pingFlags) {
	if !cmd.Flags().Changed("count") && d.Count != 0 {
		o.count = d.Count
	}
	if !cmd.Flags().Changed("ttl") && d.TTL > 0 {
		o.ttl = d.TTL
	}
	if !cmd.Flags().Changed("size") && d.Size >= 0 {
		o.size = d.Size
	}
	if !cmd.Flags().Changed("interval") && d.Interval > 0 {
		o.interval = d.Interval.Seconds()
	}
	if !cmd.Flags().Changed("timeout") && d.Timeout > 0 {
		o.timeout = d.Timeout
	}
	if !cmd.Flags().Changed("quiet") && d.Quiet {
		o.quiet = true
	}
}

// pingConfig builds the echo run configuration from the flags.
func (o *pingFlags) pingConfig() *ping.Config {
	c := ping.DefaultConfig()
	c.Count = o.count
	c.TTL = o.ttl
	c.Size = o.size
	c.Interval = time.Duration(o.interval * float64(time.Second))
	c.Timeout = o.timeout
	return c
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	applyPingDefaults(cmd, cfg.Ping, &pingOpts)

	host, addr, err := resolveTarget(ctx, args[0])
	if err != nil {
		return err
	}

	pingConfig := pingOpts.pingConfig()
	pingConfig.Host = host
	pingConfig.Addr = addr
	if err := pingConfig.Validate(); err != nil {
		return err
	}

	outputConfig := output.Config{
		Colors: !noColor,
		Quiet:  pingOpts.quiet,
	}
	format := outputFormat(pingOpts.table, false)
	writer := output.NewWriter(format, outputConfig)

	// Text output streams one line per request.
	text, streaming := writer.Formatter().(*output.TextFormatter)
	if streaming {
		if err := writer.WriteString(text.PingHeader(host, addr, pingConfig.Size)); err != nil {
			return err
		}
		pingConfig.OnRecord = func(rec *ping.Record) {
			if err := writer.WriteString(text.FormatRecord(rec)); err != nil {
				logger.WithError(err).Warn("failed to write output")
			}
		}
	}

	conn, err := openSocket(probe.SocketConfig{TTL: pingConfig.TTL})
	if err != nil {
		return err
	}
	defer conn.Close()

	pinger, err := ping.New(pingConfig, conn, logger)
	if err != nil {
		return err
	}

	report, runErr := pinger.Run(ctx)
	if report == nil {
		return runErr
	}

	if streaming {
		err = writer.WriteString(text.PingSummary(report))
	} else {
		err = writer.WritePing(report)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return runErr
}
