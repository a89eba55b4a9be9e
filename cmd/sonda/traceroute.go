package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KilimcininKorOglu/sonda/internal/config"
	"github.com/KilimcininKorOglu/sonda/internal/enrich"
	"github.com/KilimcininKorOglu/sonda/internal/logging"
	"github.com/KilimcininKorOglu/sonda/internal/output"
	"github.com/KilimcininKorOglu/sonda/internal/probe"
	"github.com/KilimcininKorOglu/sonda/internal/trace"
	"github.com/KilimcininKorOglu/sonda/internal/tui"
)

// traceFlags holds the flags of the traceroute command.
type traceFlags struct {
	firstHop   int
	maxHops    int
	queries    int
	timeout    time.Duration
	icmpType   string
	useICMP    bool
	debug      bool
	packetSize int // ICMP bytes, set from the optional packetlen argument

	tuiMode   bool
	table     bool
	csvOutput bool

	asnDB   string
	cityDB  string
	noASN   bool
	noGeoIP bool
}

var traceOpts traceFlags

var tracerouteCmd = &cobra.Command{
	Use:     "traceroute [flags] <host> [packetlen]",
	Aliases: []string{"trace", "tr"},
	Short:   "Print the route packets take to a host",
	Long: `Send ICMP probes with increasing IP time to live and print every router
that answers, until the host itself answers or the maximum number of hops
is reached. packetlen is the full datagram size, IP header included
(default 60).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTraceroute,
}

func init() {
	traceOpts.register(tracerouteCmd.Flags())
}

// register defines the traceroute flags on f.
func (o *traceFlags) register(f *pflag.FlagSet) {
	f.IntVarP(&o.firstHop, "first-hop", "f", 1, "Start from specified hop")
	f.IntVarP(&o.maxHops, "max-hops", "m", 30, "Maximum number of hops")
	f.IntVarP(&o.queries, "queries", "q", 3, "Number of probes per hop")
	f.DurationVarP(&o.timeout, "timeout", "w", probe.DefaultTimeout, "Probe timeout")
	f.StringVar(&o.icmpType, "icmp-type", "echo", "Probe message: echo or timestamp")
	f.BoolVarP(&o.useICMP, "icmp", "I", false, "Use ICMP Echo probes (default)")
	f.BoolVarP(&o.debug, "debug", "d", false, "Enable socket level debugging (SO_DEBUG)")

	f.BoolVarP(&o.tuiMode, "tui", "t", false, "Interactive TUI mode")
	f.BoolVar(&o.table, "table", false, "Show detailed table output")
	f.BoolVar(&o.csvOutput, "csv", false, "Output in CSV format")

	f.StringVar(&o.asnDB, "asn-db", "", "MaxMind ASN database (.mmdb)")
	f.StringVar(&o.cityDB, "city-db", "", "MaxMind City database (.mmdb)")
	f.BoolVar(&o.noASN, "no-asn", false, "Disable ASN annotation")
	f.BoolVar(&o.noGeoIP, "no-geoip", false, "Disable GeoIP annotation")
}

// applyTraceDefaults applies config file values for unset traceroute flags.
func applyTraceDefaults(cmd *cobra.Command, c *config.Config, o *traceFlags) {
	d := c.Traceroute
	if !cmd.Flags().Changed("first-hop") && d.FirstTTL > 0 {
		o.firstHop = d.FirstTTL
	}
	if !cmd.Flags().Changed("max-hops") && d.MaxHops > 0 {
		o.maxHops = d.MaxHops
	}
	if !cmd.Flags().Changed("queries") && d.Queries > 0 {
		o.queries = d.Queries
	}
	if !cmd.Flags().Changed("timeout") && d.Timeout > 0 {
		o.timeout = d.Timeout
	}
	if !cmd.Flags().Changed("icmp-type") && d.ICMPType != "" {
		o.icmpType = d.ICMPType
	}
	if !cmd.Flags().Changed("debug") && d.Debug {
		o.debug = true
	}
	if o.packetSize == 0 {
		o.packetSize = d.PacketSize
	}

	// Output mode from config (if no flag set)
	if !cmd.Flags().Changed("tui") && c.Output.TUI {
		o.tuiMode = true
	}
	if !cmd.Flags().Changed("table") && c.Output.VerboseTable {
		o.table = true
	}
	if !cmd.Flags().Changed("csv") && c.Output.CSV {
		o.csvOutput = true
	}

	if !cmd.Flags().Changed("asn-db") {
		o.asnDB = c.MaxMind.ASNDB
	}
	if !cmd.Flags().Changed("city-db") {
		o.cityDB = c.MaxMind.CityDB
	}
}

// parsePacketLen converts the packetlen argument into ICMP bytes.
func parsePacketLen(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < probe.IPv4HeaderLen+probe.HeaderLen {
		return 0, fmt.Errorf("%w: %q", trace.ErrInvalidPacketSize, arg)
	}
	return n - probe.IPv4HeaderLen, nil
}

// traceConfig builds the tracer configuration from the flags.
func (o *traceFlags) traceConfig() (*trace.Config, error) {
	c := trace.DefaultConfig()
	c.FirstHop = o.firstHop
	c.MaxHops = o.maxHops
	c.ProbeCount = o.queries
	c.Timeout = o.timeout
	c.Debug = o.debug
	if o.packetSize > 0 {
		c.PacketSize = o.packetSize
	}

	probeType, err := trace.ParseProbeType(o.icmpType)
	if err != nil {
		return nil, err
	}
	if o.useICMP {
		probeType = probe.ICMPv4EchoRequest
	}
	c.ProbeType = probeType

	return c, c.Validate()
}

// openEnricher opens the configured MaxMind databases. It returns nil when
// none is configured.
func (o *traceFlags) openEnricher() (*enrich.Enricher, func() error, error) {
	asnPath, cityPath := o.asnDB, o.cityDB
	if o.noASN {
		asnPath = ""
	}
	if o.noGeoIP {
		cityPath = ""
	}
	if asnPath == "" && cityPath == "" {
		return nil, nil, nil
	}

	db, err := enrich.Open(asnPath, cityPath)
	if err != nil {
		return nil, nil, err
	}

	var opts []enrich.Option
	if o.noASN {
		opts = append(opts, enrich.WithoutASN())
	}
	if o.noGeoIP {
		opts = append(opts, enrich.WithoutGeoIP())
	}
	return enrich.NewEnricher(db, logger, opts...), db.Close, nil
}

func runTraceroute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 2 {
		size, err := parsePacketLen(args[1])
		if err != nil {
			return err
		}
		traceOpts.packetSize = size
	}
	applyTraceDefaults(cmd, cfg, &traceOpts)

	traceConfig, err := traceOpts.traceConfig()
	if err != nil {
		return err
	}

	host, addr, err := resolveTarget(ctx, args[0])
	if err != nil {
		return err
	}

	enricher, closeDB, err := traceOpts.openEnricher()
	if err != nil {
		return err
	}
	if enricher != nil {
		traceConfig.Enricher = enricher
		defer closeDB()
	}

	conn, err := openSocket(probe.SocketConfig{TTL: traceConfig.FirstHop, Debug: traceConfig.Debug})
	if err != nil {
		return err
	}
	defer conn.Close()

	// If TUI mode requested, run TUI; log lines would corrupt the screen.
	if traceOpts.tuiMode {
		_, err := tui.Run(ctx, host, addr, traceConfig, conn, logging.Discard())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	outputConfig := output.Config{
		Colors:  !noColor,
		NoASN:   traceOpts.noASN,
		NoGeoIP: traceOpts.noGeoIP,
	}
	writer := output.NewWriter(outputFormat(traceOpts.table, traceOpts.csvOutput), outputConfig)

	// For streaming text output, set up OnHop callback
	text, streaming := writer.Formatter().(*output.TextFormatter)
	if streaming {
		header := text.TraceHeader(host, addr, traceConfig.MaxHops, traceConfig.DatagramSize())
		if err := writer.WriteString(header); err != nil {
			return err
		}
		traceConfig.OnHop = func(hop *trace.Hop) {
			if err := writer.WriteString(text.FormatHop(hop)); err != nil {
				logger.WithError(err).Warn("failed to write output")
			}
		}
	}

	tracer, err := trace.New(traceConfig, conn, logger)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	result, err := tracer.Trace(ctx, host, addr)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("trace failed: %w", err)
	}

	// Streamed hops are already on screen.
	if streaming || result == nil {
		return nil
	}
	return writer.Write(result)
}
