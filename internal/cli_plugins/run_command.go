package cliplugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"asterix/internal/config"
	"asterix/internal/feed"
	"asterix/internal/forwarder"
	"asterix/internal/gateway"
	"asterix/internal/transport"
	"asterix/internal/util/logger/sl"
)

const metricsShutdownTimeout = 5 * time.Second

type RunCommand struct {
	cmd   *cobra.Command
	app   *AppContext
	stdin io.Reader
	opts  []forwarder.Option
}

// NewRunCommand creates the run command. opts are passed on to the
// forwarder.
func NewRunCommand(app *AppContext, stdin io.Reader, opts ...forwarder.Option) *RunCommand {
	return &RunCommand{app: app, stdin: stdin, opts: opts}
}

func (r *RunCommand) Meta() *cobra.Command {
	if r.cmd != nil {
		return r.cmd
	}
	r.cmd = &cobra.Command{
		Use:   "run",
		Short: "Forward beacons as ASTERIX cat. 62 records",
		Long: "Reads JSON-lines beacons from stdin or --input and forwards each one as an " +
			"ASTERIX cat. 62 record over UDP broadcast and/or multicast.",
		Args: cobra.NoArgs,
	}
	r.cmd.Flags().StringP("input", "i", "", "beacon file, one JSON object per line (default stdin)")
	r.cmd.Flags().BoolP("follow", "f", false, "keep reading lines appended to --input")
	r.cmd.Flags().Bool("wait", false, "keep running after the input ends until interrupted")
	return r.cmd
}

func (r *RunCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	const op = "cliplugins.RunCommand.Execute"

	cfg, log, err := r.app.load(cmd)
	if err != nil {
		return err
	}
	log = log.With(slog.String("op", op))

	path, _ := cmd.Flags().GetString("input")
	follow, _ := cmd.Flags().GetBool("follow")
	wait, _ := cmd.Flags().GetBool("wait")
	if follow && path == "" {
		return fmt.Errorf("--follow needs --input")
	}

	in := r.stdin
	if path != "" && !follow {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	fcfg, err := ForwarderConfig(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	fwd := forwarder.New(fcfg, log, append([]forwarder.Option{forwarder.WithRegisterer(reg)}, r.opts...)...)

	gw := gateway.New(log)
	if err := gw.Register(fwd); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, reg, log)
		defer stop()
	}

	gw.Start(ctx)
	defer gw.Shutdown()

	log.Info("forwarding beacons",
		slog.String("mode", fcfg.Transport.Mode.String()),
		slog.Bool("active", fwd.Active()),
	)

	dispatch := func(ev feed.Event) {
		gw.Dispatch(ev.Beacon, ev.Descriptor)
	}

	var n int
	if follow {
		n, err = feed.Follow(ctx, path, log, dispatch)
	} else {
		n, err = feed.Read(ctx, in, log, dispatch)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("reading beacons", sl.Err(err))
	}

	if wait && ctx.Err() == nil {
		log.Info("input finished, waiting for interrupt", slog.Int("beacons", n))
		<-ctx.Done()
	}

	s := fwd.Stats()
	log.Info("forwarder finished",
		slog.Int("beacons", n),
		slog.Int64("records_sent", s.RecordsSent),
		slog.Int64("send_errors", s.SendErrors),
		slog.Int64("descriptors_sent", s.DescriptorsSent),
		slog.Int64("dropped", s.Dropped),
	)

	return nil
}

// ForwarderConfig maps the file config onto the forwarder's.
func ForwarderConfig(cfg *config.Config) (forwarder.Config, error) {
	mode, err := transport.ParseMode(cfg.Asterix.Mode)
	if err != nil {
		return forwarder.Config{}, err
	}

	return forwarder.Config{
		Transport: transport.Config{
			Mode:               mode,
			BroadcastPort:      cfg.Asterix.BroadcastPort,
			MulticastGroup:     cfg.Asterix.MulticastGroup,
			MulticastPort:      cfg.Asterix.MulticastPort,
			MulticastTTL:       cfg.Asterix.MulticastTTL,
			MulticastLoopback:  !cfg.Asterix.MulticastNoLoopback,
			MulticastInterface: cfg.Asterix.MulticastInterface,
		},
		DescriptorTTL: cfg.Asterix.DescriptorTTL,
	}, nil
}

// serveMetrics exposes reg on addr/metrics. The returned func shuts the
// server down.
func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", sl.Err(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("metrics server shutdown", sl.Err(err))
		}
		<-done
	}
}
