package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/utkarsh5026/fibload/internal/config"
	"github.com/utkarsh5026/fibload/internal/logging"
	"github.com/utkarsh5026/fibload/internal/observe"
	"github.com/utkarsh5026/fibload/internal/orchestrator"
	"github.com/utkarsh5026/fibload/internal/profiling"
	"github.com/utkarsh5026/fibload/pool"
)

// agentShutdownTimeout bounds how long the metrics endpoint may take to stop.
const agentShutdownTimeout = 2500 * time.Millisecond

type runFlags struct {
	workers         int
	fibo            int
	factorials      int
	factorialDelay  time.Duration
	retrieveDelay   time.Duration
	workFactor      int
	strategy        string
	rate            float64
	burst           int
	pinWorkers      bool
	profile         bool
	profileDir      string
	summary         bool
	metricsAddr     string
	progress        bool
	shutdownTimeout time.Duration
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one load-generation cycle",
		Long: `Run dispatches fibo_count nested fibonacci tasks and fibo_count retrieval
tasks onto the main pool, waits for both batches, then shuts down the main pool
followed by the factorial pool.`,
		Example: `  fibload run
  fibload run --workers 4 --fibo 12 --factorials 6 --progress
  fibload run --profile --profile-dir ./out --metrics-addr :9100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g, cmd.Flags(), f.apply)
			if err != nil {
				return err
			}
			return runLoad(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, f)
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.workers, "workers", "w", 0, "Workers per pool (WORKER_COUNT)")
	fl.IntVar(&f.fibo, "fibo", 0, "Number of fibonacci and retrieval tasks (FIBO_COUNT)")
	fl.IntVar(&f.factorials, "factorials", 0, "Factorial tasks per fibonacci task (FACTORIAL_COUNT)")
	fl.DurationVar(&f.factorialDelay, "factorial-delay", 0, "Scale of the factorial delay k*n/factorials")
	fl.DurationVar(&f.retrieveDelay, "retrieve-delay", 0, "Scale of the retrieval delay k*n/fibo")
	fl.IntVar(&f.workFactor, "work-factor", 0, "Repetitions of the naive fibonacci computation")
	fl.StringVar(&f.strategy, "strategy", "", "Pool scheduling strategy: queue or channel")
	fl.Float64Var(&f.rate, "rate", 0, "Maximum task starts per second per pool (0 = unlimited)")
	fl.IntVar(&f.burst, "burst", 0, "Rate limiter burst size")
	fl.BoolVar(&f.pinWorkers, "pin-workers", false, "Pin each worker to a CPU core (Linux only)")
	fl.BoolVar(&f.profile, "profile", false, "Write stats_functions_*.csv and stats_threads_*.csv at exit")
	fl.StringVar(&f.profileDir, "profile-dir", "", "Directory for profile CSV files")
	fl.BoolVar(&f.summary, "summary", false, "Print per-task and per-worker statistics tables")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address during the run")
	fl.BoolVar(&f.progress, "progress", false, "Show a progress bar on stderr")
	fl.DurationVar(&f.shutdownTimeout, "shutdown-timeout", 0, "Maximum time each pool may take to drain (0 = wait)")
	return cmd
}

// apply copies every flag the user set over cfg.
func (f *runFlags) apply(cfg *config.Config, flags *pflag.FlagSet) {
	set := func(name string, fn func()) {
		if flags.Changed(name) {
			fn()
		}
	}
	set("workers", func() { cfg.Load.WorkerCount = f.workers })
	set("fibo", func() { cfg.Load.FiboCount = f.fibo })
	set("factorials", func() { cfg.Load.FactorialCount = f.factorials })
	set("factorial-delay", func() { cfg.Load.FactorialDelay.Duration = f.factorialDelay })
	set("retrieve-delay", func() { cfg.Load.RetrieveDelay.Duration = f.retrieveDelay })
	set("work-factor", func() { cfg.Load.WorkFactor = f.workFactor })
	set("strategy", func() { cfg.Pool.Strategy = f.strategy })
	set("rate", func() { cfg.Pool.RateLimit = f.rate })
	set("burst", func() { cfg.Pool.RateBurst = f.burst })
	set("pin-workers", func() { cfg.Pool.PinWorkers = f.pinWorkers })
	set("profile", func() { cfg.Profile.Enabled = f.profile })
	set("profile-dir", func() { cfg.Profile.Dir = f.profileDir })
	set("summary", func() { cfg.Profile.Summary = f.summary })
	set("metrics-addr", func() { cfg.Metrics.Addr = f.metricsAddr })
}

func runLoad(ctx context.Context, stdout, stderr io.Writer, cfg config.Config, f *runFlags) error {
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	observers := []observe.Observer{
		observe.NewLogObserver(log),
		observe.NewMetricsObserver(reg),
	}

	var rec *observe.Recorder
	if cfg.Profile.Enabled || cfg.Profile.Summary {
		rec = observe.NewRecorder()
		observers = append(observers, rec)
	}

	var bar *observe.ProgressObserver
	if f != nil && f.progress {
		fibo := cfg.Load.FiboCount
		total := 2*fibo + fibo*cfg.Load.FactorialCount
		bar = observe.NewProgressObserver(stderr, total, "running tasks")
		observers = append(observers, bar)
	}

	if cfg.Metrics.Addr != "" {
		srv, err := observe.Listen(cfg.Metrics.Addr, reg, log)
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), agentShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warn("metrics server shutdown", zap.Error(err))
			}
			log.Info("Shutdown metrics server")
		}()
	}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithObserver(observe.Multi(observers...)),
		orchestrator.WithPoolOptions(poolOptions(cfg)...),
		orchestrator.WithStateHook(func(s orchestrator.State) {
			log.Debug("orchestrator state", zap.Stringer("state", s))
		}),
	}
	if f != nil && f.shutdownTimeout > 0 {
		opts = append(opts, orchestrator.WithShutdownTimeout(f.shutdownTimeout))
	}

	o, err := orchestrator.New(orchestrator.Config{
		WorkerCount: cfg.Load.WorkerCount,
		Settings:    cfg.Settings(),
		URLTemplate: cfg.Load.URLTemplate,
	}, opts...)
	if err != nil {
		return err
	}

	report, runErr := o.Run(ctx)

	if bar != nil {
		_ = bar.Finish()
	}

	if rec != nil {
		if cfg.Profile.Enabled {
			files, err := profiling.Export(cfg.Profile.Dir, rec, time.Now())
			if err != nil {
				log.Error("profile export failed", zap.Error(err))
			} else {
				log.Info("profile written",
					zap.String("functions", files.Functions),
					zap.String("threads", files.Threads))
			}
		}
		if cfg.Profile.Summary {
			_, _ = fmt.Fprintln(stdout)
			if err := profiling.Render(stdout, rec); err != nil {
				log.Error("render summary", zap.Error(err))
			}
		}
	}

	printReport(stdout, report, runErr)
	return runErr
}

func poolOptions(cfg config.Config) []pool.WorkerPoolOption {
	var opts []pool.WorkerPoolOption
	if cfg.Pool.Strategy == "channel" {
		opts = append(opts, pool.WithSchedulingStrategy(pool.SchedulingChannel))
	}
	if cfg.Pool.RateLimit > 0 {
		burst := cfg.Pool.RateBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, pool.WithRateLimit(cfg.Pool.RateLimit, burst))
	}
	if cfg.Pool.PinWorkers {
		opts = append(opts, pool.WithPinWorkers())
	}
	return opts
}

func printReport(w io.Writer, r *orchestrator.Report, runErr error) {
	if r == nil {
		return
	}

	_, _ = fmt.Fprintln(w)
	if runErr != nil {
		_, _ = red.Fprintf(w, "✗ Run failed after %s\n", r.Elapsed.Round(time.Millisecond))
	} else {
		_, _ = green.Fprintf(w, "✓ Run completed in %s\n", r.Elapsed.Round(time.Millisecond))
	}
	_, _ = bold.Fprint(w, "Trace: ")
	_, _ = fmt.Fprintln(w, r.TraceID)
	_, _ = bold.Fprint(w, "Fibonacci: ")
	_, _ = fmt.Fprintln(w, r.Fibonacci)
	_, _ = bold.Fprint(w, "Retrievals: ")
	_, _ = fmt.Fprintln(w, r.Retrievals)

	for _, s := range []pool.Stats{r.Primary, r.Secondary} {
		line := fmt.Sprintf("  %-10s workers=%d submitted=%d completed=%d failed=%d peak=%d\n",
			s.Name, s.Workers, s.Submitted, s.Completed, s.Failed, s.Peak)
		if s.Failed > 0 || s.Pending() > 0 {
			_, _ = yellow.Fprint(w, line)
		} else {
			_, _ = fmt.Fprint(w, line)
		}
	}
}
