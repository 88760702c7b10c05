package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/spray.report/internal/actuator"
	"github.com/banshee-data/spray.report/internal/api"
	"github.com/banshee-data/spray.report/internal/config"
	"github.com/banshee-data/spray.report/internal/fsutil"
	"github.com/banshee-data/spray.report/internal/monitoring"
	"github.com/banshee-data/spray.report/internal/render"
	"github.com/banshee-data/spray.report/internal/security"
	"github.com/banshee-data/spray.report/internal/spray"
	"github.com/banshee-data/spray.report/internal/store"
	"github.com/banshee-data/spray.report/internal/units"
	"github.com/banshee-data/spray.report/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to spray config JSON (defaults built in)")
	seed        = flag.Int64("seed", 0, "Random seed (0 uses the config, then the clock)")
	count       = flag.Int("count", -1, "Number of pests to generate (-1 uses the config)")
	interval    = flag.Duration("interval", -1, "Pause between visits (-1 uses the config)")
	outDir      = flag.String("out", "", "Directory for PNG frames and the HTML chart (empty disables)")
	noPlot      = flag.Bool("no-plot", false, "Skip PNG frames even when -out is set")
	noChart     = flag.Bool("no-chart", false, "Skip the HTML chart even when -out is set")
	metricsFile = flag.String("metrics-file", "", "Write run metrics in Prometheus textfile format (empty disables)")
	dbPath      = flag.String("db", "", "SQLite database to record the run in (empty disables)")
	notes       = flag.String("notes", "", "Free-text notes stored with the run")
	serialPort  = flag.String("serial", "", "Serial port of the nozzle controller (empty disables)")
	baudRate    = flag.Int("baud", actuator.DefaultBaudRate, "Nozzle controller baud rate")
	serve       = flag.String("serve", "", "Serve the -db run history over HTTP on this address and exit on signal")
	history     = flag.Int("history", 0, "Print the N most recent runs from -db and exit")
	lengthUnits = flag.String("units", "", "Length units for -history movement: mm, cm, m, in (empty keeps each run's units)")
	listPorts   = flag.Bool("list-ports", false, "List serial ports and exit")
	verbose     = flag.Bool("v", false, "Log per-run diagnostics")
	trace       = flag.Bool("trace", false, "Log per-target detail")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options collects everything run needs so tests can call it without flags.
type options struct {
	Config     *config.SprayConfig
	Seed       int64
	Interval   time.Duration
	OutDir     string
	Plot       bool
	Chart      bool
	DBPath     string
	Metrics    string
	Notes      string
	SerialPort string
	Serial     actuator.PortOptions
	FS         fsutil.FileSystem
	Clock      func() time.Time
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("spray"))
		return
	}
	monitoring.SetLogger(monitoring.WriterLogger(enabled(*verbose, os.Stderr), "spray: "))
	if *listPorts {
		ports, err := actuator.ListPorts()
		if err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if *history > 0 {
		if *dbPath == "" {
			log.Fatal("-history requires -db")
		}
		if err := printHistory(*dbPath, *history, *lengthUnits, os.Stdout); err != nil {
			log.Fatalf("failed to read history: %v", err)
		}
		return
	}

	if *serve != "" {
		if *dbPath == "" {
			log.Fatal("-serve requires -db")
		}
		st, err := store.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := api.NewServer(st, prometheus.DefaultGatherer).ListenAndServe(ctx, *serve); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
		return
	}

	spray.SetLogWriters(os.Stderr, enabled(*verbose, os.Stderr), enabled(*trace, os.Stderr))

	cfg := config.DefaultSprayConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadSprayConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *count >= 0 {
		cfg.Count = count
	}

	opts := options{
		Config:     cfg,
		Seed:       *seed,
		Interval:   *interval,
		OutDir:     *outDir,
		Plot:       !*noPlot,
		Chart:      !*noChart,
		DBPath:     *dbPath,
		Metrics:    *metricsFile,
		Notes:      *notes,
		SerialPort: *serialPort,
		Serial:     actuator.PortOptions{BaudRate: *baudRate},
		FS:         fsutil.OSFileSystem{},
		Clock:      time.Now,
	}
	if opts.Interval < 0 {
		opts.Interval = cfg.GetFrameInterval()
	}
	if opts.OutDir != "" {
		if err := security.ValidateOutputDir(opts.OutDir); err != nil {
			log.Fatalf("invalid output directory: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("spray run failed: %v", err)
	}
}

func enabled(on bool, w io.Writer) io.Writer {
	if on {
		return w
	}
	return nil
}

// run builds the plan, records it, then plays it through every configured
// renderer. It returns the stored run ID, or "seed-<n>" when no database is
// configured.
func run(ctx context.Context, opts options, stdout io.Writer) (string, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultSprayConfig()
	}
	// The textfile is written straight to disk, not through opts.FS.
	if opts.Metrics != "" {
		if err := security.ValidateOutputDir(filepath.Dir(opts.Metrics)); err != nil {
			return "", fmt.Errorf("invalid metrics file: %w", err)
		}
	}
	now := time.Now
	if opts.Clock != nil {
		now = opts.Clock
	}
	runSeed := opts.Seed
	if runSeed == 0 {
		runSeed = cfg.GetSeed(now())
	}

	pipeline, err := spray.NewPipeline(cfg.PipelineConfig())
	if err != nil {
		return "", fmt.Errorf("failed to configure pipeline: %w", err)
	}
	positions, sizes := spray.SeedSources(runSeed)
	plan, err := pipeline.Run(positions, sizes)
	if err != nil {
		return "", fmt.Errorf("failed to plan run: %w", err)
	}

	record, visits := store.RunFromPlan(plan, runSeed, cfg.GetMovementUnits())
	record.Notes = opts.Notes

	var db *store.Store
	if opts.DBPath != "" {
		db, err = store.Open(opts.DBPath)
		if err != nil {
			return "", fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}
	// Insert before playback so the run ID labels every output.
	if db != nil {
		if err := db.InsertRun(record, visits); err != nil {
			return "", fmt.Errorf("failed to record run: %w", err)
		}
	} else {
		record.RunID = fmt.Sprintf("seed-%d", runSeed)
	}
	monitoring.Logf("[spray] run %s seed=%d pests=%d/%d", record.RunID, runSeed, len(plan.Ordered), plan.Generated)

	renderers := render.Multi{&render.LogRenderer{W: stdout, MovementUnits: cfg.GetMovementUnits()}}

	fs := opts.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if opts.OutDir != "" {
		if opts.Plot {
			pr := render.NewPlotRenderer(fs, opts.OutDir)
			pr.Prefix = record.RunID
			renderers = append(renderers, pr)
		}
		if opts.Chart {
			renderers = append(renderers, render.NewChartRenderer(fs, opts.OutDir))
		}
	}

	var metrics *render.MetricsRenderer
	if opts.Metrics != "" {
		metrics, err = render.NewMetricsRenderer(prometheus.NewRegistry())
		if err != nil {
			return record.RunID, fmt.Errorf("failed to register metrics: %w", err)
		}
		renderers = append(renderers, metrics)
	}

	if opts.SerialPort != "" {
		port, err := actuator.Open(opts.SerialPort, opts.Serial)
		if err != nil {
			return record.RunID, fmt.Errorf("failed to open nozzle controller: %w", err)
		}
		ctrl := actuator.NewController(port)
		defer ctrl.Close()
		renderers = append(renderers, ctrl)
	}

	player := render.NewPlayer(opts.Interval)
	if _, err := player.Play(ctx, record.RunID, plan, renderers); err != nil {
		return record.RunID, fmt.Errorf("playback stopped: %w", err)
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(opts.Metrics); err != nil {
			return record.RunID, err
		}
	}
	return record.RunID, nil
}

// printHistory lists the most recent runs, newest first. A non-empty unit
// converts each run's movement into that length unit.
func printHistory(path string, limit int, unit string, w io.Writer) error {
	if unit != "" && !units.IsValidLength(unit) {
		return fmt.Errorf("invalid units %q, must be one of: %s", unit, units.GetValidLengthUnitsString())
	}
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		movement, movementUnits := r.RequiredActuation, r.MovementUnits
		if unit != "" {
			movement = units.ConvertLength(movement, movementUnits, unit)
			movementUnits = unit
		}
		fmt.Fprintf(w, "%s  %s  seed=%d  pests=%d/%d  area=%.2f  passes=%.2f  movement=%.2f %s\n",
			r.RunID, time.Unix(0, r.CreatedAtNs).UTC().Format(time.RFC3339),
			r.Seed, r.Visited, r.Generated, r.TotalArea, r.RequiredPasses, movement, movementUnits)
	}
	return nil
}
