package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/spray.report/internal/actuator"
	"github.com/banshee-data/spray.report/internal/config"
	"github.com/banshee-data/spray.report/internal/fsutil"
	"github.com/banshee-data/spray.report/internal/harvest"
	"github.com/banshee-data/spray.report/internal/monitoring"
	"github.com/banshee-data/spray.report/internal/security"
	"github.com/banshee-data/spray.report/internal/spray"
	"github.com/banshee-data/spray.report/internal/timeutil"
	"github.com/banshee-data/spray.report/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to harvest config JSON (defaults built in)")
	seed        = flag.Int64("seed", 0, "Sensor seed (0 uses the config, then the clock)")
	distance    = flag.Float64("distance", 0, "Use this distance in metres instead of the simulated sensor")
	fast        = flag.Bool("fast", false, "Run without pacing")
	outDir      = flag.String("out", "", "Directory for the motion profile PNG (empty disables)")
	serialPort  = flag.String("serial", "", "Serial port of the arm controller (empty disables)")
	baudRate    = flag.Int("baud", actuator.DefaultBaudRate, "Arm controller baud rate")
	verbose     = flag.Bool("v", false, "Log per-phase progress")
	trace       = flag.Bool("trace", false, "Log every step")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	Config     *config.HarvestConfig
	Seed       int64
	Distance   float64
	Fast       bool
	OutDir     string
	SerialPort string
	Serial     actuator.PortOptions
	FS         fsutil.FileSystem
	Clock      timeutil.Clock
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("harvest"))
		return
	}
	monitoring.SetLogger(monitoring.WriterLogger(enabled(*verbose, os.Stderr), "harvest: "))

	harvest.SetLogWriters(os.Stderr, enabled(*verbose, os.Stderr), enabled(*trace, os.Stderr))

	cfg := config.DefaultHarvestConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadHarvestConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *outDir != "" {
		if err := security.ValidateOutputDir(*outDir); err != nil {
			log.Fatalf("invalid output directory: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		Config:     cfg,
		Seed:       *seed,
		Distance:   *distance,
		Fast:       *fast,
		OutDir:     *outDir,
		SerialPort: *serialPort,
		Serial:     actuator.PortOptions{BaudRate: *baudRate},
		FS:         fsutil.OSFileSystem{},
		Clock:      timeutil.RealClock{},
	}
	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("harvest failed: %v", err)
	}
}

func enabled(on bool, w io.Writer) io.Writer {
	if on {
		return w
	}
	return nil
}

// run measures the fruit, plans the arm motion and executes it.
func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultHarvestConfig()
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	d := opts.Distance
	if d <= 0 {
		s := opts.Seed
		if s == 0 {
			s = cfg.GetSeed(clock.Now())
		}
		sensor, err := harvest.NewRandomSensor(cfg.GetMinDistance(), cfg.GetMaxDistance(), spray.NewRand(s))
		if err != nil {
			return err
		}
		if d, err = sensor.MeasureDistance(); err != nil {
			return fmt.Errorf("failed to measure distance: %w", err)
		}
	}

	plan, err := harvest.NewPlan(d, cfg.GetSpeed())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Measured distance: %.2f meters\n", plan.Distance)
	fmt.Fprintf(stdout, "Time required to cover %.2f meters: %.2f seconds\n", plan.Distance, plan.Duration)

	pc := cfg.PhaseConfig()
	if opts.Fast {
		pc.StepInterval, pc.CutterStep = 0, 0
	}
	phases := plan.Phases(pc)

	sinks := harvest.Sinks{harvest.Report(stdout)}
	if opts.SerialPort != "" {
		port, err := actuator.Open(opts.SerialPort, opts.Serial)
		if err != nil {
			return fmt.Errorf("failed to open arm controller: %w", err)
		}
		ctrl := actuator.NewController(port)
		defer ctrl.Close()
		sinks = append(sinks, harvest.Commands(ctrl))
	}

	start := clock.Now()
	n, err := harvest.Run(ctx, clock, phases, sinks)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Harvest complete: %d steps in %v\n", n, clock.Since(start).Round(time.Millisecond))

	if opts.OutDir != "" {
		fs := opts.FS
		if fs == nil {
			fs = fsutil.OSFileSystem{}
		}
		path, err := harvest.WriteProfile(fs, opts.OutDir, "harvest_profile.png", plan, plan.Phases(cfg.PhaseConfig()))
		if err != nil {
			return fmt.Errorf("failed to write profile: %w", err)
		}
		fmt.Fprintf(stdout, "Profile written to %s\n", path)
	}
	return nil
}
