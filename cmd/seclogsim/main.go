// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command seclogsim generates synthetic CloudTrail and Entra ID audit-event
// streams. Two subcommands: `gen` runs the event pipeline against a
// generator config; `actors` builds a standalone actor population file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/thejerf/suture/v4"

	"github.com/coreaudit/seclogsim/internal/config"
	"github.com/coreaudit/seclogsim/internal/dispatch"
	"github.com/coreaudit/seclogsim/internal/httpapi"
	"github.com/coreaudit/seclogsim/internal/logging"
	"github.com/coreaudit/seclogsim/internal/metrics"
	"github.com/coreaudit/seclogsim/internal/population"
	"github.com/coreaudit/seclogsim/internal/rng"
	"github.com/coreaudit/seclogsim/internal/sink"
	"github.com/coreaudit/seclogsim/internal/source"
	"github.com/coreaudit/seclogsim/internal/supervisor"
	"github.com/coreaudit/seclogsim/internal/transport"
	"github.com/coreaudit/seclogsim/internal/writer"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}
	switch args[0] {
	case "gen":
		return runGen(args[1:])
	case "actors":
		return runActors(args[1:])
	case "-h", "--help", "help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "seclogsim: unknown subcommand %q\n", args[0])
		usage()
		return 1
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage:
  seclogsim gen --config <path> [--output DIR] [--dry-run] [--max-events N]
                [--max-seconds S] [--metrics-interval-ms M] [--gen-workers W]
                [--writer-shards K] [--metrics-addr HOST:PORT]
  seclogsim actors --config <path> --output <file>
`)
}

func runGen(args []string) int {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the generator TOML config")
	outputDir := fs.String("output", "", "override output.dir")
	dryRun := fs.Bool("dry-run", false, "print the parsed config and exit")
	maxEvents := fs.Uint64("max-events", 0, "stop after N events")
	maxSeconds := fs.Float64("max-seconds", 0, "stop after S wall-clock seconds")
	metricsIntervalMS := fs.Uint64("metrics-interval-ms", 0, "metrics sampling interval")
	genWorkers := fs.Int("gen-workers", 1, "generator workers")
	writerShards := fs.Int("writer-shards", 0, "number of writer shards")
	metricsAddr := fs.String("metrics-addr", "", "serve /metrics, /healthz, /config on this address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "seclogsim gen: --config is required")
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seclogsim gen: %v\n", err)
		return 1
	}
	applyGenOverrides(cfg, *outputDir, *maxEvents, *maxSeconds, *metricsIntervalMS, *writerShards)

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg.Redacted()); err != nil {
			fmt.Fprintf(os.Stderr, "seclogsim gen: %v\n", err)
			return 1
		}
		return 0
	}

	if *genWorkers > 1 {
		logging.Warn().Int("gen_workers", *genWorkers).
			Msg("generation is single-threaded to preserve time ordering; extra workers ignored")
	}

	if err := generate(cfg, *metricsAddr); err != nil {
		logging.Error().Err(err).Msg("run failed")
		fmt.Fprintf(os.Stderr, "seclogsim gen: %v\n", err)
		return 1
	}
	return 0
}

func applyGenOverrides(cfg *config.Config, outputDir string, maxEvents uint64, maxSeconds float64, metricsIntervalMS uint64, writerShards int) {
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if maxEvents > 0 {
		cfg.MaxEvents = maxEvents
	}
	if maxSeconds > 0 {
		cfg.MaxSeconds = maxSeconds
	}
	if metricsIntervalMS > 0 {
		cfg.MetricsIntervalMS = metricsIntervalMS
	}
	if writerShards > 0 {
		cfg.WriterShards = writerShards
	}
}

// generate wires the full pipeline and runs it to completion.
func generate(cfg *config.Config, metricsAddr string) error {
	start, err := cfg.Traffic.Start()
	if err != nil {
		return err
	}

	pop, err := loadOrGeneratePopulation(cfg, start)
	if err != nil {
		return err
	}
	logging.Info().Int("actors", pop.Len()).Time("start", start).Msg("population ready")

	sources, err := buildSources(cfg, pop, start)
	if err != nil {
		return err
	}

	nShards := cfg.WriterShards
	if nShards <= 0 {
		nShards = min(runtime.NumCPU(), 4)
	}

	counters := &metrics.Counters{}
	shards := make([]*writer.Shard, nShards)
	for i := range shards {
		routes := make(map[string]sink.Sink, len(cfg.Sources))
		for _, sc := range cfg.Sources {
			s, err := sink.New(sinkConfig(cfg, sc))
			if err != nil {
				return err
			}
			routes[sc.ID] = s
		}
		shards[i] = writer.NewShard(fmt.Sprintf("shard-%d", i), sink.NewRouter(routes), counters)
	}

	var tee dispatch.Tee
	if cfg.Transport.NATS.Enabled {
		pub, err := transport.New(cfg.Transport.NATS)
		if err != nil {
			return err
		}
		defer pub.Close()
		tee = pub
	}

	limits := dispatch.Limits{
		MaxEvents:  cfg.MaxEvents,
		MaxSeconds: cfg.MaxSeconds,
		TimeScale:  cfg.Traffic.TimeScale,
	}
	d := dispatch.New(sources, shards, limits, tee)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	for i, sh := range shards {
		tree.AddWriterService(fmt.Sprintf("writer-shard-%d", i), sh)
	}

	dispatcher := &notifyOnExit{svc: d, done: make(chan struct{})}
	tree.AddDispatchService("dispatcher", dispatcher)

	reporter := metrics.NewReporter(counters, time.Duration(cfg.MetricsIntervalMS)*time.Millisecond)
	tree.AddDispatchService("metrics-reporter", reporter)

	if metricsAddr != "" {
		tree.AddObservabilityService("httpapi", httpapi.New(metricsAddr, cfg.Redacted()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	treeErr := make(chan error, 1)
	go func() { treeErr <- tree.Serve(ctx) }()

	select {
	case <-dispatcher.done:
		// The dispatcher closed every shard before exiting; wind the rest
		// of the tree down.
		cancel()
		err = <-treeErr
	case err = <-treeErr:
	}

	if dErr := dispatcher.Err(); dErr != nil {
		return dErr
	}
	if err != nil && ctx.Err() == nil {
		return err
	}

	logging.Info().
		Uint64("events", counters.Events()).
		Uint64("bytes", counters.Bytes()).
		Msg("run complete")
	return nil
}

// notifyOnExit closes done the first time the wrapped service returns,
// letting the main goroutine distinguish "dispatcher finished" from
// "tree torn down", and retains the service's exit error.
type notifyOnExit struct {
	svc  suture.Service
	done chan struct{}

	mu   sync.Mutex
	err  error
	once sync.Once
}

func (n *notifyOnExit) Serve(ctx context.Context) error {
	err := n.svc.Serve(ctx)
	n.mu.Lock()
	if n.err == nil && !errors.Is(err, context.Canceled) {
		n.err = err
	}
	n.mu.Unlock()
	n.once.Do(func() { close(n.done) })
	return err
}

func (n *notifyOnExit) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

func sinkConfig(cfg *config.Config, sc source.Config) sink.Config {
	dir := sc.Output.Dir
	if dir == "" {
		dir = cfg.Output.Dir
	}
	return sink.Config{
		Dir: dir,
		Format: sink.Format{
			Type:        sc.Output.Format.Type,
			Compression: sc.Output.Format.Compression,
		},
		TargetSizeMB:  cfg.Output.Files.TargetSizeMB,
		MaxAgeSeconds: cfg.Output.Files.MaxAgeSeconds,
		SourceID:      sc.ID,
		CloudTrail:    sc.Type == "cloudtrail",
	}
}

// loadOrGeneratePopulation prefers a previously persisted population file;
// otherwise it synthesizes one from the standalone population config, and
// persists it when a population path is configured so later runs reuse the
// same actors.
func loadOrGeneratePopulation(cfg *config.Config, start time.Time) (*population.ActorPopulation, error) {
	popPath := cfg.Population.ActorPopulationPath
	if popPath != "" {
		if _, err := os.Stat(popPath); err == nil {
			return population.Load(popPath)
		}
	}

	if cfg.Population.ActorsConfigPath == "" {
		return nil, fmt.Errorf("population: neither actor_population_path (existing file) nor actors_config_path configured")
	}
	popCfg, err := config.LoadPopulation(cfg.Population.ActorsConfigPath)
	if err != nil {
		return nil, err
	}
	if popCfg.Seed == nil {
		popCfg.Seed = cfg.Seed
	}

	pop, err := population.Generate(*popCfg, start)
	if err != nil {
		return nil, err
	}
	if popPath != "" {
		if err := population.Save(popPath, pop); err != nil {
			return nil, err
		}
	}
	return pop, nil
}

// buildSources constructs one source generator per [[source]] entry, each
// over its own clone of the population and its own seeded RNG stream so
// sources stay independent and the whole run reproduces from one seed.
func buildSources(cfg *config.Config, pop *population.ActorPopulation, start time.Time) ([]source.Source, error) {
	sources := make([]source.Source, 0, len(cfg.Sources))
	for i, sc := range cfg.Sources {
		r := rng.FromEntropy()
		if cfg.Seed != nil {
			r = rng.New(*cfg.Seed + uint64(i)*0x9E3779B97F4A7C15)
		}
		switch sc.Type {
		case "cloudtrail":
			sources = append(sources, source.NewCloudTrailSource(sc, pop, r, start))
		case "entra_id":
			sources = append(sources, source.NewEntraSource(sc, pop, r, start))
		default:
			return nil, fmt.Errorf("source %s: unknown type %q", sc.ID, sc.Type)
		}
	}
	return sources, nil
}

func runActors(args []string) int {
	fs := flag.NewFlagSet("actors", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the population TOML config")
	outputPath := fs.String("output", "", "population file to write")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "seclogsim actors: --config and --output are required")
		return 1
	}

	logging.Init(logging.DefaultConfig())

	popCfg, err := config.LoadPopulation(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seclogsim actors: %v\n", err)
		return 1
	}
	pop, err := population.Generate(*popCfg, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "seclogsim actors: %v\n", err)
		return 1
	}
	if err := population.Save(*outputPath, pop); err != nil {
		fmt.Fprintf(os.Stderr, "seclogsim actors: %v\n", err)
		return 1
	}
	logging.Info().Int("actors", pop.Len()).Str("path", *outputPath).Msg("population written")
	return 0
}
