package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/lja"
	"github.com/hupe1980/lja/blobstore"
	blobminio "github.com/hupe1980/lja/blobstore/minio"
	blobs3 "github.com/hupe1980/lja/blobstore/s3"
	"github.com/hupe1980/lja/cluster"
	"github.com/hupe1980/lja/codec"
	"github.com/hupe1980/lja/construct"
	"github.com/hupe1980/lja/distance"
	"github.com/hupe1980/lja/internal/compress"
	"github.com/hupe1980/lja/internal/config"
	"github.com/hupe1980/lja/metrics"
	"github.com/hupe1980/lja/render"
	"github.com/hupe1980/lja/spectral"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0-dev"

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	switch args[0] {
	case "cluster":
		return runCluster(ctx, args[1:], stdout, stderr)
	case "construct":
		return runConstruct(ctx, args[1:], stdout, stderr)
	case "profiles":
		return runProfiles(ctx, args[1:], stdout, stderr)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "lja %s\n", version)
		return nil
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return errUsage
	}
}

// command is a parsed subcommand with its resolved configuration.
type command struct {
	fs       *flag.FlagSet
	cfgPath  *string
	settings map[string]*string
	cfg      config.ResolvedConfig
}

func newCommand(name string, stderr io.Writer) *command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	c := &command{
		fs:       fs,
		cfgPath:  fs.String("config", "", "path to the YAML config (default $LJA_CONFIG or lja.yaml)"),
		settings: make(map[string]*string),
	}
	for _, n := range config.Names() {
		c.settings[n] = fs.String(n, "", "overrides the "+n+" setting")
	}
	return c
}

func (c *command) parse(args []string) error {
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return err
	}

	cli := make(map[string]string, len(c.settings))
	for n, v := range c.settings {
		cli[n] = *v
	}
	cfg, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: *c.cfgPath, CLI: cli})
	if err != nil {
		return err
	}
	if cfg.Namespace.Value == "" {
		return fmt.Errorf("namespace is required (--namespace, LJA_NAMESPACE or %s)", cfg.ConfigPath)
	}
	c.cfg = cfg
	return nil
}

func runCluster(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := newCommand("cluster", stderr)
	layers := c.fs.String("layers", "", "layers to cluster, e.g. 1,2 or 0-3 (default all)")
	if err := c.parse(args); err != nil {
		return err
	}

	a, shutdown, err := openAnalyzer(ctx, c.cfg, stderr)
	if err != nil {
		return err
	}
	defer shutdown()

	opts, err := clusterOptions(c.cfg)
	if err != nil {
		return err
	}
	if *layers != "" {
		ls, err := parseInts(*layers)
		if err != nil {
			return fmt.Errorf("--layers: %w", err)
		}
		opts = append(opts, cluster.WithLayers(ls...))
	}

	table, err := a.Cluster(ctx, c.cfg.Side.Value, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "run %s\n", table.RunID)
	for _, r := range table.Results {
		fmt.Fprintf(stdout, "Layer%d\tclusters=%d\tcandidates=%v\tsilhouette=%.4f\ttook=%s\n",
			r.Layer, r.Count, r.Candidates, r.Silhouette, r.Duration.Round(time.Millisecond))
	}
	return nil
}

func clusterOptions(cfg config.ResolvedConfig) ([]cluster.Option, error) {
	neighbors, err := cfg.Neighbors.Int()
	if err != nil {
		return nil, err
	}
	maxClusters, err := cfg.MaxClusters.Int()
	if err != nil {
		return nil, err
	}
	pool, err := cfg.CandidatePool.Int()
	if err != nil {
		return nil, err
	}
	rank, err := cfg.Rank.Int()
	if err != nil {
		return nil, err
	}
	seed, err := cfg.Seed.Int64()
	if err != nil {
		return nil, err
	}

	return []cluster.Option{
		cluster.WithRank(rank),
		cluster.WithSelectorOptions(
			spectral.WithNeighbors(neighbors),
			spectral.WithMaxClusters(maxClusters),
			spectral.WithCandidatePool(pool),
		),
		cluster.WithClusterOptions(spectral.WithSeed(seed)),
	}, nil
}

func runConstruct(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := newCommand("construct", stderr)
	by := c.fs.String("by", "sample", "target kind: sample or profile")
	granularity := c.fs.String("granularity", "sample", "granularity: sample or profile")
	layers := c.fs.String("layers", "", "layers, e.g. 1,2 or 1-3")
	features := c.fs.String("features", "", "read vector indices, e.g. 0-9")
	targets := c.fs.String("targets", "", "sample or profile indices, e.g. 0,5,7")
	if err := c.parse(args); err != nil {
		return err
	}

	target, err := construct.ParseTarget(*by)
	if err != nil {
		return err
	}
	g, err := construct.ParseGranularity(*granularity)
	if err != nil {
		return err
	}

	var req construct.Request
	for _, f := range []struct {
		name string
		raw  string
		dst  *[]int
	}{
		{"layers", *layers, &req.Layers},
		{"features", *features, &req.Features},
		{"targets", *targets, &req.Targets},
	} {
		if f.raw == "" {
			return fmt.Errorf("--%s is required", f.name)
		}
		v, err := parseInts(f.raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", f.name, err)
		}
		*f.dst = v
	}

	opts, err := constructOptions(c.cfg)
	if err != nil {
		return err
	}

	a, shutdown, err := openAnalyzer(ctx, c.cfg, stderr)
	if err != nil {
		return err
	}
	defer shutdown()

	results, err := a.Construct(ctx, c.cfg.Side.Value, target, g, req, opts...)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(stdout, "Layer%d\tfeature=%d\t%s=%d\tdim=%d\n", r.Layer, r.Feature, target, r.Target, len(r.Vector))
	}
	return nil
}

func constructOptions(cfg config.ResolvedConfig) ([]construct.Option, error) {
	metric, err := distance.ParseMetric(cfg.Similarity.Value)
	if err != nil {
		return nil, err
	}
	sim, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}
	storeAll, err := cfg.StoreAll.Bool()
	if err != nil {
		return nil, err
	}
	return []construct.Option{
		construct.WithSimilarity(sim),
		construct.WithStoreAll(storeAll),
	}, nil
}

func runProfiles(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := newCommand("profiles", stderr)
	layer := c.fs.Int("layer", 0, "layer whose profiles are listed")
	if err := c.parse(args); err != nil {
		return err
	}

	a, shutdown, err := openAnalyzer(ctx, c.cfg, stderr)
	if err != nil {
		return err
	}
	defer shutdown()

	summaries, err := a.Profiles(ctx, c.cfg.Side.Value, *layer)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		if s.Label < 0 {
			fmt.Fprintf(stdout, "%d\t%s\tsamples=%d\n", s.Index, s.Profile, s.Samples)
			continue
		}
		fmt.Fprintf(stdout, "%d\t%s\tsamples=%d\tlabel=%d\tshare=%.2f\n", s.Index, s.Profile, s.Samples, s.Label, s.Share)
	}
	return nil
}

// openAnalyzer wires the storage backend, logging, metrics and runtime
// limits of cfg. shutdown stops the metrics endpoint, if any.
func openAnalyzer(ctx context.Context, cfg config.ResolvedConfig, stderr io.Writer) (*lja.Analyzer, func(), error) {
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, nil, err
	}

	bs, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	workers, err := cfg.Workers.Int()
	if err != nil {
		return nil, nil, err
	}
	cacheBytes, err := cfg.CacheBytes.Int64()
	if err != nil {
		return nil, nil, err
	}
	ioLimit, err := cfg.IOLimit.Int64()
	if err != nil {
		return nil, nil, err
	}
	ct, err := compress.ParseType(cfg.Compression.Value)
	if err != nil {
		return nil, nil, err
	}
	cd, ok := codec.ByName(cfg.Codec.Value)
	if !ok {
		return nil, nil, fmt.Errorf("unknown codec %q (want %s)", cfg.Codec.Value, strings.Join(codec.Names(), " or "))
	}

	opts := []lja.Option{
		lja.WithLogger(logger),
		lja.WithWorkers(workers),
		lja.WithCache(cacheBytes),
		lja.WithIOLimit(ioLimit),
		lja.WithCompression(ct),
		lja.WithCodec(cd),
	}

	plot, err := cfg.Plot.Bool()
	if err != nil {
		return nil, nil, err
	}
	if plot {
		opts = append(opts, lja.WithRenderer(render.NewPNG(bs, render.WithLogger(logger.Logger))))
	}

	shutdown := func() {}
	if addr := cfg.MetricsAddr.Value; addr != "" {
		reg := prometheus.NewRegistry()
		collector, err := metrics.NewPrometheus(reg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, lja.WithMetricsCollector(collector))
		shutdown = serveMetrics(addr, reg, logger)
	}

	return lja.New(bs, cfg.Namespace.Value, opts...), shutdown, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *lja.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func openStore(ctx context.Context, cfg config.ResolvedConfig) (blobstore.BlobStore, error) {
	switch cfg.Backend.Value {
	case "local":
		return blobstore.NewLocalStore(cfg.Root.Value), nil
	case "minio":
		if cfg.Endpoint.Value == "" || cfg.Bucket.Value == "" {
			return nil, errors.New("minio backend needs endpoint and bucket")
		}
		secure, err := cfg.UseSSL.Bool()
		if err != nil {
			return nil, err
		}
		client, err := minio.New(cfg.Endpoint.Value, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey.Value, cfg.SecretKey.Value, ""),
			Secure: secure,
			Region: cfg.Region.Value,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return blobminio.NewStore(client, cfg.Bucket.Value, cfg.Prefix.Value), nil
	case "s3":
		if cfg.Bucket.Value == "" {
			return nil, errors.New("s3 backend needs a bucket")
		}
		var opts []blobs3.Option
		if cfg.Prefix.Value != "" {
			opts = append(opts, blobs3.WithPrefix(cfg.Prefix.Value))
		}
		if cfg.Region.Value != "" {
			opts = append(opts, blobs3.WithRegion(cfg.Region.Value))
		}
		if cfg.Endpoint.Value != "" {
			opts = append(opts, blobs3.WithEndpoint(cfg.Endpoint.Value))
		}
		st, err := blobs3.New(ctx, cfg.Bucket.Value, opts...)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want local, minio or s3)", cfg.Backend.Value)
	}
}

func newLogger(cfg config.ResolvedConfig, w io.Writer) (*lja.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel.Value)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel.Value, err)
	}
	hopts := &slog.HandlerOptions{Level: level}

	switch cfg.LogFormat.Value {
	case "json":
		return lja.NewLogger(slog.NewJSONHandler(w, hopts)), nil
	case "text":
		return lja.NewLogger(slog.NewTextHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", cfg.LogFormat.Value)
	}
}

// parseInts parses comma separated integers and inclusive ranges ("0,2,4-6").
func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", part)
		}
		if !isRange {
			out = append(out, a)
			continue
		}
		b, err := strconv.Atoi(hi)
		if err != nil || b < a {
			return nil, fmt.Errorf("invalid range %q", part)
		}
		for i := a; i <= b; i++ {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no indices given")
	}
	return out, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `lja - layerwise cluster analysis of low-rank decompositions

Usage:
  lja <command> [flags]

Commands:
  cluster     Cluster the write vectors of every layer of a side
  construct   Construct features of read vectors (--by, --granularity)
  profiles    List the distinct profiles of a layer with their class labels
  version     Print the version
  help        Show this help

Settings are read from lja.yaml (or --config / $LJA_CONFIG), overridden by
LJA_* environment variables and then by flags of the same name, e.g.
  lja cluster --namespace mnist --side left --neighbors 50 --rank 5
  lja construct --namespace mnist --layers 1-2 --features 0-9 --targets 0,1 --by sample --granularity profile
`)
}
