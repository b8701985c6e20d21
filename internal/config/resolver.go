// Package config resolves the settings of the lja command from a YAML file,
// LJA_* environment variables and command-line flags, in increasing
// precedence. Every resolved value records where it came from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// Int parses the value as an int.
func (v ResolvedValue) Int() (int, error) {
	n, err := strconv.Atoi(v.Value)
	if err != nil {
		return 0, fmt.Errorf("%s (%s): %w", v.From, v.Source, err)
	}
	return n, nil
}

// Int64 parses the value as an int64.
func (v ResolvedValue) Int64() (int64, error) {
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s (%s): %w", v.From, v.Source, err)
	}
	return n, nil
}

// Bool parses the value as a bool.
func (v ResolvedValue) Bool() (bool, error) {
	b, err := strconv.ParseBool(v.Value)
	if err != nil {
		return false, fmt.Errorf("%s (%s): %w", v.From, v.Source, err)
	}
	return b, nil
}

type ResolveOptions struct {
	ConfigPath string
	// CLI holds flag values keyed by setting name (e.g. "neighbors").
	// Empty values are ignored.
	CLI map[string]string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	Namespace ResolvedValue `json:"namespace"`
	Side      ResolvedValue `json:"side"`

	Backend   ResolvedValue `json:"backend"`
	Root      ResolvedValue `json:"root"`
	Bucket    ResolvedValue `json:"bucket"`
	Prefix    ResolvedValue `json:"prefix"`
	Endpoint  ResolvedValue `json:"endpoint"`
	Region    ResolvedValue `json:"region"`
	AccessKey ResolvedValue `json:"access_key"`
	SecretKey ResolvedValue `json:"-"`
	UseSSL    ResolvedValue `json:"use_ssl"`

	Neighbors     ResolvedValue `json:"neighbors"`
	MaxClusters   ResolvedValue `json:"max_clusters"`
	CandidatePool ResolvedValue `json:"candidate_pool"`
	Rank          ResolvedValue `json:"rank"`
	Seed          ResolvedValue `json:"seed"`

	Similarity ResolvedValue `json:"similarity"`
	StoreAll   ResolvedValue `json:"store_all"`
	Plot       ResolvedValue `json:"plot"`

	Workers     ResolvedValue `json:"workers"`
	CacheBytes  ResolvedValue `json:"cache_bytes"`
	IOLimit     ResolvedValue `json:"io_limit"`
	Compression ResolvedValue `json:"compression"`
	Codec       ResolvedValue `json:"codec"`

	LogLevel    ResolvedValue `json:"log_level"`
	LogFormat   ResolvedValue `json:"log_format"`
	MetricsAddr ResolvedValue `json:"metrics_addr"`
}

type fileConfig struct {
	Namespace string `yaml:"namespace"`
	Side      string `yaml:"side"`
	Storage   struct {
		Backend   string `yaml:"backend"`
		Root      string `yaml:"root"`
		Bucket    string `yaml:"bucket"`
		Prefix    string `yaml:"prefix"`
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		UseSSL    *bool  `yaml:"use_ssl"`
	} `yaml:"storage"`
	Cluster struct {
		Neighbors     *int   `yaml:"neighbors"`
		MaxClusters   *int   `yaml:"max_clusters"`
		CandidatePool *int   `yaml:"candidate_pool"`
		Rank          *int   `yaml:"rank"`
		Seed          *int64 `yaml:"seed"`
	} `yaml:"cluster"`
	Construct struct {
		Similarity string `yaml:"similarity"`
		StoreAll   *bool  `yaml:"store_all"`
		Plot       *bool  `yaml:"plot"`
	} `yaml:"construct"`
	Runtime struct {
		Workers     *int   `yaml:"workers"`
		CacheBytes  *int64 `yaml:"cache_bytes"`
		IOLimit     *int64 `yaml:"io_limit"`
		Compression string `yaml:"compression"`
		Codec       string `yaml:"codec"`
	} `yaml:"runtime"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// setting binds a resolved value to its environment variable and flag name.
type setting struct {
	name string
	env  string
	def  string
	dst  *ResolvedValue
}

func (r *ResolvedConfig) settings() []setting {
	return []setting{
		{"namespace", "LJA_NAMESPACE", "", &r.Namespace},
		{"side", "LJA_SIDE", "left", &r.Side},
		{"backend", "LJA_BACKEND", "local", &r.Backend},
		{"root", "LJA_ROOT", ".", &r.Root},
		{"bucket", "LJA_BUCKET", "", &r.Bucket},
		{"prefix", "LJA_PREFIX", "", &r.Prefix},
		{"endpoint", "LJA_ENDPOINT", "", &r.Endpoint},
		{"region", "LJA_REGION", "", &r.Region},
		{"access-key", "LJA_ACCESS_KEY", "", &r.AccessKey},
		{"secret-key", "LJA_SECRET_KEY", "", &r.SecretKey},
		{"use-ssl", "LJA_USE_SSL", "true", &r.UseSSL},
		{"neighbors", "LJA_NEIGHBORS", "50", &r.Neighbors},
		{"max-clusters", "LJA_MAX_CLUSTERS", "200", &r.MaxClusters},
		{"candidate-pool", "LJA_CANDIDATE_POOL", "2", &r.CandidatePool},
		{"rank", "LJA_RANK", "5", &r.Rank},
		{"seed", "LJA_SEED", "0", &r.Seed},
		{"similarity", "LJA_SIMILARITY", "dot", &r.Similarity},
		{"store-all", "LJA_STORE_ALL", "false", &r.StoreAll},
		{"plot", "LJA_PLOT", "false", &r.Plot},
		{"workers", "LJA_WORKERS", "1", &r.Workers},
		{"cache-bytes", "LJA_CACHE_BYTES", "0", &r.CacheBytes},
		{"io-limit", "LJA_IO_LIMIT", "0", &r.IOLimit},
		{"compression", "LJA_COMPRESSION", "zstd", &r.Compression},
		{"codec", "LJA_CODEC", "go-json", &r.Codec},
		{"log-level", "LJA_LOG_LEVEL", "info", &r.LogLevel},
		{"log-format", "LJA_LOG_FORMAT", "text", &r.LogFormat},
		{"metrics-addr", "LJA_METRICS_ADDR", "", &r.MetricsAddr},
	}
}

// Names returns the setting names accepted in ResolveOptions.CLI.
func Names() []string {
	var r ResolvedConfig
	s := r.settings()
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.name
	}
	return out
}

// DefaultConfigPath returns $LJA_CONFIG, or lja.yaml in the working directory.
func DefaultConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("LJA_CONFIG")); p != "" {
		return p
	}
	return "lja.yaml"
}

func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}
	settings := out.settings()
	for _, s := range settings {
		if s.def != "" {
			*s.dst = ResolvedValue{Value: s.def, Source: SourceDefault, From: "built-in default"}
		}
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		applyFile(&out, cfg, path)
	}

	for _, s := range settings {
		applyEnv(s.dst, s.env)
	}
	for _, s := range settings {
		apply(s.dst, opts.CLI[s.name], SourceCLI, "--"+s.name)
	}

	if out.Backend.Value == "local" {
		out.Root.Value = expandUserPath(out.Root.Value)
	}
	return out, nil
}

func applyFile(out *ResolvedConfig, cfg *fileConfig, path string) {
	apply(&out.Namespace, cfg.Namespace, SourceConfig, path)
	apply(&out.Side, cfg.Side, SourceConfig, path)

	apply(&out.Backend, cfg.Storage.Backend, SourceConfig, path)
	apply(&out.Root, cfg.Storage.Root, SourceConfig, path)
	apply(&out.Bucket, cfg.Storage.Bucket, SourceConfig, path)
	apply(&out.Prefix, cfg.Storage.Prefix, SourceConfig, path)
	apply(&out.Endpoint, cfg.Storage.Endpoint, SourceConfig, path)
	apply(&out.Region, cfg.Storage.Region, SourceConfig, path)
	apply(&out.AccessKey, cfg.Storage.AccessKey, SourceConfig, path)
	apply(&out.SecretKey, cfg.Storage.SecretKey, SourceConfig, path)
	applyBool(&out.UseSSL, cfg.Storage.UseSSL, path)

	applyInt(&out.Neighbors, cfg.Cluster.Neighbors, path)
	applyInt(&out.MaxClusters, cfg.Cluster.MaxClusters, path)
	applyInt(&out.CandidatePool, cfg.Cluster.CandidatePool, path)
	applyInt(&out.Rank, cfg.Cluster.Rank, path)
	applyInt64(&out.Seed, cfg.Cluster.Seed, path)

	apply(&out.Similarity, cfg.Construct.Similarity, SourceConfig, path)
	applyBool(&out.StoreAll, cfg.Construct.StoreAll, path)
	applyBool(&out.Plot, cfg.Construct.Plot, path)

	applyInt(&out.Workers, cfg.Runtime.Workers, path)
	applyInt64(&out.CacheBytes, cfg.Runtime.CacheBytes, path)
	applyInt64(&out.IOLimit, cfg.Runtime.IOLimit, path)
	apply(&out.Compression, cfg.Runtime.Compression, SourceConfig, path)
	apply(&out.Codec, cfg.Runtime.Codec, SourceConfig, path)

	apply(&out.LogLevel, cfg.Log.Level, SourceConfig, path)
	apply(&out.LogFormat, cfg.Log.Format, SourceConfig, path)
	apply(&out.MetricsAddr, cfg.Metrics.Addr, SourceConfig, path)
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyInt(dst *ResolvedValue, v *int, path string) {
	if v != nil {
		apply(dst, strconv.Itoa(*v), SourceConfig, path)
	}
}

func applyInt64(dst *ResolvedValue, v *int64, path string) {
	if v != nil {
		apply(dst, strconv.FormatInt(*v, 10), SourceConfig, path)
	}
}

func applyBool(dst *ResolvedValue, v *bool, path string) {
	if v != nil {
		apply(dst, strconv.FormatBool(*v), SourceConfig, path)
	}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
