// Package config loads and persists CQS's TOML configuration (spec §6):
// scalar search-tuning fields plus an optional array of `[[reference]]`
// entries, merged from defaults, the per-user config, the per-project
// config, and CQS_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// referenceNamePattern is spec §6's reference-name allow-list.
var referenceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Config is the complete CQS configuration.
type Config struct {
	Version     int               `toml:"version"`
	Paths       PathsConfig       `toml:"paths"`
	Search      SearchConfig      `toml:"search"`
	Embedder    EmbedderConfig    `toml:"embedder"`
	Performance PerformanceConfig `toml:"performance"`
	Watch       WatchConfig       `toml:"watch"`
	References  []Reference       `toml:"reference"`
}

// PathsConfig adds to (never replaces) the scanner's own built-in
// ignore rules.
type PathsConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// SearchConfig tunes internal/search's hybrid fusion.
type SearchConfig struct {
	BM25Weight         float64 `toml:"bm25_weight"`
	SemanticWeight     float64 `toml:"semantic_weight"`
	RRFConstant        int     `toml:"rrf_constant"`
	MaxResults         int     `toml:"max_results"`
	MaxTestSearchDepth int     `toml:"max_test_search_depth"`
}

// EmbedderConfig tunes internal/embedder.
type EmbedderConfig struct {
	Model       string `toml:"model"`
	BatchSize   int    `toml:"batch_size"`
	IdleTimeout string `toml:"idle_timeout"`
}

// PerformanceConfig tunes internal/pipeline.
type PerformanceConfig struct {
	IndexWorkers     int `toml:"index_workers"`
	WalkerBatchSize  int `toml:"walker_batch_size"`
	ChannelDepth     int `toml:"channel_depth"`
	SQLiteCacheMB    int `toml:"sqlite_cache_mb"`
	CallGraphWarnCap int `toml:"call_graph_warn_cap"`
}

// WatchConfig tunes internal/pipeline's watch mode.
type WatchConfig struct {
	Debounce string `toml:"debounce"`
}

// Reference is one `[[reference]]` entry: a named pointer into
// ~/.local/share/cqs/refs/<name>/ (internal/projectreg owns materializing
// these on disk; Config only carries the declared name/path pairing).
type Reference struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// NewConfig returns a Config populated with CQS's defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Search: SearchConfig{
			BM25Weight:         0.5,
			SemanticWeight:     0.5,
			RRFConstant:        60,
			MaxResults:         20,
			MaxTestSearchDepth: 3,
		},
		Embedder: EmbedderConfig{
			Model:       "static-hash-v1",
			BatchSize:   32,
			IdleTimeout: "10m",
		},
		Performance: PerformanceConfig{
			IndexWorkers:     runtime.NumCPU(),
			WalkerBatchSize:  1000,
			ChannelDepth:     256,
			SQLiteCacheMB:    16,
			CallGraphWarnCap: 500_000,
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
	}
}

// GetUserConfigDir returns the per-user CQS config directory, following
// the XDG base directory spec (spec §6: `~/.config/cqs/`).
func GetUserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cqs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "cqs")
	}
	return filepath.Join(home, ".config", "cqs")
}

// GetUserConfigPath returns the per-user config file path.
func GetUserConfigPath() string {
	return filepath.Join(GetUserConfigDir(), "config.toml")
}

// UserConfigExists reports whether the per-user config file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds a Config for dir (a project root) in order of increasing
// precedence: hardcoded defaults, the per-user config, the per-project
// config (`.cqs.toml` then `.cqs.yml`, both parsed as TOML), then CQS_*
// environment variables.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadProjectConfig(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadTOML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadProjectConfig(dir string) error {
	for _, name := range []string{".cqs.toml", ".cqs.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadTOML(path)
		}
	}
	return nil
}

func (c *Config) loadTOML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "read config file "+path, err)
	}
	var parsed Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return cqserrors.Wrap(cqserrors.KindParse, "parse config file "+path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays other's non-zero fields onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Search.BM25Weight != 0 {
		c.Search.BM25Weight = other.Search.BM25Weight
	}
	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.MaxTestSearchDepth != 0 {
		c.Search.MaxTestSearchDepth = other.Search.MaxTestSearchDepth
	}

	if other.Embedder.Model != "" {
		c.Embedder.Model = other.Embedder.Model
	}
	if other.Embedder.BatchSize != 0 {
		c.Embedder.BatchSize = other.Embedder.BatchSize
	}
	if other.Embedder.IdleTimeout != "" {
		c.Embedder.IdleTimeout = other.Embedder.IdleTimeout
	}

	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
	if other.Performance.WalkerBatchSize != 0 {
		c.Performance.WalkerBatchSize = other.Performance.WalkerBatchSize
	}
	if other.Performance.ChannelDepth != 0 {
		c.Performance.ChannelDepth = other.Performance.ChannelDepth
	}
	if other.Performance.SQLiteCacheMB != 0 {
		c.Performance.SQLiteCacheMB = other.Performance.SQLiteCacheMB
	}
	if other.Performance.CallGraphWarnCap != 0 {
		c.Performance.CallGraphWarnCap = other.Performance.CallGraphWarnCap
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if len(other.References) > 0 {
		c.References = append(c.References, other.References...)
	}
}

// applyEnvOverrides applies CQS_* environment variable overrides, the
// highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CQS_BM25_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.BM25Weight = w
		}
	}
	if v := os.Getenv("CQS_SEMANTIC_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 && w <= 1 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("CQS_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("CQS_EMBEDDER_MODEL"); v != "" {
		c.Embedder.Model = v
	}
	if v := os.Getenv("CQS_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.IndexWorkers = n
		}
	}
}

// Validate rejects a configuration that would otherwise fail silently or
// surprisingly downstream.
func (c *Config) Validate() error {
	if c.Search.BM25Weight < 0 || c.Search.BM25Weight > 1 {
		return cqserrors.New(cqserrors.KindValidation, fmt.Sprintf("bm25_weight must be in [0,1], got %f", c.Search.BM25Weight))
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return cqserrors.New(cqserrors.KindValidation, fmt.Sprintf("semantic_weight must be in [0,1], got %f", c.Search.SemanticWeight))
	}
	if c.Search.RRFConstant <= 0 {
		return cqserrors.New(cqserrors.KindValidation, "rrf_constant must be positive")
	}
	if c.Search.MaxResults <= 0 {
		return cqserrors.New(cqserrors.KindValidation, "max_results must be positive")
	}
	if c.Performance.IndexWorkers <= 0 {
		return cqserrors.New(cqserrors.KindValidation, "index_workers must be positive")
	}
	if c.Performance.ChannelDepth <= 0 {
		return cqserrors.New(cqserrors.KindValidation, "channel_depth must be positive")
	}
	for _, ref := range c.References {
		if err := ValidateReferenceName(ref.Name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateReferenceName enforces spec §6's reference-name allow-list,
// rejecting path-traversal-shaped names before they ever reach a
// filesystem path under ~/.local/share/cqs/refs/.
func ValidateReferenceName(name string) error {
	if name == "" || !referenceNamePattern.MatchString(name) {
		return cqserrors.New(cqserrors.KindValidation, "reference name must match [A-Za-z0-9_-]+").WithDetail("name", name)
	}
	if strings.Contains(name, "..") {
		return cqserrors.New(cqserrors.KindValidation, "reference name must not contain '..'").WithDetail("name", name)
	}
	return nil
}

// Write atomically persists cfg to path (spec §6: "Atomic write identical
// to notes" — tempfile-in-same-dir + fsync + rename).
func Write(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindParse, "marshal config", err)
	}
	return AtomicWriteFile(path, data, 0o600)
}

// AtomicWriteFile writes data to path via a tempfile in the same
// directory, fsync, rename, and (best-effort) directory fsync, so a
// crash mid-write never corrupts an existing config/notes file.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "create config directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "create temp config file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return cqserrors.Wrap(cqserrors.KindIO, "write temp config file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return cqserrors.Wrap(cqserrors.KindIO, "fsync temp config file", err)
	}
	if err := tmp.Close(); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "close temp config file", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "chmod temp config file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "rename config file into place", err)
	}

	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		_ = dirFile.Close()
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a `.git` directory
// or a `.cqs.toml`/`.cqs.yml` file, falling back to startDir itself.
func FindProjectRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", cqserrors.Wrap(cqserrors.KindIO, "resolve start directory", err)
	}

	dir := abs
	for {
		if dirExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		if fileExists(filepath.Join(dir, ".cqs.toml")) || fileExists(filepath.Join(dir, ".cqs.yml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
