package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cqs-dev/cqs/internal/analysis"
	"github.com/cqs-dev/cqs/internal/config"
	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/embedder"
	"github.com/cqs-dev/cqs/internal/langregistry"
	"github.com/cqs-dev/cqs/internal/pipeline"
	"github.com/cqs-dev/cqs/internal/search"
	"github.com/cqs-dev/cqs/internal/store"
	"github.com/cqs-dev/cqs/internal/vectorindex"
)

// dataDirName is the per-project state directory spec §6 names:
// "<project>/.cqs/{index.db, hnsw.graph, ...}".
const dataDirName = ".cqs"

// app bundles every component a CLI command needs against one project.
// Built per command via openApp/openAppReadOnly; both constructors wire
// the store, embedder, vector index, search engine and analyzer for
// every command, including those that only use the store (e.g. `notes`).
type app struct {
	ProjectRoot string
	DataDir     string
	Config      *config.Config

	Store     *store.Store
	Embedder  embedder.Embedder
	Registry  *langregistry.Registry
	IndexCell *vectorindex.Cell
	Engine    *search.Engine
	Analyzer  *analysis.Analyzer
}

func (a *app) dbPath() string {
	return filepath.Join(a.DataDir, "index.db")
}

func (a *app) hnswPrefix() string {
	return filepath.Join(a.DataDir, "hnsw")
}

// notesPath is the per-project notes sidecar spec §6 locates next to
// the project config, not inside .cqs (it's hand-editable, unlike the
// generated index files).
func (a *app) notesPath() string {
	return filepath.Join(a.ProjectRoot, "notes.toml")
}

func resolveProjectRoot(dir string) (string, error) {
	root, err := config.FindProjectRoot(dir)
	if err != nil {
		return "", cqserrors.Wrap(cqserrors.KindValidation, "resolve project root", err)
	}
	return root, nil
}

// openApp opens (or creates) the store for readWrite use plus the
// embedder, language registry, and search/analysis layers. It loads an
// existing HNSW index if present, leaving IndexCell holding a nil Index
// otherwise (search degrades to brute-force — engine checks this).
func openApp(projectDir string) (*app, func(), error) {
	root, err := resolveProjectRoot(projectDir)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}

	a := &app{
		ProjectRoot: root,
		DataDir:     filepath.Join(root, dataDirName),
		Config:      cfg,
		Registry:    langregistry.Default(),
	}

	s, err := store.Open(a.dbPath())
	if err != nil {
		return nil, nil, err
	}
	a.Store = s

	a.Embedder = embedder.NewCachedEmbedder(embedder.NewStaticEmbedder(), embedder.DefaultCacheSize)

	idx, err := vectorindex.Load(a.hnswPrefix(), vectorindex.DefaultConfig(a.Embedder.Dimensions()))
	if err != nil {
		idx = nil // no index built yet, or unreadable; search degrades to brute-force
	}
	a.IndexCell = vectorindex.NewCell(idx)
	a.Engine = search.NewEngine(a.Store, a.IndexCell)
	a.Analyzer = analysis.New(a.Store, a.Engine, a.Registry)

	cleanup := func() { _ = a.Store.Close() }
	return a, cleanup, nil
}

// openAppReadOnly is openApp's read-only counterpart, used by commands
// that only query (search, impact, stats, ...) so they never block a
// concurrent indexing run's advisory lock or mutate the store.
func openAppReadOnly(projectDir string) (*app, func(), error) {
	root, err := resolveProjectRoot(projectDir)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}

	a := &app{
		ProjectRoot: root,
		DataDir:     filepath.Join(root, dataDirName),
		Config:      cfg,
		Registry:    langregistry.Default(),
	}

	s, err := store.OpenReadOnly(a.dbPath())
	if err != nil {
		return nil, nil, err
	}
	a.Store = s

	a.Embedder = embedder.NewCachedEmbedder(embedder.NewStaticEmbedder(), embedder.DefaultCacheSize)

	idx, err := vectorindex.Load(a.hnswPrefix(), vectorindex.DefaultConfig(a.Embedder.Dimensions()))
	if err != nil {
		idx = nil
	}
	a.IndexCell = vectorindex.NewCell(idx)
	a.Engine = search.NewEngine(a.Store, a.IndexCell)
	a.Analyzer = analysis.New(a.Store, a.Engine, a.Registry)

	cleanup := func() { _ = a.Store.Close() }
	return a, cleanup, nil
}

// newPipeline builds a pipeline.Pipeline over a's store/embedder/index,
// used by `index` and `watch`.
func (a *app) newPipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(a.Store, a.IndexCell.Get(), a.Embedder, a.Registry)
}

// pipelineOptions builds pipeline.Options from a's config.
func (a *app) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		ProjectRoot:     a.ProjectRoot,
		IncludePatterns: a.Config.Paths.Include,
		ExcludePatterns: a.Config.Paths.Exclude,
		Workers:         a.Config.Performance.IndexWorkers,
		WalkerBatchSize: a.Config.Performance.WalkerBatchSize,
		EmbedBatchSize:  a.Config.Embedder.BatchSize,
		ChannelDepth:    a.Config.Performance.ChannelDepth,
	}
}

// requireIndex returns a usage-less runtime error when a's store has no
// chunks yet, so query-ish commands fail with a clear message instead
// of an empty result set.
func (a *app) requireIndex(ctx context.Context) error {
	origins, err := a.Store.ListOrigins(ctx)
	if err != nil {
		return err
	}
	if len(origins) == 0 {
		return fmt.Errorf("no index found in %s — run 'cqs index' first", a.ProjectRoot)
	}
	return nil
}
