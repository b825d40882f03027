package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cqs-dev/cqs/internal/langregistry"
	"github.com/cqs-dev/cqs/internal/parser"
)

// runParsePool fans walked files out across opts.Workers parser.Parser
// instances. One Parser per worker, never shared, per parser.Parser's
// own concurrency contract (its tree-sitter state is reused across
// calls and is not goroutine-safe). Mirrors the teacher's rayon-style
// "parser(s)" fan-out stage from spec §4.4's pipeline diagram, built here
// with a plain WaitGroup over N goroutines rather than a work-stealing
// pool, since the input is already a channel of discrete work items.
func runParsePool(ctx context.Context, registry *langregistry.Registry, opts Options, cancelled *cancelFlag, in <-chan walkedFile, out chan<- parsedFile) (parsed int, parseErrors int) {
	defer close(out)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		counter int
		errs    int
	)

	worker := func() {
		defer wg.Done()
		p := parser.New(registry)
		defer p.Close()

		for wf := range in {
			if cancelled.isSet() {
				continue
			}

			def, ok := registry.ByExtension(filepath.Ext(wf.origin))
			if !ok {
				continue
			}

			content, err := os.ReadFile(wf.absPath)
			if err != nil {
				mu.Lock()
				errs++
				mu.Unlock()
				continue
			}

			res, err := p.Parse(ctx, wf.origin, def.Name, content)
			if err != nil {
				mu.Lock()
				errs++
				mu.Unlock()
				continue
			}

			select {
			case out <- parsedFile{origin: wf.origin, mtime: wf.mtime, result: res}:
				mu.Lock()
				counter++
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}

	workers := opts.Workers
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}
	wg.Wait()

	return counter, errs
}
