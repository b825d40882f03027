package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/scanner"
)

// walkedFile is one file the walker stage hands downstream, mtime
// captured at enumeration time per spec §4.4's parser-pool contract
// ("not at write time").
type walkedFile struct {
	origin string // relative to ProjectRoot, forward-slash normalised
	absPath string
	mtime   int64 // Unix milliseconds
}

// runWalker discovers files under opts.ProjectRoot and emits them to out
// in batches of opts.WalkerBatchSize, respecting cancellation at each
// batch boundary. The channel carries individual files rather than
// pre-built []walkedFile batches; batching here only controls how many
// files accumulate before the walker checks ctx and the cancel flag,
// matching spec §4.4's "sends them in file-batches... rather than one
// giant collection" without forcing downstream stages to deal in slices.
func runWalker(ctx context.Context, sc *scanner.Scanner, opts Options, cancelled *cancelFlag, out chan<- walkedFile) (count int, seen map[string]struct{}, err error) {
	defer close(out)

	seen = make(map[string]struct{})

	scanOpts := &scanner.ScanOptions{
		RootDir:          opts.ProjectRoot,
		IncludePatterns:  opts.IncludePatterns,
		ExcludePatterns:  opts.ExcludePatterns,
		RespectGitignore: true,
	}

	results, err := sc.Scan(ctx, scanOpts)
	if err != nil {
		return 0, seen, cqserrors.Wrap(cqserrors.KindIO, "start walk", err)
	}

	batchSize := 0
	for res := range results {
		if res.Error != nil {
			continue
		}
		if res.File == nil || res.File.ContentType != scanner.ContentTypeCode && res.File.ContentType != scanner.ContentTypeMarkdown {
			continue
		}

		rel, err := filepath.Rel(opts.ProjectRoot, res.File.AbsPath)
		if err != nil {
			rel = res.File.Path
		}

		wf := walkedFile{
			origin:  filepath.ToSlash(rel),
			absPath: res.File.AbsPath,
			mtime:   res.File.ModTime.UnixMilli(),
		}
		seen[wf.origin] = struct{}{}

		select {
		case out <- wf:
			count++
			batchSize++
		case <-ctx.Done():
			return count, seen, cqserrors.Cancelled("walk")
		}

		if batchSize >= opts.WalkerBatchSize {
			batchSize = 0
			if cancelled.isSet() {
				return count, seen, cqserrors.Cancelled("walk")
			}
		}
	}
	return count, seen, nil
}

// runFileList feeds a fixed list of origins (watch mode's debounced
// batch) through the same stage contract as runWalker, without
// consulting the scanner or gitignore rules again — the caller has
// already decided these paths are in scope.
func runFileList(ctx context.Context, projectRoot string, origins []string, cancelled *cancelFlag, out chan<- walkedFile) (int, error) {
	defer close(out)

	count := 0
	for _, origin := range origins {
		abs := filepath.Join(projectRoot, filepath.FromSlash(origin))
		info, statErr := os.Stat(abs)
		if statErr != nil {
			continue
		}
		wf := walkedFile{
			origin:  filepath.ToSlash(origin),
			absPath: abs,
			mtime:   info.ModTime().UnixMilli(),
		}
		select {
		case out <- wf:
			count++
		case <-ctx.Done():
			return count, cqserrors.Cancelled("watch-mode file list")
		}
		if cancelled.isSet() {
			return count, cqserrors.Cancelled("watch-mode file list")
		}
	}
	return count, nil
}
