// Package notes manages the per-project TOML notes sidecar (spec §6:
// "array-of-tables [[note]]; each entry text, sentiment, optional
// mentions, optional source_file"), distinct from internal/store's
// notes table, which persists the same data for search. Reconcile is
// the bridge between the two: it is the source of truth a user edits by
// hand or through the `cqs notes` CLI, and the store mirror is rebuilt
// from it.
package notes

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"lukechampine.com/blake3"

	"github.com/cqs-dev/cqs/internal/config"
	"github.com/cqs-dev/cqs/internal/cqserrors"
	"github.com/cqs-dev/cqs/internal/store"
)

// Entry is one [[note]] table in the sidecar file.
type Entry struct {
	ID         string   `toml:"id"`
	Text       string   `toml:"text"`
	Sentiment  float64  `toml:"sentiment"`
	Mentions   []string `toml:"mentions,omitempty"`
	SourceFile string   `toml:"source_file,omitempty"`
}

type sidecar struct {
	Note []Entry `toml:"note"`
}

// Load reads the sidecar file at path, returning an empty slice (not an
// error) if it doesn't exist yet.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, cqserrors.Wrap(cqserrors.KindIO, "read notes sidecar", err)
	}
	var sc sidecar
	if err := toml.Unmarshal(data, &sc); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindParse, "parse notes sidecar", err)
	}
	return sc.Note, nil
}

// save atomically writes entries to path, 0600 per spec §6.
func save(path string, entries []Entry) error {
	data, err := toml.Marshal(sidecar{Note: entries})
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindParse, "marshal notes sidecar", err)
	}
	return config.AtomicWriteFile(path, data, 0o600)
}

// Add appends a new entry, assigns it a content-derived id, persists the
// sidecar, and returns the stored entry.
func Add(path string, text string, sentiment float64, mentions []string, sourceFile string) (Entry, error) {
	entries, err := Load(path)
	if err != nil {
		return Entry{}, err
	}

	existing := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		existing[e.ID] = struct{}{}
	}

	entry := Entry{
		ID:         uniqueID(text, sourceFile, existing),
		Text:       text,
		Sentiment:  sentiment,
		Mentions:   mentions,
		SourceFile: sourceFile,
	}
	entries = append(entries, entry)
	if err := save(path, entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Remove deletes the entry with the given id, returning the remaining
// entries. A missing id is a no-op.
func Remove(path, id string) ([]Entry, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	if err := save(path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies mutate to the entry with the given id and persists the
// result. Returns cqserrors.KindValidation if no entry has that id.
func Update(path, id string, mutate func(*Entry)) (Entry, error) {
	entries, err := Load(path)
	if err != nil {
		return Entry{}, err
	}
	for i := range entries {
		if entries[i].ID == id {
			mutate(&entries[i])
			if err := save(path, entries); err != nil {
				return Entry{}, err
			}
			return entries[i], nil
		}
	}
	return Entry{}, cqserrors.New(cqserrors.KindValidation, "no note with that id").WithDetail("id", id)
}

// List returns every entry currently in the sidecar.
func List(path string) ([]Entry, error) {
	return Load(path)
}

// Result summarizes one Reconcile pass.
type Result struct {
	Upserted int
	Deleted  int
	Assigned int // entries that received a new id and were written back
}

// Reconcile syncs the sidecar at path into s: every entry is upserted
// into the store's notes table (entries missing an id are assigned one
// and the sidecar is rewritten so the id survives future reconciles),
// and any store note whose id no longer appears in the sidecar is
// deleted. The sidecar is the source of truth; this never writes text
// the user didn't put there, only ids.
func Reconcile(ctx context.Context, s *store.Store, path string) (Result, error) {
	entries, err := Load(path)
	if err != nil {
		return Result{}, err
	}

	existing := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			existing[e.ID] = struct{}{}
		}
	}

	var res Result
	rewrite := false
	wanted := make(map[string]struct{}, len(entries))
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uniqueID(entries[i].Text, entries[i].SourceFile, existing)
			existing[entries[i].ID] = struct{}{}
			rewrite = true
			res.Assigned++
		}
		wanted[entries[i].ID] = struct{}{}

		n := store.Note{
			ID:         entries[i].ID,
			Text:       entries[i].Text,
			Sentiment:  entries[i].Sentiment,
			Mentions:   entries[i].Mentions,
			SourceFile: entries[i].SourceFile,
		}
		if err := s.UpsertNote(ctx, n); err != nil {
			return res, err
		}
		res.Upserted++
	}

	if rewrite {
		if err := save(path, entries); err != nil {
			return res, err
		}
	}

	storeIDs, err := s.ListNoteIDs(ctx)
	if err != nil {
		return res, err
	}
	var stale []string
	for _, id := range storeIDs {
		if _, ok := wanted[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := s.DeleteNotesByIDs(ctx, stale); err != nil {
			return res, err
		}
		res.Deleted = len(stale)
	}

	return res, nil
}

// uniqueID derives a stable "note:<hash8>" id from text+sourceFile,
// mirroring internal/parser's <origin>:<line>:<hash8> scheme, and
// disambiguates collisions (two notes with identical text) by appending
// a counter suffix.
func uniqueID(text, sourceFile string, taken map[string]struct{}) string {
	sum := blake3.Sum256([]byte(sourceFile + "\x00" + text))
	base := "note:" + hex.EncodeToString(sum[:4])
	id := base
	for n := 1; ; n++ {
		if _, ok := taken[id]; !ok {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}
