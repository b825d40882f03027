package store

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// GetMetadata reads one metadata row, returning ok=false when absent.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, cqserrors.Wrap(cqserrors.KindStore, "get metadata", err)
	}
	return value, true, nil
}

// SetMetadata upserts one metadata row.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata(key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "set metadata", err)
	}
	return nil
}

// SaveCheckpoint persists mid-index progress so a crashed or interrupted
// index run can resume rather than restart (spec §4.2's checkpoint
// metadata keys: stage/total/embedded/timestamp/model).
func (s *Store) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	kv := map[string]string{
		MetaCheckpointStage:     cp.Stage,
		MetaCheckpointTotal:     strconv.Itoa(cp.Total),
		MetaCheckpointEmbedded:  strconv.Itoa(cp.Embedded),
		MetaCheckpointTimestamp: strconv.FormatInt(cp.Timestamp.UnixMilli(), 10),
		MetaCheckpointModel:     cp.EmbedderModel,
	}
	for k, v := range kv {
		if err := s.SetMetadata(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// LoadCheckpoint reads back the checkpoint saved by SaveCheckpoint. ok is
// false when no checkpoint (or only a partial one) is present, since a
// resume decision needs all five fields to be meaningful.
func (s *Store) LoadCheckpoint(ctx context.Context) (Checkpoint, bool, error) {
	stage, ok, err := s.GetMetadata(ctx, MetaCheckpointStage)
	if err != nil || !ok {
		return Checkpoint{}, false, err
	}
	totalStr, okTotal, err := s.GetMetadata(ctx, MetaCheckpointTotal)
	if err != nil {
		return Checkpoint{}, false, err
	}
	embeddedStr, okEmbedded, err := s.GetMetadata(ctx, MetaCheckpointEmbedded)
	if err != nil {
		return Checkpoint{}, false, err
	}
	tsStr, okTS, err := s.GetMetadata(ctx, MetaCheckpointTimestamp)
	if err != nil {
		return Checkpoint{}, false, err
	}
	model, okModel, err := s.GetMetadata(ctx, MetaCheckpointModel)
	if err != nil {
		return Checkpoint{}, false, err
	}
	if !okTotal || !okEmbedded || !okTS || !okModel {
		return Checkpoint{}, false, nil
	}

	total, _ := strconv.Atoi(totalStr)
	embedded, _ := strconv.Atoi(embeddedStr)
	tsMillis, _ := strconv.ParseInt(tsStr, 10, 64)

	return Checkpoint{
		Stage:         stage,
		Total:         total,
		Embedded:      embedded,
		Timestamp:     time.UnixMilli(tsMillis),
		EmbedderModel: model,
	}, true, nil
}

// ClearCheckpoint removes all five checkpoint keys, marking the index as
// having no in-progress (resumable) run.
func (s *Store) ClearCheckpoint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	keys := []string{MetaCheckpointStage, MetaCheckpointTotal, MetaCheckpointEmbedded,
		MetaCheckpointTimestamp, MetaCheckpointModel}
	placeholders, args := inClause(toAny(keys))
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (`+placeholders+`)`, args...); err != nil {
		return cqserrors.Wrap(cqserrors.KindStore, "clear checkpoint", err)
	}
	return nil
}
