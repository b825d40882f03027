package store

import (
	"context"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// GetCallGraph builds the whole forward/reverse adjacency in one table
// scan (spec §4.2: "the call graph is small enough relative to project
// size to build in memory from a single scan; no recursive SQL is
// attempted"). logLargeEdgeCount warns, but never fails, once the edge
// count passes the single-scan comfort threshold.
func (s *Store) GetCallGraph(ctx context.Context) (*CallGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT caller_name, callee_name FROM function_calls`)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "query function_calls", err)
	}
	defer rows.Close()

	graph := &CallGraph{
		Forward: make(map[string]map[string]struct{}),
		Reverse: make(map[string]map[string]struct{}),
	}
	count := 0
	for rows.Next() {
		var caller, callee string
		if err := rows.Scan(&caller, &callee); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan call edge", err)
		}
		if graph.Forward[caller] == nil {
			graph.Forward[caller] = make(map[string]struct{})
		}
		graph.Forward[caller][callee] = struct{}{}
		if graph.Reverse[callee] == nil {
			graph.Reverse[callee] = make(map[string]struct{})
		}
		graph.Reverse[callee][caller] = struct{}{}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate call edges", err)
	}
	logLargeEdgeCount(count)
	return graph, nil
}

// GetCallEdgesByCallees returns every function_calls row whose callee is
// one of calleeNames, carrying the caller's site file/line so impact can
// attach call-site context without a second lookup per caller (spec
// §4.6: "callers = reverse_adj[target] with context (site line,
// snippet)").
func (s *Store) GetCallEdgesByCallees(ctx context.Context, calleeNames []string) ([]CallEdge, error) {
	if len(calleeNames) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	placeholders, args := inClause(toAny(calleeNames))
	rows, err := s.db.QueryContext(ctx,
		`SELECT caller_name, callee_name, caller_file, caller_line FROM function_calls
		 WHERE callee_name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "query call edges by callee", err)
	}
	defer rows.Close()

	var out []CallEdge
	for rows.Next() {
		var e CallEdge
		if err := rows.Scan(&e.CallerName, &e.CalleeName, &e.CallerFile, &e.CallerLine); err != nil {
			return nil, cqserrors.Wrap(cqserrors.KindStore, "scan call edge row", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, cqserrors.Wrap(cqserrors.KindStore, "iterate call edge rows", err)
	}
	return out, nil
}
