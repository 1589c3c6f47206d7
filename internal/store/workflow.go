package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"reelforge/internal/assets"
	"reelforge/internal/workflow"
)

// SaveWorkflow replaces the persisted workflow state.
func (s *Store) SaveWorkflow(ctx context.Context, state workflow.State) error {
	payload, err := json.Marshal(state.Artifacts)
	if err != nil {
		return fmt.Errorf("encode artifacts: %w", err)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO workflow_state (id, stage, artifacts_json, updated_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET stage = excluded.stage, artifacts_json = excluded.artifacts_json, updated_at = excluded.updated_at`,
			int(state.Stage), string(payload), s.timestamp())
		return err
	})
}

// LoadWorkflow returns the persisted workflow state, or the initial state when
// nothing has been saved yet.
func (s *Store) LoadWorkflow(ctx context.Context) (workflow.State, error) {
	ctx = ensureContext(ctx)
	var (
		stage int
		raw   string
	)
	err := s.db.QueryRowContext(ctx, "SELECT stage, artifacts_json FROM workflow_state WHERE id = 1").Scan(&stage, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.Initial(), nil
	}
	if err != nil {
		return workflow.State{}, fmt.Errorf("load workflow: %w", err)
	}
	state := workflow.State{Stage: workflow.Stage(stage)}
	if err := json.Unmarshal([]byte(raw), &state.Artifacts); err != nil {
		return workflow.State{}, fmt.Errorf("decode artifacts: %w", err)
	}
	return state, nil
}

// SaveKeywords replaces the persisted keyword states, keeping display order.
func (s *Store) SaveKeywords(ctx context.Context, states []assets.KeywordState) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM keyword_state"); err != nil {
			return err
		}
		now := s.timestamp()
		for i, st := range states {
			preview, err := nullableJSON(st.Preview)
			if err != nil {
				return fmt.Errorf("encode preview for %q: %w", st.Keyword, err)
			}
			asset, err := nullableJSON(st.Asset)
			if err != nil {
				return fmt.Errorf("encode asset for %q: %w", st.Keyword, err)
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO keyword_state (keyword, position, source, status, preview_json, asset_json, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
				st.Keyword, i, st.Source, string(st.Status), preview, asset, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadKeywords returns the persisted keyword states in display order.
func (s *Store) LoadKeywords(ctx context.Context) ([]assets.KeywordState, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT keyword, source, status, preview_json, asset_json FROM keyword_state ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	defer rows.Close()

	var out []assets.KeywordState
	for rows.Next() {
		var (
			st             assets.KeywordState
			status         string
			preview, asset sql.NullString
		)
		if err := rows.Scan(&st.Keyword, &st.Source, &status, &preview, &asset); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		st.Status = assets.Status(status)
		if preview.Valid {
			if err := json.Unmarshal([]byte(preview.String), &st.Preview); err != nil {
				return nil, fmt.Errorf("decode preview for %q: %w", st.Keyword, err)
			}
		}
		if asset.Valid {
			if err := json.Unmarshal([]byte(asset.String), &st.Asset); err != nil {
				return nil, fmt.Errorf("decode asset for %q: %w", st.Keyword, err)
			}
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ClearWorkflow removes the persisted workflow and keyword states.
func (s *Store) ClearWorkflow(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM workflow_state"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM keyword_state")
		return err
	})
}

func nullableJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(payload), Valid: true}, nil
}
