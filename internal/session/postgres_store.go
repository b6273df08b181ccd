package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store.
// State is stored as JSONB keyed by session ID.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get retrieves the state for a session.
func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*WizardState, error) {
	query := `
		SELECT state, updated_at
		FROM wizard_sessions
		WHERE session_id = $1
	`

	var (
		stateJSON []byte
		updatedAt time.Time
	)

	err := s.pool.QueryRow(ctx, query, sessionID).Scan(&stateJSON, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var state WizardState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	state.UpdatedAt = updatedAt

	return &state, nil
}

// Put stores the state for a session, replacing any previous value.
func (s *PostgresStore) Put(ctx context.Context, sessionID string, state *WizardState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	query := `
		INSERT INTO wizard_sessions (session_id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, sessionID, stateJSON); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Delete removes the state for a session.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM wizard_sessions WHERE session_id = $1`

	if _, err := s.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions not touched within the retention window.
// Returns the number of sessions removed.
func (s *PostgresStore) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	query := `DELETE FROM wizard_sessions WHERE updated_at < now() - make_interval(secs => $1)`

	tag, err := s.pool.Exec(ctx, query, retention.Seconds())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ensure PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
