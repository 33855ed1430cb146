package settlement

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresRewardStore persists reward records with a primary key on
// session_id. The unique constraint plus ON CONFLICT DO NOTHING makes
// Create a single atomic check-and-create, never a read-then-write pair.
type PostgresRewardStore struct {
	db *sqlx.DB
}

func NewPostgresRewardStore(db *sqlx.DB) *PostgresRewardStore {
	return &PostgresRewardStore{db: db}
}

const createRewardsTableQuery = `
CREATE TABLE IF NOT EXISTS reward_records (
	session_id      TEXT PRIMARY KEY,
	player_identity TEXT NOT NULL,
	amount          BIGINT NOT NULL,
	status          INT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the reward table when it does not exist.
func (p *PostgresRewardStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createRewardsTableQuery)
	if err != nil {
		return errors.Wrap(err, "Unable to create reward_records table")
	}
	return nil
}

func (p *PostgresRewardStore) Create(ctx context.Context, record *RewardRecord) error {
	result, err := p.db.NamedExecContext(ctx, `
		INSERT INTO reward_records (session_id, player_identity, amount, status, created_at)
		VALUES (:session_id, :player_identity, :amount, :status, :created_at)
		ON CONFLICT (session_id) DO NOTHING`, record)
	if err != nil {
		return errors.Wrap(err, "Unable to insert reward record")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "Unable to read insert result")
	}
	if rows == 0 {
		return ErrRewardExists
	}
	return nil
}

func (p *PostgresRewardStore) Load(ctx context.Context, sessionID string) (*RewardRecord, error) {
	var record RewardRecord
	err := p.db.GetContext(ctx, &record, `
		SELECT session_id, player_identity, amount, status, created_at
		FROM reward_records WHERE session_id = $1`, sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "Unable to load reward record")
	}
	return &record, nil
}
