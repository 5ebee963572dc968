package cart

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore корзины в таблице cart_sessions (JSON-массив кодов).
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore { return &PGStore{pool: pool} }

func (s *PGStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	c := &Cart{SessionID: sessionID}
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT items, updated_at FROM cart_sessions WHERE session_id = $1
	`, sessionID).Scan(&raw, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &c.Codes); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PGStore) Save(ctx context.Context, c *Cart) error {
	codes := c.Codes
	if codes == nil {
		codes = []string{}
	}
	raw, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO cart_sessions (session_id, items, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (session_id) DO UPDATE SET
		  items=$2, updated_at=now()
	`, c.SessionID, raw)
	return err
}

func (s *PGStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cart_sessions WHERE session_id = $1`, sessionID)
	return err
}
