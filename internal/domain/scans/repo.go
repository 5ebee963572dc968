package scans

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const defaultLimit = 20

// Record сохраняет скан; пустой Payload пишется как SQL NULL.
func (r *Repo) Record(ctx context.Context, s Scan) (int64, error) {
	var pb []byte
	if s.Payload != nil {
		var err error
		if pb, err = json.Marshal(s.Payload); err != nil {
			return 0, fmt.Errorf("marshal payload: %w", err)
		}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO scan_history (item_code, session_id, profile, score, grade, payload)
		VALUES ($1,NULLIF($2,''),$3,$4,$5,$6)
		RETURNING id
	`, s.ItemCode, s.SessionID, s.Profile, s.Score, s.Grade, pb)

	var id int64
	return id, row.Scan(&id)
}

// Recent последние сканы, новые первыми.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, item_code, COALESCE(session_id,''), profile, score, grade, payload, scanned_at
		FROM scan_history
		ORDER BY scanned_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) ForItem(ctx context.Context, code string, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, item_code, COALESCE(session_id,''), profile, score, grade, payload, scanned_at
		FROM scan_history
		WHERE item_code = $1
		ORDER BY scanned_at DESC, id DESC
		LIMIT $2
	`, code, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Scan, error) {
	defer rows.Close()
	var out []Scan
	for rows.Next() {
		var s Scan
		var raw []byte
		if err := rows.Scan(&s.ID, &s.ItemCode, &s.SessionID, &s.Profile, &s.Score, &s.Grade, &raw, &s.ScannedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &s.Payload)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
