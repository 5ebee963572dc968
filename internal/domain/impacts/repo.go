package impacts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownMaterial коэффициент ссылается на материал, которого нет
var ErrUnknownMaterial = errors.New("unknown material")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const selectCoefficient = `
	SELECT ic.id, m.name, ic.category, ic.value, ic.unit, COALESCE(ic.source,''), ic.updated_at
	FROM impact_coefficients ic
	JOIN materials m ON m.id = ic.material_id
`

func collect(rows pgx.Rows) ([]Coefficient, error) {
	defer rows.Close()
	var out []Coefficient
	for rows.Next() {
		var c Coefficient
		if err := rows.Scan(&c.ID, &c.Material, &c.Category, &c.Value, &c.Unit, &c.Source, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get коэффициент для пары (материал, категория); nil, nil если данных нет.
// При дублях выбирается самый надёжный источник.
func (r *Repo) Get(ctx context.Context, material string, category Category) (*Coefficient, error) {
	rows, err := r.pool.Query(ctx, selectCoefficient+`
		WHERE m.name = $1 AND ic.category = $2
		ORDER BY ic.id
	`, strings.ToLower(strings.TrimSpace(material)), string(category))
	if err != nil {
		return nil, err
	}
	cs, err := collect(rows)
	if err != nil {
		return nil, err
	}
	return Best(cs), nil
}

func (r *Repo) List(ctx context.Context) ([]Coefficient, error) {
	rows, err := r.pool.Query(ctx, selectCoefficient+` ORDER BY m.name, ic.category, ic.id`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByMaterial все коэффициенты материала, включая дубли разных источников.
func (r *Repo) ListByMaterial(ctx context.Context, material string) ([]Coefficient, error) {
	rows, err := r.pool.Query(ctx, selectCoefficient+`
		WHERE m.name = $1
		ORDER BY ic.category, ic.id
	`, strings.ToLower(strings.TrimSpace(material)))
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repo) materialID(ctx context.Context, material string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM materials WHERE name=$1`,
		strings.ToLower(strings.TrimSpace(material))).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, material)
	}
	return id, err
}

// Upsert заменяет значение от того же источника, иначе добавляет новую строку.
func (r *Repo) Upsert(ctx context.Context, c Coefficient) error {
	mid, err := r.materialID(ctx, c.Material)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE impact_coefficients
		SET value=$4, unit=$5, updated_at=now()
		WHERE material_id=$1 AND category=$2 AND COALESCE(source,'')=$3
	`, mid, string(c.Category), c.Source, c.Value, c.Unit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO impact_coefficients (material_id, category, value, unit, source)
		VALUES ($1,$2,$3,$4,NULLIF($5,''))
	`, mid, string(c.Category), c.Value, c.Unit, c.Source)
	return err
}

// Conflicts пары (материал, категория) с несколькими значениями.
func (r *Repo) Conflicts(ctx context.Context) ([]Conflict, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return FindConflicts(all), nil
}

// Dedupe оставляет по одному коэффициенту на пару (самый надёжный источник).
// Возвращает разрешённые конфликты; при dryRun ничего не удаляет.
func (r *Repo) Dedupe(ctx context.Context, dryRun bool) ([]Conflict, error) {
	conflicts, err := r.Conflicts(ctx)
	if err != nil || dryRun || len(conflicts) == 0 {
		return conflicts, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range conflicts {
		for _, drop := range c.Values[1:] {
			if _, err := tx.Exec(ctx, `DELETE FROM impact_coefficients WHERE id=$1`, drop.ID); err != nil {
				return nil, err
			}
		}
	}
	return conflicts, tx.Commit(ctx)
}
