package materials

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Materials */

// Upsert создаёт материал или обновляет плотность/описание (для импорта).
func (r *Repo) Upsert(ctx context.Context, m Material) (*Material, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO materials (name, density, description)
		VALUES ($1,$2,NULLIF($3,''))
		ON CONFLICT (name) DO UPDATE SET
		  density = COALESCE(EXCLUDED.density, materials.density),
		  description = COALESCE(EXCLUDED.description, materials.description)
		RETURNING id, name, density, COALESCE(description,''), created_at
	`, NormalizeName(m.Name), m.Density, m.Description)

	var out Material
	if err := row.Scan(&out.ID, &out.Name, &out.Density, &out.Description, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByName материал по имени; nil, nil если его нет.
func (r *Repo) GetByName(ctx context.Context, name string) (*Material, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, density, COALESCE(description,''), created_at
		FROM materials
		WHERE name = $1
	`, NormalizeName(name))
	var m Material
	if err := row.Scan(&m.ID, &m.Name, &m.Density, &m.Description, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// List материалы с количеством коэффициентов и вещей.
func (r *Repo) List(ctx context.Context) ([]WithUsage, error) {
	return r.listWithUsage(ctx, "", nil)
}

// SearchByName ищет материалы по части названия/описания, без учёта регистра.
func (r *Repo) SearchByName(ctx context.Context, q string) ([]WithUsage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"
	return r.listWithUsage(ctx, `WHERE m.name LIKE $1 OR LOWER(COALESCE(m.description,'')) LIKE $1`, []any{like})
}

func (r *Repo) listWithUsage(ctx context.Context, where string, args []any) ([]WithUsage, error) {
	q := `
		SELECT m.id, m.name, m.density, COALESCE(m.description,''), m.created_at,
		       (SELECT COUNT(*) FROM impact_coefficients ic WHERE ic.material_id = m.id),
		       (SELECT COUNT(DISTINCT item_code) FROM item_composition c WHERE c.material_id = m.id)
		FROM materials m
	` + where + ` ORDER BY m.name`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WithUsage
	for rows.Next() {
		var m WithUsage
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Density, &m.Description, &m.CreatedAt,
			&m.ImpactCount, &m.ItemCount,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
