package items

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownMaterial материал из состава отсутствует в справочнике
var ErrUnknownMaterial = errors.New("unknown material")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const selectItem = `
	SELECT code, name, COALESCE(brand,''), COALESCE(category,''), weight_grams, created_at
	FROM clothing_items
`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(&it.Code, &it.Name, &it.Brand, &it.Category, &it.WeightGrams, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

/* Items */

// Upsert создаёт вещь или обновляет существующую по коду (для импорта).
func (r *Repo) Upsert(ctx context.Context, it Item) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clothing_items (code, name, brand, category, weight_grams)
		VALUES ($1,$2,NULLIF($3,''),NULLIF($4,''),$5)
		ON CONFLICT (code) DO UPDATE SET
		  name=EXCLUDED.name, brand=EXCLUDED.brand,
		  category=EXCLUDED.category, weight_grams=EXCLUDED.weight_grams
	`, it.Code, it.Name, it.Brand, it.Category, it.WeightGrams)
	return err
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, selectItem+` WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return it, nil
}

func (r *Repo) List(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, selectItem+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// Search ищет по коду, названию, бренду или категории, без учёта регистра.
func (r *Repo) Search(ctx context.Context, q string) ([]Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"
	rows, err := r.pool.Query(ctx, selectItem+`
		WHERE LOWER(code) LIKE $1 OR LOWER(name) LIKE $1
		   OR LOWER(COALESCE(brand,'')) LIKE $1 OR LOWER(COALESCE(category,'')) LIKE $1
		ORDER BY name
	`, like)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// ListByMaterial вещи, в составе которых есть материал.
func (r *Repo) ListByMaterial(ctx context.Context, material string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ci.code, ci.name, COALESCE(ci.brand,''), COALESCE(ci.category,''), ci.weight_grams, ci.created_at
		FROM clothing_items ci
		JOIN item_composition ic ON ic.item_code = ci.code
		JOIN materials m ON m.id = ic.material_id
		WHERE m.name = $1
		ORDER BY ci.name
	`, strings.ToLower(strings.TrimSpace(material)))
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

/* Composition */

func (r *Repo) Composition(ctx context.Context, code string) ([]Component, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ic.item_code, m.name, ic.percentage
		FROM item_composition ic
		JOIN materials m ON m.id = ic.material_id
		WHERE ic.item_code = $1
		ORDER BY ic.id
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Component
	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.ItemCode, &c.Material, &c.Percentage); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetComposition заменяет состав вещи целиком. Сумма процентов не проверяется:
// отклонение от 100% штрафуется при расчёте, а не отклоняется здесь.
func (r *Repo) SetComposition(ctx context.Context, code string, comps []Component) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `DELETE FROM item_composition WHERE item_code=$1`, code); err != nil {
		return err
	}

	for _, c := range comps {
		name := strings.ToLower(strings.TrimSpace(c.Material))
		var materialID int64
		err := tx.QueryRow(ctx, `SELECT id FROM materials WHERE name=$1`, name).Scan(&materialID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
		}
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO item_composition (item_code, material_id, percentage)
			VALUES ($1,$2,$3)
		`, code, materialID, c.Percentage); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
