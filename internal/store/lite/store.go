// Package lite каталог на встроенном SQLite (modernc.org/sqlite) для
// локального запуска и CLI без Postgres. Схема совпадает с миграциями.
package lite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Spok95/eco-wardrobe/internal/domain/catalog"
	"github.com/Spok95/eco-wardrobe/internal/domain/impacts"
	"github.com/Spok95/eco-wardrobe/internal/domain/items"
	"github.com/Spok95/eco-wardrobe/internal/domain/materials"
)

var ErrUnknownMaterial = errors.New("unknown material")

const schema = `
CREATE TABLE IF NOT EXISTS materials (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	density     REAL,
	description TEXT,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS impact_coefficients (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	material_id INTEGER NOT NULL REFERENCES materials(id),
	category    TEXT NOT NULL CHECK (category IN ('water_usage','carbon_footprint','energy_usage')),
	value       REAL NOT NULL,
	unit        TEXT NOT NULL,
	source      TEXT,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_impact_material_category ON impact_coefficients(material_id, category);
CREATE TABLE IF NOT EXISTS clothing_items (
	code         TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	brand        TEXT,
	category     TEXT,
	weight_grams INTEGER NOT NULL CHECK (weight_grams > 0),
	created_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS item_composition (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	item_code   TEXT NOT NULL REFERENCES clothing_items(code),
	material_id INTEGER NOT NULL REFERENCES materials(id),
	percentage  REAL NOT NULL CHECK (percentage >= 0 AND percentage <= 100)
);
CREATE INDEX IF NOT EXISTS idx_composition_item ON item_composition(item_code);
`

// Store реализует scoring.Catalog и catalog.Sink поверх database/sql.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ catalog.Sink = (*Store)(nil)

// Open открывает файл базы (":memory:" для временной) и создаёт схему.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// каждое соединение получило бы свою пустую базу
		db.SetMaxOpenConns(1)
	}
	s := New(db)
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) stamp() string { return s.now().UTC().Format(time.RFC3339Nano) }

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

/* Чтение для расчёта */

const selectItem = `
	SELECT code, name, COALESCE(brand,''), COALESCE(category,''), weight_grams, created_at
	FROM clothing_items
`

type scanner interface{ Scan(dest ...any) error }

func scanItem(row scanner) (*items.Item, error) {
	var it items.Item
	var created string
	if err := row.Scan(&it.Code, &it.Name, &it.Brand, &it.Category, &it.WeightGrams, &created); err != nil {
		return nil, err
	}
	it.CreatedAt = parseTime(created)
	return &it, nil
}

func collectItems(rows *sql.Rows) ([]items.Item, error) {
	defer func() { _ = rows.Close() }()
	var out []items.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, code string) (*items.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, selectItem+` WHERE code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

func (s *Store) ListItems(ctx context.Context) ([]items.Item, error) {
	rows, err := s.db.QueryContext(ctx, selectItem+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// SearchItems по коду, названию, бренду или категории, без учёта регистра.
func (s *Store) SearchItems(ctx context.Context, q string) ([]items.Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"
	rows, err := s.db.QueryContext(ctx, selectItem+`
		WHERE LOWER(code) LIKE ?1 OR LOWER(name) LIKE ?1
		   OR LOWER(COALESCE(brand,'')) LIKE ?1 OR LOWER(COALESCE(category,'')) LIKE ?1
		ORDER BY name
	`, like)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

func (s *Store) GetComposition(ctx context.Context, code string) ([]items.Component, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ic.item_code, m.name, ic.percentage
		FROM item_composition ic
		JOIN materials m ON m.id = ic.material_id
		WHERE ic.item_code = ?
		ORDER BY ic.id
	`, code)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []items.Component
	for rows.Next() {
		var c items.Component
		if err := rows.Scan(&c.ItemCode, &c.Material, &c.Percentage); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const selectCoefficient = `
	SELECT ic.id, m.name, ic.category, ic.value, ic.unit, COALESCE(ic.source,''), ic.updated_at
	FROM impact_coefficients ic
	JOIN materials m ON m.id = ic.material_id
`

func collectCoefficients(rows *sql.Rows) ([]impacts.Coefficient, error) {
	defer func() { _ = rows.Close() }()
	var out []impacts.Coefficient
	for rows.Next() {
		var c impacts.Coefficient
		var updated string
		if err := rows.Scan(&c.ID, &c.Material, &c.Category, &c.Value, &c.Unit, &c.Source, &updated); err != nil {
			return nil, err
		}
		c.UpdatedAt = parseTime(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCoefficient самый надёжный коэффициент для пары; nil, nil если данных нет.
func (s *Store) GetCoefficient(ctx context.Context, material string, category impacts.Category) (*impacts.Coefficient, error) {
	rows, err := s.db.QueryContext(ctx, selectCoefficient+`
		WHERE m.name = ? AND ic.category = ?
		ORDER BY ic.id
	`, materials.NormalizeName(material), string(category))
	if err != nil {
		return nil, err
	}
	cs, err := collectCoefficients(rows)
	if err != nil {
		return nil, err
	}
	return impacts.Best(cs), nil
}

func (s *Store) ListCoefficients(ctx context.Context) ([]impacts.Coefficient, error) {
	rows, err := s.db.QueryContext(ctx, selectCoefficient+` ORDER BY m.name, ic.category, ic.id`)
	if err != nil {
		return nil, err
	}
	return collectCoefficients(rows)
}

func (s *Store) ListMaterials(ctx context.Context) ([]materials.WithUsage, error) {
	return s.listMaterials(ctx, "", nil)
}

// SearchMaterials по части названия или описания, без учёта регистра.
func (s *Store) SearchMaterials(ctx context.Context, q string) ([]materials.WithUsage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	like := "%" + strings.ToLower(q) + "%"
	return s.listMaterials(ctx, `WHERE m.name LIKE ?1 OR LOWER(COALESCE(m.description,'')) LIKE ?1`, []any{like})
}

func (s *Store) listMaterials(ctx context.Context, where string, args []any) ([]materials.WithUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.density, COALESCE(m.description,''), m.created_at,
		       (SELECT COUNT(*) FROM impact_coefficients ic WHERE ic.material_id = m.id),
		       (SELECT COUNT(DISTINCT item_code) FROM item_composition c WHERE c.material_id = m.id)
		FROM materials m
	`+where+` ORDER BY m.name`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []materials.WithUsage
	for rows.Next() {
		var m materials.WithUsage
		var density sql.NullFloat64
		var created string
		if err := rows.Scan(&m.ID, &m.Name, &density, &m.Description, &created, &m.ImpactCount, &m.ItemCount); err != nil {
			return nil, err
		}
		if density.Valid {
			m.Density = &density.Float64
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMaterial(ctx context.Context, name string) (*materials.Material, error) {
	var m materials.Material
	var density sql.NullFloat64
	var created string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, density, COALESCE(description,''), created_at
		FROM materials WHERE name = ?
	`, materials.NormalizeName(name)).Scan(&m.ID, &m.Name, &density, &m.Description, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if density.Valid {
		m.Density = &density.Float64
	}
	m.CreatedAt = parseTime(created)
	return &m, nil
}

// ItemsByMaterial вещи, в составе которых есть материал.
func (s *Store) ItemsByMaterial(ctx context.Context, name string) ([]items.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.code, ci.name, COALESCE(ci.brand,''), COALESCE(ci.category,''), ci.weight_grams, ci.created_at
		FROM clothing_items ci
		JOIN item_composition ic ON ic.item_code = ci.code
		JOIN materials m ON m.id = ic.material_id
		WHERE m.name = ?
		ORDER BY ci.name
	`, materials.NormalizeName(name))
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

func (s *Store) MaterialCoefficients(ctx context.Context, name string) ([]impacts.Coefficient, error) {
	rows, err := s.db.QueryContext(ctx, selectCoefficient+`
		WHERE m.name = ?
		ORDER BY ic.category, ic.id
	`, materials.NormalizeName(name))
	if err != nil {
		return nil, err
	}
	return collectCoefficients(rows)
}

// Stats количество записей и средний вес вещи.
func (s *Store) Stats(ctx context.Context) (*catalog.Stats, error) {
	var st catalog.Stats
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM clothing_items),
		  (SELECT COUNT(*) FROM materials),
		  (SELECT COUNT(*) FROM impact_coefficients),
		  (SELECT COUNT(DISTINCT brand) FROM clothing_items WHERE brand IS NOT NULL),
		  (SELECT COUNT(DISTINCT category) FROM clothing_items WHERE category IS NOT NULL),
		  (SELECT COUNT(DISTINCT category) FROM impact_coefficients),
		  (SELECT AVG(weight_grams) FROM clothing_items)
	`).Scan(&st.Items, &st.Materials, &st.Impacts, &st.Brands, &st.Categories, &st.ImpactCategories, &avg)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		st.AvgWeightGrams = math.Round(avg.Float64*10) / 10
	}
	return &st, nil
}

/* Запись при импорте */

func (s *Store) UpsertMaterial(ctx context.Context, m materials.Material) error {
	var density sql.NullFloat64
	if m.Density != nil {
		density = sql.NullFloat64{Float64: *m.Density, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (name, density, description, created_at)
		VALUES (?,?,?,?)
		ON CONFLICT (name) DO UPDATE SET
		  density = COALESCE(excluded.density, materials.density),
		  description = COALESCE(excluded.description, materials.description)
	`, materials.NormalizeName(m.Name), density, nullString(m.Description), s.stamp())
	return err
}

func (s *Store) materialID(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, name string) (int64, error) {
	name = materials.NormalizeName(name)
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM materials WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}
	return id, err
}

// UpsertCoefficient обновляет значение от того же источника, иначе добавляет строку.
func (s *Store) UpsertCoefficient(ctx context.Context, c impacts.Coefficient) error {
	if !c.Category.Valid() {
		return fmt.Errorf("unknown impact category %q", c.Category)
	}
	mid, err := s.materialID(ctx, s.db, c.Material)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE impact_coefficients SET value = ?, unit = ?, updated_at = ?
		WHERE material_id = ? AND category = ? AND COALESCE(source,'') = ?
	`, c.Value, c.Unit, s.stamp(), mid, string(c.Category), c.Source)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO impact_coefficients (material_id, category, value, unit, source, updated_at)
		VALUES (?,?,?,?,?,?)
	`, mid, string(c.Category), c.Value, c.Unit, nullString(c.Source), s.stamp())
	return err
}

func (s *Store) UpsertItem(ctx context.Context, it items.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clothing_items (code, name, brand, category, weight_grams, created_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT (code) DO UPDATE SET
		  name = excluded.name, brand = excluded.brand,
		  category = excluded.category, weight_grams = excluded.weight_grams
	`, it.Code, it.Name, nullString(it.Brand), nullString(it.Category), it.WeightGrams, s.stamp())
	return err
}

// SetComposition заменяет состав вещи целиком в одной транзакции.
func (s *Store) SetComposition(ctx context.Context, code string, comps []items.Component) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM item_composition WHERE item_code = ?`, code); err != nil {
		return err
	}
	for _, c := range comps {
		mid, err := s.materialID(ctx, tx, c.Material)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO item_composition (item_code, material_id, percentage) VALUES (?,?,?)
		`, code, mid, c.Percentage); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Dedupe оставляет по одному коэффициенту на пару (материал, категория).
func (s *Store) Dedupe(ctx context.Context, dryRun bool) ([]impacts.Conflict, error) {
	all, err := s.ListCoefficients(ctx)
	if err != nil {
		return nil, err
	}
	conflicts := impacts.FindConflicts(all)
	if dryRun || len(conflicts) == 0 {
		return conflicts, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, c := range conflicts {
		for _, drop := range c.Values[1:] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM impact_coefficients WHERE id = ?`, drop.ID); err != nil {
				return nil, err
			}
		}
	}
	return conflicts, tx.Commit()
}
