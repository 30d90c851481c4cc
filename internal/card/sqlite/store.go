// Package sqlite provides a SQLite-backed card catalog that also serves as
// a card.Pool.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xtding233/gacha-scout/internal/card"
	"github.com/xtding233/gacha-scout/internal/card/sqlite/migrations"
)

// Store persists cards in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ card.Pool    = (*Store)(nil)
	_ card.Catalog = (*Store)(nil)
)

// Open opens a SQLite card store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const cardColumns = `id, name, rarity, attribute, main_unit, sub_unit, year, release_date,
	card_image, card_idolized_image, round_card_image, round_card_idolized_image`

var filterColumns = map[card.Dimension]string{
	card.DimName:      "name",
	card.DimMainUnit:  "main_unit",
	card.DimSubUnit:   "sub_unit",
	card.DimYear:      "year",
	card.DimAttribute: "attribute",
}

// Sample returns up to count distinct random cards of rarity r matching f.
// The rarity dimension of f is ignored in favour of r.
func (s *Store) Sample(ctx context.Context, f card.Filter, r card.Rarity, count int) ([]card.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + cardColumns + " FROM cards WHERE rarity = ?")
	args := []any{r.String()}
	for _, d := range card.Dimensions {
		col, ok := filterColumns[d]
		vs := f.Values(d)
		if !ok || len(vs) == 0 {
			continue
		}
		sb.WriteString(" AND " + col + " IN (?" + strings.Repeat(", ?", len(vs)-1) + ")")
		for _, v := range vs {
			args = append(args, v)
		}
	}
	sb.WriteString(" ORDER BY RANDOM() LIMIT ?")
	args = append(args, count)

	rows, err := s.sqlDB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sample cards: %w", err)
	}
	return scanCards(rows)
}

// Get returns the cards with the given ids, in id order. Unknown ids are
// skipped.
func (s *Store) Get(ctx context.Context, ids ...int) ([]card.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE id IN (?"+strings.Repeat(", ?", len(ids)-1)+") ORDER BY id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("get cards: %w", err)
	}
	return scanCards(rows)
}

// CardIDs lists every stored card id in ascending order.
func (s *Store) CardIDs(ctx context.Context) ([]int, error) {
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT id FROM cards ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list card ids: %w", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Upsert inserts or replaces cards in one transaction.
func (s *Store) Upsert(ctx context.Context, cards ...card.Card) error {
	if len(cards) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cards (`+cardColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  rarity = excluded.rarity,
		  attribute = excluded.attribute,
		  main_unit = excluded.main_unit,
		  sub_unit = excluded.sub_unit,
		  year = excluded.year,
		  release_date = excluded.release_date,
		  card_image = excluded.card_image,
		  card_idolized_image = excluded.card_idolized_image,
		  round_card_image = excluded.round_card_image,
		  round_card_idolized_image = excluded.round_card_idolized_image,
		  updated_at = excluded.updated_at`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().UnixMilli()
	for _, c := range cards {
		if !c.Rarity.Valid() {
			_ = tx.Rollback()
			return fmt.Errorf("upsert card %d: invalid rarity %d", c.ID, c.Rarity)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Name, c.Rarity.String(), c.Attribute, c.MainUnit, c.SubUnit, c.Year, c.ReleaseDate,
			c.Image, c.IdolizedImage, c.Thumbnail, c.IdolizedThumbnail, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert card %d: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func scanCards(rows *sql.Rows) ([]card.Card, error) {
	defer rows.Close()
	var out []card.Card
	for rows.Next() {
		var c card.Card
		var rarity string
		if err := rows.Scan(
			&c.ID, &c.Name, &rarity, &c.Attribute, &c.MainUnit, &c.SubUnit, &c.Year, &c.ReleaseDate,
			&c.Image, &c.IdolizedImage, &c.Thumbnail, &c.IdolizedThumbnail,
		); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		r, err := card.ParseRarity(rarity)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", c.ID, err)
		}
		c.Rarity = r
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return out, nil
}
