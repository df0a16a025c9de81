package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/alisaviation/metricboard/internal/models"
)

// Catalog persists the configured source list in Postgres so the registry
// survives restarts. Metric values are never stored here, only sources.
type Catalog struct {
	DB *sql.DB
}

func NewCatalogFromDB(ctx context.Context, db *sql.DB) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sources (
			pos SERIAL,
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			name TEXT NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create sources table: %w", err)
	}

	return &Catalog{DB: db}, nil
}

func (c *Catalog) Save(ctx context.Context, src models.Source) error {
	_, err := c.DB.ExecContext(ctx, `
		INSERT INTO sources (id, kind, name)
		VALUES ($1, $2, $3)
	`, src.ID, string(src.Kind), src.Name)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pgerrcode.IsIntegrityConstraintViolation(string(pqErr.Code)) {
		// Same id already recorded, e.g. seeded and re-added within one run.
		return nil
	}
	return err
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	_, err := c.DB.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	return err
}

// LoadInto seeds the registry with every persisted source, in insertion order.
func (c *Catalog) LoadInto(ctx context.Context, reg *Registry) error {
	rows, err := c.DB.QueryContext(ctx, `SELECT id, kind, name FROM sources ORDER BY pos`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var src models.Source
		var kind string
		if err := rows.Scan(&src.ID, &kind, &src.Name); err != nil {
			return err
		}
		src.Kind = models.SourceKind(kind)
		reg.Restore(src)
	}
	return rows.Err()
}
