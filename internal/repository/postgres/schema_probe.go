package postgres

import (
	"context"
)

// SchemaProbe discovers which optional tables and columns exist, so writes
// can degrade gracefully across partially-migrated schemas. Read-only and
// safe to call repeatedly.
type SchemaProbe struct {
	db DBTX
}

func NewSchemaProbe(db DBTX) *SchemaProbe {
	return &SchemaProbe{db: db}
}

// TableExists reports whether a table is present in the public schema.
func (p *SchemaProbe) TableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		name,
	).Scan(&exists)
	return exists, err
}

// ColumnExists reports whether a column is present on a table.
func (p *SchemaProbe) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2)`,
		table, column,
	).Scan(&exists)
	return exists, err
}

// PickFirstExistingColumn returns the first candidate column present on the
// table, or "" when none exist.
func (p *SchemaProbe) PickFirstExistingColumn(ctx context.Context, table string, candidates []string) (string, error) {
	caps, err := p.Snapshot(ctx, []string{table})
	if err != nil {
		return "", err
	}
	return caps.FirstColumn(table, candidates...), nil
}

// Snapshot loads the full column map for a set of tables with a single
// catalog query. The result is passed explicitly to repository methods so
// one operation probes the schema at most once.
func (p *SchemaProbe) Snapshot(ctx context.Context, tables []string) (*Capabilities, error) {
	rows, err := p.db.Query(ctx,
		`SELECT table_name, column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = ANY($1)`,
		tables,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]map[string]bool)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, err
		}
		if columns[table] == nil {
			columns[table] = make(map[string]bool)
		}
		columns[table][column] = true
	}
	return &Capabilities{columns: columns}, rows.Err()
}

// Capabilities is an immutable snapshot of which tables and columns exist.
type Capabilities struct {
	columns map[string]map[string]bool
}

// NewCapabilities builds a snapshot from a literal table→columns map.
func NewCapabilities(cols map[string][]string) *Capabilities {
	columns := make(map[string]map[string]bool, len(cols))
	for table, names := range cols {
		columns[table] = make(map[string]bool, len(names))
		for _, name := range names {
			columns[table][name] = true
		}
	}
	return &Capabilities{columns: columns}
}

// Has reports whether the table existed at snapshot time.
func (c *Capabilities) Has(table string) bool {
	return len(c.columns[table]) > 0
}

// HasColumn reports whether the column existed at snapshot time.
func (c *Capabilities) HasColumn(table, column string) bool {
	return c.columns[table][column]
}

// FirstColumn returns the first candidate present on the table, or "".
func (c *Capabilities) FirstColumn(table string, candidates ...string) string {
	for _, candidate := range candidates {
		if c.HasColumn(table, candidate) {
			return candidate
		}
	}
	return ""
}
