package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/schema"
)

// Scanner builds a catalog snapshot from a MySQL information_schema.
type Scanner struct {
	db *sql.DB
}

func NewScanner(db *sql.DB) *Scanner {
	return &Scanner{db: db}
}

// Scan reads columns, primary keys and foreign keys for the given schema.
func (s *Scanner) Scan(ctx context.Context, schemaName string) (*catalog.Snapshot, error) {
	snap := catalog.NewSnapshot()
	q := `SELECT table_name, column_name, data_type, is_nullable, column_key, extra FROM information_schema.columns WHERE table_schema = ? ORDER BY table_name, ordinal_position`
	rows, err := s.db.QueryContext(ctx, q, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var table, column, dataType, nullable, key, extra string
		if err := rows.Scan(&table, &column, &dataType, &nullable, &key, &extra); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		snap.AddField(schema.FieldRecord{
			Collection: table,
			Field:      column,
			Type:       schema.TypePtr(schema.GuessType(dataType)),
			Schema: &schema.FieldSchema{
				Nullable:         strings.EqualFold(nullable, "YES"),
				IsPrimaryKey:     key == "PRI",
				HasAutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	fq := `SELECT table_name, column_name, referenced_table_name FROM information_schema.key_column_usage WHERE table_schema = ? AND referenced_table_name IS NOT NULL`
	frows, err := s.db.QueryContext(ctx, fq, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var table, column, referenced string
		if err := frows.Scan(&table, &column, &referenced); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		snap.AddRelation(schema.RelationRecord{Collection: table, Field: column, RelatedCollection: referenced})
	}
	if err := frows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return snap, nil
}
