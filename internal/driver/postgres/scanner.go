package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/schema"
)

// Scanner builds a catalog snapshot from a PostgreSQL information_schema.
type Scanner struct {
	db *sql.DB
}

func NewScanner(db *sql.DB) *Scanner {
	return &Scanner{db: db}
}

// Scan reads columns, primary keys and foreign keys for the given schema.
func (s *Scanner) Scan(ctx context.Context, schemaName string) (*catalog.Snapshot, error) {
	pks, err := s.primaryKeys(ctx, schemaName)
	if err != nil {
		return nil, err
	}
	snap := catalog.NewSnapshot()
	q := `SELECT table_name, column_name, data_type, is_nullable, COALESCE(column_default, '') FROM information_schema.columns WHERE table_schema = $1 ORDER BY table_name, ordinal_position`
	rows, err := s.db.QueryContext(ctx, q, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var table, column, dataType, nullable, dflt string
		if err := rows.Scan(&table, &column, &dataType, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		snap.AddField(schema.FieldRecord{
			Collection: table,
			Field:      column,
			Type:       schema.TypePtr(schema.GuessType(dataType)),
			Schema: &schema.FieldSchema{
				Nullable:         strings.EqualFold(nullable, "YES"),
				IsPrimaryKey:     pks[table] == column,
				HasAutoIncrement: strings.HasPrefix(dflt, "nextval("),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	fq := `SELECT tc.table_name, kcu.column_name, ccu.table_name FROM information_schema.table_constraints tc JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema JOIN information_schema.constraint_column_usage ccu ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1`
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

func (s *Scanner) primaryKeys(ctx context.Context, schemaName string) (map[string]string, error) {
	q := `SELECT tc.table_name, kcu.column_name FROM information_schema.table_constraints tc JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1`
	rows, err := s.db.QueryContext(ctx, q, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query primary keys: %w", err)
	}
	defer rows.Close()
	pks := map[string]string{}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		pks[table] = column
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return pks, nil
}
