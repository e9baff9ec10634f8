package relation

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"

	"github.com/faciam-dev/gcrb/pkg/catalog"
)

// maxNameAttempts caps suffix probing in GenerateJunctionName.
const maxNameAttempts = 1000

// SanitizeName normalizes a user-entered collection or field name to
// snake_case.
func SanitizeName(s string) string {
	return strcase.ToSnake(strings.TrimSpace(s))
}

// GenerateJunctionName returns the first collection name of the form a_b,
// a_b_1, a_b_2, ... that does not exist in the catalog. It is pure for a
// given catalog snapshot and must be re-run whenever either base changes.
func GenerateJunctionName(cat catalog.Catalog, a, b string) (string, error) {
	base := SanitizeName(a + "_" + b)
	name := base
	for n := 1; ; n++ {
		if !cat.CollectionExists(name) {
			return name, nil
		}
		if n > maxNameAttempts {
			return "", fmt.Errorf("%w: base %q", ErrNameExhausted, base)
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
}

// DefaultForeignKeyField suggests a foreign key column name for a reference
// to collection, e.g. "articles" -> "article_id".
func DefaultForeignKeyField(collection string) string {
	return inflection.Singular(SanitizeName(collection)) + "_id"
}
