package util

import (
	"fmt"
	"net/url"
	"strings"
)

// DetectDriver returns the driver name based on the DSN scheme.
// Supported schemes: mysql and postgres/postgresql.
func DetectDriver(dsn string) (string, error) {
	parsedURL, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	switch parsedURL.Scheme {
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unknown scheme: %s", parsedURL.Scheme)
	}
}

// NormalizeDSN strips the URL scheme from a mysql DSN; the mysql driver
// expects the bare user:pass@tcp(host)/db form. Postgres DSNs pass through.
func NormalizeDSN(driver, dsn string) string {
	if driver == "mysql" {
		return strings.TrimPrefix(dsn, "mysql://")
	}
	return dsn
}
