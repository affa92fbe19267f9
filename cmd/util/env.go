package util

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// PostgresDSNFromEnv builds a connection URL from the libpq environment variables
// PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD, PGSSLMODE and PGAPPNAME
func PostgresDSNFromEnv() (string, error) {
	database := GetEnvWithDefault("PGDATABASE", "")
	if database == "" {
		return "", fmt.Errorf("database name is required (set PGDATABASE or use a full postgres:// URL)")
	}
	user := GetEnvWithDefault("PGUSER", "")
	if user == "" {
		return "", fmt.Errorf("database user is required (set PGUSER or use a full postgres:// URL)")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", GetEnvWithDefault("PGHOST", "localhost"), GetEnvIntWithDefault("PGPORT", 5432)),
		Path:   "/" + database,
	}
	if password := os.Getenv("PGPASSWORD"); password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}

	query := url.Values{}
	if sslMode := os.Getenv("PGSSLMODE"); sslMode != "" {
		query.Set("sslmode", sslMode)
	}
	query.Set("application_name", GetEnvWithDefault("PGAPPNAME", "schemadiff"))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// ExpandSource replaces a bare postgres:// source with a URL built from the environment.
// Every other source is returned unchanged.
func ExpandSource(spec string) (string, error) {
	switch strings.ToLower(spec) {
	case "postgres://", "postgresql://", "postgres:", "postgresql:":
		return PostgresDSNFromEnv()
	default:
		return spec, nil
	}
}
