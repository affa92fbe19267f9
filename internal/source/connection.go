package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/schemadiff/schemadiff/internal/logger"
)

// connect opens a connection pool and checks it with a ping
func connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	log := logger.Get()
	log.Debug("Attempting database connection", "driver", driver)

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		log.Debug("Database connection failed", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		log.Debug("Database ping failed", "error", err)
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug("Database connection established successfully", "driver", driver)
	return conn, nil
}

// mysqlConfig accepts either a mysql:// URL or a go-sql-driver DSN after the mysql: prefix
func mysqlConfig(spec string) (*mysql.Config, error) {
	if !strings.HasPrefix(spec, "mysql://") {
		cfg, err := mysql.ParseDSN(strings.TrimPrefix(spec, "mysql:"))
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		return cfg, nil
	}

	u, err := url.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql URL: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Hostname() + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	if params := u.Query(); len(params) > 0 {
		cfg.Params = make(map[string]string, len(params))
		for key := range params {
			cfg.Params[key] = params.Get(key)
		}
	}
	return cfg, nil
}

// redact hides the password of a connection URL for logging
func redact(spec string) string {
	u, err := url.Parse(spec)
	if err != nil || u.User == nil {
		return spec
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
