// Package conn opens the database connections the exchange writes to.
package conn

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"
	defaultMaxOpenConns    = 4
	defaultConnMaxLifetime = 30 * time.Minute
)

// Option defines connection options for PostgreSQL. DSN wins over the
// individual fields when set.
type Option struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Params   map[string]string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	// Lazy skips the startup ping, so no server is contacted until the
	// first query.
	Lazy bool
	// DryRun builds statements without executing them.
	DryRun bool
}

// Postgres wraps a gorm connection pool.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects and, unless opt.Lazy is set, pings the server
// within ctx.
func OpenPostgres(ctx context.Context, opt Option) (*Postgres, error) {
	dialector := postgres.New(postgres.Config{DSN: opt.dsn()})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
		DryRun:               opt.DryRun,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := opt.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	lifetime := opt.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(lifetime)

	if !opt.Lazy && !opt.DryRun {
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
	}
	return &Postgres{db: db}, nil
}

// DB returns the underlying gorm.DB instance.
func (p *Postgres) DB() *gorm.DB {
	if p == nil {
		return nil
	}
	return p.db
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (opt Option) dsn() string {
	if opt.DSN != "" {
		return opt.DSN
	}

	host := opt.Host
	if host == "" {
		host = defaultPostgresHost
	}
	port := opt.Port
	if port == 0 {
		port = defaultPostgresPort
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}
	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}
	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	for key, value := range opt.Params {
		if key == "" {
			continue
		}
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String()
}
