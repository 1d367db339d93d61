package db

import (
	"database/sql"
	"time"
)

// DBProvider is implemented by clients that expose a sql.DB handle.
// PostgresClient and SupabaseClient can be used interchangeably by the engagement store.
type DBProvider interface {
	DB() *sql.DB
}

// PoolConfig holds optional connection pool tuning. Zero values leave driver defaults.
type PoolConfig struct {
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	ConnMaxIdle  time.Duration `koanf:"conn_max_idle"`
	ConnMaxLife  time.Duration `koanf:"conn_max_life"`
}

func (p PoolConfig) apply(db *sql.DB) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxIdle > 0 {
		db.SetConnMaxIdleTime(p.ConnMaxIdle)
	}
	if p.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(p.ConnMaxLife)
	}
}
