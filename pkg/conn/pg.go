package conn

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Option describes a Postgres connection. When DSN is set it is used
// verbatim and the other fields are ignored.
type Option struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
	DSN      string `json:"dsn"`
}

func (opt Option) dsn() string {
	if opt.DSN != "" {
		return opt.DSN
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		opt.Host, opt.Port, opt.User, opt.Password, opt.Database, sslMode)
}

// NewPostgres opens a gorm Postgres connection.
func NewPostgres(opt Option) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(opt.dsn()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Close closes the underlying sql connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
