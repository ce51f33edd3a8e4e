package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	applog "github.com/EmpoweredVote/EV-CityMap/internal/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ErrNoDSN is returned by Connect when no database URL is configured.
var ErrNoDSN = errors.New("DATABASE_URL is empty")

// Connect opens the pgx-backed pool and sets DB.
func Connect(dsn string) error {
	if dsn == "" {
		return ErrNoDSN
	}

	zl := applog.Component("gorm")
	lg := logger.New(
		zl,
		logger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: lg,
	})
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("connect to database: %w", err)
	}

	DB = db
	applog.L().Info().Msg("connected to database")
	return nil
}
