package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flare-foundation/archive-data-proxy/internal/config"
	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/pkg/errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the archive database, retrying until the connection
// succeeds or the configured backoff window elapses. The returned handle
// is read-only by convention: nothing in this module issues writes.
func Connect(ctx context.Context, cfg *config.DB, timeout *config.TimeoutConfig) (*gorm.DB, error) {
	return Open(ctx, postgres.Open(FormatDSN(cfg)), cfg, timeout)
}

// Open is Connect with an explicit dialector.
func Open(
	ctx context.Context, dialector gorm.Dialector, cfg *config.DB, timeout *config.TimeoutConfig,
) (*gorm.DB, error) {
	gormCfg := gorm.Config{
		Logger:                 gormlogger.Default.LogMode(getGormLogLevel(cfg)),
		SkipDefaultTransaction: true,
	}

	var db *gorm.DB
	err := backoff.RetryNotify(
		func() (err error) {
			db, err = gorm.Open(dialector, &gormCfg)
			if err != nil && db != nil {
				// a failed ping leaves an open pool behind
				if sqlDB, dbErr := db.DB(); dbErr == nil {
					sqlDB.Close()
				}
				db = nil
			}

			return err
		},
		newBackoff(ctx, timeout),
		func(err error, d time.Duration) {
			logger.Errorf("archive DB connection error: %v. Will retry after %v", err, d)
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to the archive DB")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting sql.DB handle")
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	logger.Debug("connected to the archive DB")

	return db, nil
}

func newBackoff(ctx context.Context, timeout *config.TimeoutConfig) backoff.BackOff {
	maxElapsed := time.Duration(timeout.BackoffMaxElapsedTimeSeconds) * time.Second

	// ExponentialBackOff treats a zero MaxElapsedTime as "retry forever".
	if maxElapsed <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxElapsed

	return backoff.WithContext(b, ctx)
}

func getGormLogLevel(cfg *config.DB) gormlogger.LogLevel {
	if cfg.LogQueries {
		return gormlogger.Info
	}

	return gormlogger.Silent
}

// FormatDSN returns the connection target string for cfg.
func FormatDSN(cfg *config.DB) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   cfg.DBName,
	}

	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{cfg.SSLMode}}.Encode()
	}

	return u.String()
}
