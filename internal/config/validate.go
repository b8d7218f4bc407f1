package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks value ranges and enumerations.
func (s Server) Validate() error {
	var errs []error

	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q: want debug, info, warn or error", s.LogLevel))
	}

	switch s.Store.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if s.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q: want %s or %s", s.Store.Driver, DriverPostgres, DriverSQLite))
	}

	if s.Clans.BulletinBoardSize < 1 {
		errs = append(errs, fmt.Errorf("clans.bb_size %d: must be positive", s.Clans.BulletinBoardSize))
	}
	if s.Clans.RivalLimit < 0 || s.Clans.RivalLimit > 100 {
		errs = append(errs, fmt.Errorf("clans.rival_limit_percent %d: must be 0-100", s.Clans.RivalLimit))
	}
	if s.PersistLimit < 1 {
		errs = append(errs, fmt.Errorf("persist_limit %d: must be positive", s.PersistLimit))
	}

	if s.InactiveCheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("inactive_check_interval %s: must be positive", s.InactiveCheckInterval))
	}
	if s.SaveInterval <= 0 {
		errs = append(errs, fmt.Errorf("save_interval %s: must be positive", s.SaveInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
