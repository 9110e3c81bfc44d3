package device

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SQLiteStore keeps the device configuration in a single-row table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the shared database connection.
// The device_config table is created by db.Open.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load returns the stored configuration, repairing to defaults when the row is
// missing or holds out-of-range values. The repaired config is re-persisted so
// the next cold resume sees a consistent record.
func (s *SQLiteStore) Load() (Config, error) {
	var (
		cfg     Config
		enabled int
	)
	err := s.db.QueryRow(`
		SELECT alarm_hour, alarm_minute, alarm_enabled, color_temp, wake_bright, sunrise_duration
		FROM device_config WHERE id = 1
	`).Scan(&cfg.AlarmHour, &cfg.AlarmMinute, &enabled, &cfg.ColorTemp, &cfg.WakeBright, &cfg.SunriseDurationMin)

	switch {
	case err == sql.ErrNoRows:
		log.Warn().Msg("No stored device config, persisting defaults")
		return s.repair()
	case err != nil:
		return Config{}, fmt.Errorf("load device config: %w", err)
	}

	cfg.AlarmEnabled = enabled != 0
	if verr := cfg.Validate(); verr != nil {
		log.Warn().Err(verr).Msg("Stored device config invalid, resetting to defaults")
		return s.repair()
	}
	return cfg, nil
}

// Save persists the configuration after validating it.
func (s *SQLiteStore) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	enabled := 0
	if cfg.AlarmEnabled {
		enabled = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO device_config (id, alarm_hour, alarm_minute, alarm_enabled, color_temp, wake_bright, sunrise_duration)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			alarm_hour = excluded.alarm_hour,
			alarm_minute = excluded.alarm_minute,
			alarm_enabled = excluded.alarm_enabled,
			color_temp = excluded.color_temp,
			wake_bright = excluded.wake_bright,
			sunrise_duration = excluded.sunrise_duration
	`, cfg.AlarmHour, cfg.AlarmMinute, enabled, cfg.ColorTemp, cfg.WakeBright, cfg.SunriseDurationMin)
	if err != nil {
		return fmt.Errorf("save device config: %w", err)
	}
	return nil
}

func (s *SQLiteStore) repair() (Config, error) {
	cfg := Default()
	if err := s.Save(cfg); err != nil {
		return Config{}, fmt.Errorf("repair device config: %w", err)
	}
	return cfg, nil
}
