// Package store archives collected measurements in sqlite for later
// reporting. Only the host-side tools use it; the device agent itself holds
// no durable state.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/airmon-data/airmon/internal/transport"
)

// Store wraps the sqlite archive database.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS measurements (
			timestamp         TIMESTAMP,
			device_id         TEXT,
			pm1_0_cf1         INTEGER,
			pm2_5_cf1         INTEGER,
			pm10_cf1          INTEGER,
			pm1_0_atm         INTEGER,
			pm2_5_atm         INTEGER,
			pm10_atm          INTEGER,
			particles_03      INTEGER,
			particles_05      INTEGER,
			particles_10      INTEGER,
			particles_25      INTEGER,
			particles_50      INTEGER,
			particles_100     INTEGER,
			version           INTEGER,
			error_code        INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_measurements_timestamp
			ON measurements (timestamp);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db}, nil
}

// InsertBatch archives a batch of measurements in one transaction.
func (s *Store) InsertBatch(batch []transport.Measurement) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO measurements (
			timestamp, device_id,
			pm1_0_cf1, pm2_5_cf1, pm10_cf1,
			pm1_0_atm, pm2_5_atm, pm10_atm,
			particles_03, particles_05, particles_10,
			particles_25, particles_50, particles_100,
			version, error_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range batch {
		if _, err := stmt.Exec(
			m.Timestamp, m.DeviceID,
			m.PM1CF1, m.PM25CF1, m.PM10CF1,
			m.PM1Atm, m.PM25Atm, m.PM10Atm,
			m.Particles03, m.Particles05, m.Particles10,
			m.Particles25, m.Particles50, m.Particles100,
			m.Version, m.ErrorCode,
		); err != nil {
			return fmt.Errorf("failed to insert measurement: %w", err)
		}
	}

	return tx.Commit()
}

// SelectRange returns measurements with from <= timestamp < to, ordered by
// timestamp ascending.
func (s *Store) SelectRange(from, to time.Time) ([]transport.Measurement, error) {
	rows, err := s.Query(`
		SELECT
			timestamp, device_id,
			pm1_0_cf1, pm2_5_cf1, pm10_cf1,
			pm1_0_atm, pm2_5_atm, pm10_atm,
			particles_03, particles_05, particles_10,
			particles_25, particles_50, particles_100,
			version, error_code
		FROM measurements
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
	`, from.UTC().Format(transport.TimestampFormat), to.UTC().Format(transport.TimestampFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transport.Measurement
	for rows.Next() {
		var m transport.Measurement
		if err := rows.Scan(
			&m.Timestamp, &m.DeviceID,
			&m.PM1CF1, &m.PM25CF1, &m.PM10CF1,
			&m.PM1Atm, &m.PM25Atm, &m.PM10Atm,
			&m.Particles03, &m.Particles05, &m.Particles10,
			&m.Particles25, &m.Particles50, &m.Particles100,
			&m.Version, &m.ErrorCode,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count returns the number of archived measurements.
func (s *Store) Count() (int, error) {
	var n int
	err := s.QueryRow(`SELECT COUNT(*) FROM measurements`).Scan(&n)
	return n, err
}
