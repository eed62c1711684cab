// Package database persists the dispatch state in MySQL.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"report-dispatch/config"
	"report-dispatch/geo"
	"report-dispatch/models"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id VARCHAR(64) NOT NULL,
		reporter_id VARCHAR(255) NOT NULL,
		ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		image MEDIUMTEXT,
		description TEXT,
		latitude DOUBLE,
		longitude DOUBLE,
		status ENUM('Pending', 'In Progress', 'Resolved') NOT NULL DEFAULT 'Pending',
		building_id VARCHAR(64) NOT NULL DEFAULT '',
		penalty_status ENUM('None', 'Drafted', 'Issued') NOT NULL DEFAULT 'None',
		analysis JSON,
		PRIMARY KEY (id),
		INDEX status_idx (status),
		INDEX reporter_idx (reporter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id VARCHAR(64) NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		status ENUM('Idle', 'En Route', 'Collecting') NOT NULL DEFAULT 'Idle',
		assigned_report_id VARCHAR(64) NOT NULL DEFAULT '',
		dest_latitude DOUBLE,
		dest_longitude DOUBLE,
		en_route_ticks INT NOT NULL DEFAULT 0,
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE IF NOT EXISTS buildings (
		id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		address VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'Compliant',
		warnings JSON,
		penalties JSON,
		PRIMARY KEY (id)
	)`,
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// NewStore wraps an open connection pool
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Connect opens the MySQL pool and waits for the server to answer a ping,
// backing off between attempts until maxWait elapses.
func Connect(cfg *config.Config, maxWait time.Duration) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	deadline := time.Now().Add(maxWait)
	waitInterval := time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			db.Close()
			return nil, fmt.Errorf("database ping timeout after %v: %w", maxWait, pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 30*time.Second {
			waitInterval = 30 * time.Second
		}
	}

	log.Infof("Database connected successfully to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	return NewStore(db), nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables when they do not exist yet
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveReport upserts a single report
func (s *Store) SaveReport(ctx context.Context, r *models.Report) error {
	return saveReport(ctx, s.db, r)
}

// SaveVehicle upserts a single vehicle
func (s *Store) SaveVehicle(ctx context.Context, v *models.Vehicle) error {
	return saveVehicle(ctx, s.db, v)
}

// SaveBuilding upserts a single building
func (s *Store) SaveBuilding(ctx context.Context, b *models.Building) error {
	return saveBuilding(ctx, s.db, b)
}

// SaveSnapshot upserts the given reports and vehicles in one transaction
func (s *Store) SaveSnapshot(ctx context.Context, reports []models.Report, vehicles []models.Vehicle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for i := range reports {
		if err := saveReport(ctx, tx, &reports[i]); err != nil {
			tx.Rollback()
			return err
		}
	}
	for i := range vehicles {
		if err := saveVehicle(ctx, tx, &vehicles[i]); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func saveReport(ctx context.Context, ex execer, r *models.Report) error {
	var lat, lng sql.NullFloat64
	if r.Location != nil {
		lat = sql.NullFloat64{Float64: r.Location.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: r.Location.Longitude, Valid: true}
	}
	var analysis sql.NullString
	if r.Analysis != nil {
		b, err := json.Marshal(r.Analysis)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis for report %s: %w", r.ID, err)
		}
		analysis = sql.NullString{String: string(b), Valid: true}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO reports (id, reporter_id, ts, image, description, latitude, longitude, status, building_id, penalty_status, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			building_id = VALUES(building_id),
			penalty_status = VALUES(penalty_status),
			analysis = VALUES(analysis)`,
		r.ID, r.ReporterID, r.Timestamp, r.Image, r.Description, lat, lng,
		string(r.Status), r.BuildingID, string(r.PenaltyStatus), analysis)
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", r.ID, err)
	}
	return nil
}

func saveVehicle(ctx context.Context, ex execer, v *models.Vehicle) error {
	var destLat, destLng sql.NullFloat64
	if v.Destination != nil {
		destLat = sql.NullFloat64{Float64: v.Destination.Latitude, Valid: true}
		destLng = sql.NullFloat64{Float64: v.Destination.Longitude, Valid: true}
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO vehicles (id, latitude, longitude, status, assigned_report_id, dest_latitude, dest_longitude, en_route_ticks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			latitude = VALUES(latitude),
			longitude = VALUES(longitude),
			status = VALUES(status),
			assigned_report_id = VALUES(assigned_report_id),
			dest_latitude = VALUES(dest_latitude),
			dest_longitude = VALUES(dest_longitude),
			en_route_ticks = VALUES(en_route_ticks)`,
		v.ID, v.CurrentLocation.Latitude, v.CurrentLocation.Longitude, string(v.Status),
		v.AssignedReportID, destLat, destLng, v.EnRouteTicks)
	if err != nil {
		return fmt.Errorf("failed to save vehicle %s: %w", v.ID, err)
	}
	return nil
}

func saveBuilding(ctx context.Context, ex execer, b *models.Building) error {
	warnings, err := json.Marshal(b.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings for building %s: %w", b.ID, err)
	}
	penalties, err := json.Marshal(b.Penalties)
	if err != nil {
		return fmt.Errorf("failed to marshal penalties for building %s: %w", b.ID, err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO buildings (id, name, address, status, warnings, penalties)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			address = VALUES(address),
			status = VALUES(status),
			warnings = VALUES(warnings),
			penalties = VALUES(penalties)`,
		b.ID, b.Name, b.Address, string(b.Status), string(warnings), string(penalties))
	if err != nil {
		return fmt.Errorf("failed to save building %s: %w", b.ID, err)
	}
	return nil
}

// LoadReports retrieves all stored reports
func (s *Store) LoadReports(ctx context.Context) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reporter_id, ts, image, description, latitude, longitude,
			status, building_id, penalty_status, analysis
		FROM reports`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var (
			r                     models.Report
			image, description    sql.NullString
			lat, lng              sql.NullFloat64
			status, penaltyStatus string
			analysis              sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ReporterID, &r.Timestamp, &image, &description,
			&lat, &lng, &status, &r.BuildingID, &penaltyStatus, &analysis); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Image = image.String
		r.Description = description.String
		r.Status = models.ReportStatus(status)
		r.PenaltyStatus = models.PenaltyStatus(penaltyStatus)
		if lat.Valid && lng.Valid {
			r.Location = &geo.Point{Latitude: lat.Float64, Longitude: lng.Float64}
		}
		if analysis.Valid && analysis.String != "" {
			var a models.ReportAnalysis
			if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
				log.WithField("report", r.ID).Warnf("dropping malformed analysis: %v", err)
			} else {
				r.Analysis = &a
			}
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

// LoadVehicles retrieves all stored vehicles
func (s *Store) LoadVehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, latitude, longitude, status, assigned_report_id,
			dest_latitude, dest_longitude, en_route_ticks
		FROM vehicles`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var (
			v                models.Vehicle
			status           string
			destLat, destLng sql.NullFloat64
		)
		if err := rows.Scan(&v.ID, &v.CurrentLocation.Latitude, &v.CurrentLocation.Longitude,
			&status, &v.AssignedReportID, &destLat, &destLng, &v.EnRouteTicks); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		v.Status = models.VehicleStatus(status)
		if destLat.Valid && destLng.Valid {
			v.Destination = &geo.Point{Latitude: destLat.Float64, Longitude: destLng.Float64}
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vehicles: %w", err)
	}
	return vehicles, nil
}

// LoadBuildings retrieves all stored buildings
func (s *Store) LoadBuildings(ctx context.Context) ([]models.Building, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, status, warnings, penalties
		FROM buildings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings: %w", err)
	}
	defer rows.Close()

	var buildings []models.Building
	for rows.Next() {
		var (
			b                   models.Building
			status              string
			warnings, penalties sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &status, &warnings, &penalties); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		b.Status = models.BuildingStatus(status)
		if err := unmarshalList(warnings, &b.Warnings); err != nil {
			return nil, fmt.Errorf("failed to decode warnings of building %s: %w", b.ID, err)
		}
		if err := unmarshalList(penalties, &b.Penalties); err != nil {
			return nil, fmt.Errorf("failed to decode penalties of building %s: %w", b.ID, err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating buildings: %w", err)
	}
	return buildings, nil
}

func unmarshalList(s sql.NullString, dst any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}
