package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/shopspring/decimal"

	"report-dispatch/geo"
	"report-dispatch/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var ts = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func TestEnsureSchema(t *testing.T) {
	it(func() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS reports").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS vehicles").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS buildings").WillReturnResult(sqlmock.NewResult(0, 0))

		if err := NewStore(db).EnsureSchema(context.Background()); err != nil {
			t.Errorf("EnsureSchema: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("There were unfulfilled expectations: %s", err)
		}
	})
}

func TestEnsureSchemaFailure(t *testing.T) {
	it(func() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS reports").WillReturnError(errors.New("denied"))

		if err := NewStore(db).EnsureSchema(context.Background()); err == nil {
			t.Errorf("Expected an error")
		}
	})
}

func TestSaveReport(t *testing.T) {
	testCases := []struct {
		name   string
		report models.Report
		lat    any
		lng    any
	}{
		{
			name: "Located report",
			report: models.Report{
				ID: "report-1", ReporterID: "alice", Timestamp: ts, Description: "bags",
				Location: &geo.Point{Latitude: 40.71, Longitude: -74.0},
				Status:   models.ReportInProgress, PenaltyStatus: models.PenaltyNone,
			},
			lat: 40.71,
			lng: -74.0,
		},
		{
			name: "Report without location",
			report: models.Report{
				ID: "report-2", ReporterID: "bob", Timestamp: ts, Description: "sofa",
				Status: models.ReportPending, PenaltyStatus: models.PenaltyDrafted,
				Analysis: &models.ReportAnalysis{IsBulkGenerator: true},
			},
			lat: nil,
			lng: nil,
		},
	}

	for _, testCase := range testCases {
		it(func() {
			mock.ExpectExec("INSERT INTO reports (.+) ON DUPLICATE KEY UPDATE").
				WithArgs(testCase.report.ID, testCase.report.ReporterID, ts, "", testCase.report.Description,
					testCase.lat, testCase.lng, string(testCase.report.Status), "",
					string(testCase.report.PenaltyStatus), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))

			if err := NewStore(db).SaveReport(context.Background(), &testCase.report); err != nil {
				t.Errorf("%s: SaveReport: %v", testCase.name, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: There were unfulfilled expectations: %s", testCase.name, err)
			}
		})
	}
}

func TestSaveVehicle(t *testing.T) {
	it(func() {
		v := models.Vehicle{
			ID:               "TRUCK-01",
			CurrentLocation:  geo.Point{Latitude: 1, Longitude: 2},
			Status:           models.VehicleEnRoute,
			AssignedReportID: "report-1",
			Destination:      &geo.Point{Latitude: 3, Longitude: 4},
			EnRouteTicks:     5,
		}
		mock.ExpectExec("INSERT INTO vehicles (.+) ON DUPLICATE KEY UPDATE").
			WithArgs("TRUCK-01", 1.0, 2.0, "En Route", "report-1", 3.0, 4.0, 5).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := NewStore(db).SaveVehicle(context.Background(), &v); err != nil {
			t.Errorf("SaveVehicle: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("There were unfulfilled expectations: %s", err)
		}
	})
}

func TestSaveBuilding(t *testing.T) {
	it(func() {
		b := models.Building{
			ID: "bldg-1", Name: "Riverside Towers", Address: "1 River Rd",
			Status: models.BuildingPenaltyActive,
			Penalties: []models.Penalty{{
				ID: "pen-1", Timestamp: ts, Type: models.PenaltyFine,
				Details: "fine", Amount: decimal.NewFromInt(5000),
			}},
		}
		mock.ExpectExec("INSERT INTO buildings (.+) ON DUPLICATE KEY UPDATE").
			WithArgs("bldg-1", "Riverside Towers", "1 River Rd", "PenaltyActive", "null", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := NewStore(db).SaveBuilding(context.Background(), &b); err != nil {
			t.Errorf("SaveBuilding: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("There were unfulfilled expectations: %s", err)
		}
	})
}

func TestSaveSnapshotRollsBackOnError(t *testing.T) {
	it(func() {
		reports := []models.Report{{ID: "report-1", Timestamp: ts, Status: models.ReportResolved, PenaltyStatus: models.PenaltyNone}}
		vehicles := []models.Vehicle{{ID: "TRUCK-01", Status: models.VehicleIdle}}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reports").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO vehicles").WillReturnError(errors.New("lock wait timeout"))
		mock.ExpectRollback()

		if err := NewStore(db).SaveSnapshot(context.Background(), reports, vehicles); err == nil {
			t.Errorf("Expected an error")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("There were unfulfilled expectations: %s", err)
		}
	})
}

func TestSaveSnapshot(t *testing.T) {
	it(func() {
		vehicles := []models.Vehicle{{ID: "TRUCK-01"}, {ID: "TRUCK-02"}}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO vehicles").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO vehicles").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		if err := NewStore(db).SaveSnapshot(context.Background(), nil, vehicles); err != nil {
			t.Errorf("SaveSnapshot: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("There were unfulfilled expectations: %s", err)
		}
	})
}

func TestLoadReports(t *testing.T) {
	it(func() {
		columns := []string{"id", "reporter_id", "ts", "image", "description", "latitude", "longitude",
			"status", "building_id", "penalty_status", "analysis"}
		mock.ExpectQuery("SELECT (.+) FROM reports").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("report-1", "alice", ts, nil, "bags", 40.71, -74.0, "In Progress", "", "None", nil).
				AddRow("report-2", "bob", ts, "img", "sofa", nil, nil, "Pending", "bldg-1", "Drafted",
					`{"estimated_volume":"large","waste_type_category":"furniture","is_bulk_generator":true,"analysis_summary":""}`))

		reports, err := NewStore(db).LoadReports(context.Background())
		if err != nil {
			t.Fatalf("LoadReports: %v", err)
		}
		if len(reports) != 2 {
			t.Fatalf("Expected 2 reports, got %d", len(reports))
		}
		if reports[0].Location == nil || reports[0].Location.Latitude != 40.71 || reports[0].Status != models.ReportInProgress {
			t.Errorf("Unexpected first report %+v", reports[0])
		}
		if reports[1].Location != nil {
			t.Errorf("Expected no location, got %+v", reports[1].Location)
		}
		if reports[1].Analysis == nil || !reports[1].Analysis.IsBulkGenerator || reports[1].BuildingID != "bldg-1" {
			t.Errorf("Unexpected second report %+v", reports[1])
		}
	})
}

func TestLoadVehicles(t *testing.T) {
	it(func() {
		columns := []string{"id", "latitude", "longitude", "status", "assigned_report_id",
			"dest_latitude", "dest_longitude", "en_route_ticks"}
		mock.ExpectQuery("SELECT (.+) FROM vehicles").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("TRUCK-01", 1.0, 2.0, "Idle", "", nil, nil, 0).
				AddRow("TRUCK-02", 1.5, 2.5, "En Route", "report-1", 3.0, 4.0, 7))

		vehicles, err := NewStore(db).LoadVehicles(context.Background())
		if err != nil {
			t.Fatalf("LoadVehicles: %v", err)
		}
		if len(vehicles) != 2 {
			t.Fatalf("Expected 2 vehicles, got %d", len(vehicles))
		}
		if vehicles[0].Destination != nil || vehicles[0].Status != models.VehicleIdle {
			t.Errorf("Unexpected first vehicle %+v", vehicles[0])
		}
		if vehicles[1].Destination == nil || vehicles[1].Destination.Longitude != 4.0 || vehicles[1].EnRouteTicks != 7 {
			t.Errorf("Unexpected second vehicle %+v", vehicles[1])
		}
	})
}

func TestLoadBuildings(t *testing.T) {
	it(func() {
		columns := []string{"id", "name", "address", "status", "warnings", "penalties"}
		mock.ExpectQuery("SELECT (.+) FROM buildings").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("bldg-1", "Riverside Towers", "1 River Rd", "WarningIssued",
					`[{"id":"warn-1","timestamp":"2024-06-01T10:00:00Z","reason":"overflowing bins"}]`, nil))

		buildings, err := NewStore(db).LoadBuildings(context.Background())
		if err != nil {
			t.Fatalf("LoadBuildings: %v", err)
		}
		if len(buildings) != 1 || len(buildings[0].Warnings) != 1 || buildings[0].Warnings[0].Reason != "overflowing bins" {
			t.Errorf("Unexpected buildings %+v", buildings)
		}
		if buildings[0].Status != models.BuildingWarningIssued {
			t.Errorf("Unexpected status %s", buildings[0].Status)
		}
	})
}

func TestLoadQueryError(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM reports").WillReturnError(errors.New("gone away"))

		if _, err := NewStore(db).LoadReports(context.Background()); err == nil {
			t.Errorf("Expected an error")
		}
	})
}
