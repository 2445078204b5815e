package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avaldez96/rescue-dispatch/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// an in-memory database exists per connection; the pool must not open
	// a second one
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

// NewFromDB wraps an existing handle without migrating. Used by tests that
// drive the store through a mock driver.
func NewFromDB(db *sql.DB) *SQLiteDB {
	return &SQLiteDB{db: db}
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			role TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS vehicles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'available'
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			location TEXT NOT NULL,
			latitude REAL,
			longitude REAL,
			image_url TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			assigned_vehicle_id INTEGER REFERENCES vehicles(id),
			assigned_responder_id INTEGER REFERENCES users(id),
			user_id INTEGER NOT NULL REFERENCES users(id),
			reported_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			occurred_at DATETIME NOT NULL,
			actor_id INTEGER NOT NULL,
			actor_role TEXT NOT NULL,
			action TEXT NOT NULL,
			alert_id INTEGER,
			vehicle_id INTEGER,
			outcome TEXT NOT NULL,
			detail TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
		CREATE INDEX IF NOT EXISTS idx_alerts_user_id ON alerts(user_id);
		CREATE INDEX IF NOT EXISTS idx_alerts_reported_at ON alerts(reported_at);
		CREATE INDEX IF NOT EXISTS idx_audit_log_alert_id ON audit_log(alert_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

const alertDetailColumns = `
	a.id, a.alert_type, a.severity, a.title, a.description, a.location,
	a.latitude, a.longitude, a.image_url, a.status,
	a.assigned_vehicle_id, a.assigned_responder_id, a.user_id,
	a.reported_at, a.updated_at,
	u.id, u.name, u.role,
	v.id, v.name, v.status,
	r.id, r.name, r.role`

const alertDetailJoins = `
	FROM alerts a
	LEFT JOIN users u ON u.id = a.user_id
	LEFT JOIN vehicles v ON v.id = a.assigned_vehicle_id
	LEFT JOIN users r ON r.id = a.assigned_responder_id`

func (s *SQLiteDB) List(ctx context.Context, f AlertFilter) ([]models.AlertDetail, error) {
	query := "SELECT" + alertDetailColumns + alertDetailJoins

	var conds []string
	var args []any
	if f.Status != nil {
		conds = append(conds, "a.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.Type != nil {
		conds = append(conds, "a.alert_type = ?")
		args = append(args, string(*f.Type))
	}
	if f.UserID != nil {
		conds = append(conds, "a.user_id = ?")
		args = append(args, *f.UserID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.reported_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	var out []models.AlertDetail
	for rows.Next() {
		d, err := scanAlertDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return out, nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id int64) (*models.AlertDetail, error) {
	query := "SELECT" + alertDetailColumns + alertDetailJoins + " WHERE a.id = ?"

	row := s.db.QueryRowContext(ctx, query, id)
	d, err := scanAlertDetail(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting alert %d: %w", id, err)
	}
	return d, nil
}

func (s *SQLiteDB) Create(ctx context.Context, a *models.Alert) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (
			alert_type, severity, title, description, location,
			latitude, longitude, image_url, status, user_id,
			reported_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.Type), string(a.Severity), a.Title, a.Description, a.Location,
		a.Latitude, a.Longitude, a.ImageURL, string(a.Status), a.UserID,
		formatTime(a.ReportedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading alert id: %w", err)
	}
	a.ID = id
	return nil
}

func (s *SQLiteDB) Update(ctx context.Context, id int64, p AlertPatch, now time.Time) (bool, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(now)}

	if p.Type != nil {
		sets = append(sets, "alert_type = ?")
		args = append(args, string(*p.Type))
	}
	if p.Severity != nil {
		sets = append(sets, "severity = ?")
		args = append(args, string(*p.Severity))
	}
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *p.Location)
	}
	if p.Latitude != nil {
		sets = append(sets, "latitude = ?")
		args = append(args, *p.Latitude)
	}
	if p.Longitude != nil {
		sets = append(sets, "longitude = ?")
		args = append(args, *p.Longitude)
	}
	if p.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *p.ImageURL)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}

	args = append(args, id)
	query := "UPDATE alerts SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("error updating alert %d: %w", id, err)
	}
	return rowTouched(res)
}

func (s *SQLiteDB) SetStatus(ctx context.Context, id int64, status models.AlertStatus, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE alerts SET status = ?, updated_at = ? WHERE id = ?",
		string(status), formatTime(now), id,
	)
	if err != nil {
		return false, fmt.Errorf("error setting status on alert %d: %w", id, err)
	}
	return rowTouched(res)
}

func (s *SQLiteDB) SetAssignment(ctx context.Context, id int64, a Assignment, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE alerts SET assigned_vehicle_id = ?, assigned_responder_id = ?, updated_at = ? WHERE id = ?",
		a.VehicleID, a.ResponderID, formatTime(now), id,
	)
	if err != nil {
		return false, fmt.Errorf("error setting assignment on alert %d: %w", id, err)
	}
	return rowTouched(res)
}

func (s *SQLiteDB) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM alerts WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("error deleting alert %d: %w", id, err)
	}
	return rowTouched(res)
}

func (s *SQLiteDB) ListAssignments(ctx context.Context) ([]AssignmentRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.status, a.assigned_vehicle_id, v.status
		FROM alerts a
		LEFT JOIN vehicles v ON v.id = a.assigned_vehicle_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing assignments: %w", err)
	}
	defer rows.Close()

	var out []AssignmentRow
	for rows.Next() {
		var (
			r      AssignmentRow
			status string
			vid    sql.NullInt64
			vstat  sql.NullString
		)
		if err := rows.Scan(&r.AlertID, &status, &vid, &vstat); err != nil {
			return nil, fmt.Errorf("error scanning assignment: %w", err)
		}
		r.Status = models.AlertStatus(status)
		if vid.Valid {
			r.VehicleID = &vid.Int64
		}
		if vstat.Valid {
			vs := models.VehicleStatus(vstat.String)
			r.VehicleStatus = &vs
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) GetVehicleByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	var v models.Vehicle
	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, status FROM vehicles WHERE id = ?", id,
	).Scan(&v.ID, &v.Name, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting vehicle %d: %w", id, err)
	}
	v.Status = models.VehicleStatus(status)
	return &v, nil
}

func (s *SQLiteDB) SetVehicleStatus(ctx context.Context, id int64, status models.VehicleStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE vehicles SET status = ? WHERE id = ?", string(status), id,
	)
	if err != nil {
		return fmt.Errorf("error setting status on vehicle %d: %w", id, err)
	}
	if ok, err := rowTouched(res); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("vehicle %d not found", id)
	}
	return nil
}

func (s *SQLiteDB) ListVehiclesByStatus(ctx context.Context, statuses ...models.VehicleStatus) ([]models.Vehicle, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, st := range statuses {
		placeholders[i] = "?"
		args[i] = string(st)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, status FROM vehicles WHERE status IN ("+strings.Join(placeholders, ", ")+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("error listing vehicles: %w", err)
	}
	defer rows.Close()

	var out []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		var status string
		if err := rows.Scan(&v.ID, &v.Name, &status); err != nil {
			return nil, fmt.Errorf("error scanning vehicle: %w", err)
		}
		v.Status = models.VehicleStatus(status)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	var role string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, role FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Name, &role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user %d: %w", id, err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (s *SQLiteDB) AddAuditEvent(ctx context.Context, ev *models.AuditEvent) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (
			occurred_at, actor_id, actor_role, action,
			alert_id, vehicle_id, outcome, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(ev.OccurredAt), ev.ActorID, string(ev.ActorRole), ev.Action,
		ev.AlertID, ev.VehicleID, ev.Outcome, ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("error inserting audit event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading audit event id: %w", err)
	}
	ev.ID = id
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlertDetail(row rowScanner) (*models.AlertDetail, error) {
	var (
		d           models.AlertDetail
		alertType   string
		severity    string
		status      string
		description sql.NullString
		lat, lng    sql.NullFloat64
		imageURL    sql.NullString
		vehicleID   sql.NullInt64
		responderID sql.NullInt64
		reportedAt  string
		updatedAt   string

		uID   sql.NullInt64
		uName sql.NullString
		uRole sql.NullString
		vID   sql.NullInt64
		vName sql.NullString
		vStat sql.NullString
		rID   sql.NullInt64
		rName sql.NullString
		rRole sql.NullString
	)

	err := row.Scan(
		&d.ID, &alertType, &severity, &d.Title, &description, &d.Location,
		&lat, &lng, &imageURL, &status,
		&vehicleID, &responderID, &d.UserID,
		&reportedAt, &updatedAt,
		&uID, &uName, &uRole,
		&vID, &vName, &vStat,
		&rID, &rName, &rRole,
	)
	if err != nil {
		return nil, err
	}

	d.Type = models.AlertType(alertType)
	d.Severity = models.Severity(severity)
	d.Status = models.AlertStatus(status)
	d.Description = description.String
	d.ImageURL = imageURL.String
	if lat.Valid {
		d.Latitude = &lat.Float64
	}
	if lng.Valid {
		d.Longitude = &lng.Float64
	}
	if vehicleID.Valid {
		d.AssignedVehicleID = &vehicleID.Int64
	}
	if responderID.Valid {
		d.AssignedResponderID = &responderID.Int64
	}
	d.ReportedAt = parseTime(reportedAt)
	d.UpdatedAt = parseTime(updatedAt)

	if uID.Valid {
		d.User = &models.UserSummary{
			ID:   uID.Int64,
			Name: uName.String,
			Role: models.Role(uRole.String),
		}
	}
	if vID.Valid {
		d.Vehicle = &models.VehicleSummary{
			ID:     vID.Int64,
			Name:   vName.String,
			Status: models.VehicleStatus(vStat.String),
		}
	}
	if rID.Valid {
		d.Responder = &models.UserSummary{
			ID:   rID.Int64,
			Name: rName.String,
			Role: models.Role(rRole.String),
		}
	}

	return &d, nil
}

func rowTouched(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading rows affected: %w", err)
	}
	return n > 0, nil
}

// timeLayout keeps fractional seconds fixed-width so stored timestamps sort
// lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
