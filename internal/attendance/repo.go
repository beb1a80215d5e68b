package attendance

import (
	"context"
	"database/sql"
)

// Statuses for an attendance record.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is one attendance row: at most one exists per
// (student, date, subject) triple. Subject is the string captured from the
// teacher's profile at marking time, not a live reference.
type Record struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	TeacherID int64  `json:"teacher_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Subject   string `json:"subject"`
	Notes     string `json:"notes"`
}

// Mark is one student's entry in a submitted sheet.
type Mark struct {
	StudentID int64
	Present   bool
	Notes     string
}

// ReportRow is an attendance row joined with the people involved.
type ReportRow struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Subject     string `json:"subject"`
	Notes       string `json:"notes"`
	StudentName string `json:"student_name"`
	TeacherName string `json:"teacher_name"`
}

// StudentStat is a per-student aggregate for the teacher report.
type StudentStat struct {
	StudentID    int64   `json:"student_id"`
	Name         string  `json:"name"`
	TotalClasses int     `json:"total_classes"`
	PresentCount int     `json:"present_count"`
	Percent      float64 `json:"attendance_percent"`
}

// Repository persists attendance records.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertMarks writes a whole sheet in one transaction. Each mark is an
// atomic insert-or-update on the (student, date, subject) unique key, so
// re-submitting a date overwrites status and notes instead of duplicating
// rows, and a mid-batch failure leaves no partial sheet. Only status and
// notes are overwritten: an existing record keeps the teacher who first
// marked it, even when another teacher shares the subject string.
func (r *Repository) UpsertMarks(ctx context.Context, teacherID int64, subject, date string, marks []Mark) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range marks {
		status := StatusAbsent
		if m.Present {
			status = StatusPresent
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance (student_id, teacher_id, date, status, subject, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (student_id, date, subject)
			DO UPDATE SET status = excluded.status, notes = excluded.notes
		`, m.StudentID, teacherID, date, status, subject, m.Notes); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Sheet returns the records a teacher already wrote for a date and subject,
// keyed by student id, so a marking form can redisplay prior state.
func (r *Repository) Sheet(ctx context.Context, teacherID int64, date, subject string) (map[int64]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, teacher_id, date, status, subject, notes
		FROM attendance
		WHERE teacher_id = $1 AND date = $2 AND subject = $3
	`, teacherID, date, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sheet := make(map[int64]Record)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.TeacherID, &rec.Date, &rec.Status, &rec.Subject, &rec.Notes); err != nil {
			return nil, err
		}
		sheet[rec.StudentID] = rec
	}
	return sheet, rows.Err()
}

// CountAll returns the total number of attendance rows.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance`).Scan(&n)
	return n, err
}

// PresentOn counts a teacher's present marks for one date.
func (r *Repository) PresentOn(ctx context.Context, teacherID int64, date string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance
		WHERE teacher_id = $1 AND date = $2 AND status = $3
	`, teacherID, date, StatusPresent).Scan(&n)
	return n, err
}

// FilteredReport returns rows for one student joined with names, optionally
// bounded by an inclusive date range. Callers enforce the no-filter-no-rows
// rule; studentID is always required here.
func (r *Repository) FilteredReport(ctx context.Context, studentID int64, dateFrom, dateTo string) ([]ReportRow, error) {
	query := `
		SELECT a.id, a.date, a.status, a.subject, a.notes, s.name, t.name
		FROM attendance a
		JOIN users s ON a.student_id = s.id
		JOIN users t ON a.teacher_id = t.id
		WHERE a.student_id = $1`
	args := []any{studentID}
	if dateFrom != "" {
		args = append(args, dateFrom)
		query += " AND a.date >= $2"
	}
	if dateTo != "" {
		args = append(args, dateTo)
		if dateFrom != "" {
			query += " AND a.date <= $3"
		} else {
			query += " AND a.date <= $2"
		}
	}
	query += " ORDER BY a.date DESC, a.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []ReportRow
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(&row.ID, &row.Date, &row.Status, &row.Subject, &row.Notes, &row.StudentName, &row.TeacherName); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// TeacherStats aggregates every student's record count and present count for
// one teacher. Students with no records for the teacher appear with zeros.
func (r *Repository) TeacherStats(ctx context.Context, teacherID int64) ([]StudentStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name,
			COUNT(a.id),
			COALESCE(SUM(CASE WHEN a.status = 'present' THEN 1 ELSE 0 END), 0)
		FROM users s
		LEFT JOIN attendance a ON a.student_id = s.id AND a.teacher_id = $1
		WHERE s.role = 'student'
		GROUP BY s.id, s.name
		ORDER BY s.name
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []StudentStat
	for rows.Next() {
		var st StudentStat
		if err := rows.Scan(&st.StudentID, &st.Name, &st.TotalClasses, &st.PresentCount); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// StudentCounts returns a student's present and total record counts across
// all teachers.
func (r *Repository) StudentCounts(ctx context.Context, studentID int64) (present, total int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN status = 'present' THEN 1 ELSE 0 END), 0), COUNT(*)
		FROM attendance WHERE student_id = $1
	`, studentID).Scan(&present, &total)
	return present, total, err
}

// StudentHistory returns a student's own rows joined with the marking
// teacher's name, newest first.
func (r *Repository) StudentHistory(ctx context.Context, studentID int64) ([]ReportRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.date, a.status, a.subject, a.notes, s.name, t.name
		FROM attendance a
		JOIN users s ON a.student_id = s.id
		JOIN users t ON a.teacher_id = t.id
		WHERE a.student_id = $1
		ORDER BY a.date DESC, a.id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []ReportRow
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(&row.ID, &row.Date, &row.Status, &row.Subject, &row.Notes, &row.StudentName, &row.TeacherName); err != nil {
			return nil, err
		}
		history = append(history, row)
	}
	return history, rows.Err()
}
