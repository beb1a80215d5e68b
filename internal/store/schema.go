package store

import (
	"context"
	"fmt"
)

// The schema is shared between Postgres and SQLite; only the id columns
// differ. The UNIQUE(student_id, date, subject) constraint backs the atomic
// mark-sheet upsert, so concurrent submissions cannot duplicate a triple.
func schemaStatements(idCol string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			name TEXT NOT NULL,
			subject TEXT
		)`, idCol),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS attendance (
			id %s,
			student_id INTEGER NOT NULL,
			teacher_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			status TEXT NOT NULL,
			subject TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			UNIQUE (student_id, date, subject)
		)`, idCol),
		`CREATE INDEX IF NOT EXISTS idx_attendance_teacher ON attendance (teacher_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance (student_id, date)`,
	}
}

// Migrate applies the schema statement by statement. It is idempotent and
// safe to run on every startup.
func (d *DB) Migrate(ctx context.Context) error {
	idCol := "BIGSERIAL PRIMARY KEY"
	if d.Driver == "sqlite" {
		idCol = "INTEGER PRIMARY KEY AUTOINCREMENT"
		if _, err := d.Client.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	for _, stmt := range schemaStatements(idCol) {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
