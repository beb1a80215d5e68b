package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository persists user accounts.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = "id, username, password, role, name, subject"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var subject sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.Name, &subject); err != nil {
		return User{}, err
	}
	if subject.Valid {
		u.Subject = &subject.String
	}
	return u, nil
}

// ListByRole returns all users with the given role, ordered by name.
func (r *Repository) ListByRole(ctx context.Context, role string) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY name
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountByRole returns the number of users with the given role.
func (r *Repository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}

// GetByID returns a single user.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// GetByUsernameRole looks a user up by the exact (username, role) pair.
// Login is keyed on the pair: a correct password under the wrong role still
// fails.
func (r *Repository) GetByUsernameRole(ctx context.Context, username, role string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1 AND role = $2
	`, username, role)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// usernameTaken checks uniqueness across the whole user set. excludeID
// ignores the row being edited; pass 0 for creates.
func (r *Repository) usernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE username = $1 AND id <> $2
	`, username, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a new account. Password must already be hashed.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	taken, err := r.usernameTaken(ctx, u.Username, 0)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrDuplicateUsername
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password, role, name, subject)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, u.Username, u.Password, u.Role, u.Name, u.Subject).Scan(&u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Update edits name and username, plus subject when non-nil and password
// when newHash is non-empty. A blank newHash preserves the stored hash.
func (r *Repository) Update(ctx context.Context, id int64, name, username string, subject *string, newHash string) error {
	taken, err := r.usernameTaken(ctx, username, id)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateUsername
	}

	query := "UPDATE users SET name = $1, username = $2"
	args := []any{name, username}
	if subject != nil {
		args = append(args, *subject)
		query += fmt.Sprintf(", subject = $%d", len(args))
	}
	if newHash != "" {
		args = append(args, newHash)
		query += fmt.Sprintf(", password = $%d", len(args))
	}
	args = append(args, id)
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user and every attendance row referencing them as either
// student or teacher, in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM attendance WHERE student_id = $1 OR teacher_id = $1
	`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
