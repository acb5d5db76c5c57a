package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"useradmin/m/domain"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username exists")
)

const queryTimeout = 3 * time.Second

// Users is the credential store: the users table behind plain
// parameterized statements.
type Users struct {
	db *sqlx.DB
}

func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// Create inserts a user and returns the id assigned by the database. A
// uniqueness violation on username is reported as ErrUsernameTaken.
func (s *Users) Create(ctx context.Context, username, passwordHash string, role domain.Role) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id int64
	if s.db.DriverName() == "pgx" {
		err := s.db.QueryRowxContext(ctx, `INSERT INTO users (username, password, role) VALUES ($1, $2, $3) RETURNING id`,
			username, passwordHash, string(role)).Scan(&id)
		if err != nil {
			return 0, insertError(err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users (username, password, role) VALUES (?, ?, ?)`, username, passwordHash, string(role))
	if err != nil {
		return 0, insertError(err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func insertError(err error) error {
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return fmt.Errorf("insert user: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// UsernameExists is the registration fast path. The UNIQUE constraint is
// what actually guarantees uniqueness.
func (s *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(1) FROM users WHERE username = ?`), username); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

// GetByUsername returns the full row including the password hash.
func (s *Users) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var u domain.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT id, username, password, role, created_at FROM users WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (s *Users) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var u domain.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT id, username, password, role, created_at FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// RoleByID reads the current role of a user. Authorization relies on this
// value rather than on any role carried in a token.
func (s *Users) RoleByID(ctx context.Context, id int64) (domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var role domain.Role
	err := s.db.GetContext(ctx, &role, s.db.Rebind(`SELECT role FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// List returns every user, newest first. Password hashes are not selected.
func (s *Users) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	users := []domain.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT id, username, role, created_at FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Users) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(1) FROM users WHERE role = ?`), string(role)); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// UpdateRole sets the role of the user with the given id. It returns
// ErrNotFound when no row matched.
func (s *Users) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET role = ? WHERE id = ?`), string(role), id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the user with the given id. It returns ErrNotFound when no
// row matched.
func (s *Users) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
