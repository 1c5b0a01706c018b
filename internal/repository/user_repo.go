package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"medilinko/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNoRecord          = errors.New("record not found")
	ErrDuplicateQRCodeID = errors.New("qr code id already in use")
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByQRCodeID(ctx context.Context, qrCodeID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAll(ctx context.Context, filters model.UserFilters) ([]model.User, error)
	FindMissingQRCodeID(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	AssignQRCodeID(ctx context.Context, id, qrCodeID string) (bool, error)
	Delete(ctx context.Context, id string) (*model.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, qr_code_id, full_name, email, phone, password_hash, role, is_profile_complete,
            demographics, location, role_details, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                         model.User
		role                      *string
		demo, location, roleBlock []byte
	)
	err := row.Scan(
		&u.ID, &u.QRCodeID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash, &role, &u.IsProfileComplete,
		&demo, &location, &roleBlock, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if role != nil {
		u.Role = *role
	}
	if len(demo) > 0 {
		if err := json.Unmarshal(demo, &u.Demographics); err != nil {
			return nil, fmt.Errorf("failed to decode demographics of user %s: %w", u.ID, err)
		}
	}
	if len(location) > 0 && string(location) != "null" {
		u.Location = &model.GeoPoint{}
		if err := json.Unmarshal(location, u.Location); err != nil {
			return nil, fmt.Errorf("failed to decode location of user %s: %w", u.ID, err)
		}
	}
	u.Details, err = model.DecodeRoleDetails(u.Role, roleBlock)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	return &u, nil
}

// encodeDocuments renders the JSONB columns of a user
func encodeDocuments(u *model.User) (demo, location, details []byte, err error) {
	demo, err = json.Marshal(u.Demographics)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode demographics: %w", err)
	}
	if u.Location != nil {
		location, err = json.Marshal(u.Location)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode location: %w", err)
		}
	}
	if u.Details == nil {
		details = []byte("{}")
	} else {
		details, err = json.Marshal(u.Details)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode role details: %w", err)
		}
	}
	return demo, location, details, nil
}

func nullableRole(role string) *string {
	if role == "" {
		return nil
	}
	return &role
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Create inserts a new user into the database, assigning an ID when none is set
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	demo, location, details, err := encodeDocuments(u)
	if err != nil {
		return err
	}

	sql := `INSERT INTO users (id, qr_code_id, full_name, email, phone, password_hash, role, is_profile_complete,
            demographics, location, role_details)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING created_at, updated_at`
	err = r.db.QueryRow(ctx, sql,
		u.ID, u.QRCodeID, u.FullName, u.Email, u.Phone, u.PasswordHash, nullableRole(u.Role), u.IsProfileComplete,
		demo, location, details,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateQRCodeID
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by its ID
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return u, nil
}

// FindByQRCodeID retrieves a user by its public QR token
func (r *userRepository) FindByQRCodeID(ctx context.Context, qrCodeID string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE qr_code_id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, sql, qrCodeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by QR code ID: %w", err)
	}
	return u, nil
}

// FindByEmail retrieves the oldest user with the given email, case-insensitively
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) ORDER BY created_at, id LIMIT 1`
	u, err := scanUser(r.db.QueryRow(ctx, sql, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

// FindAll retrieves users in insertion order with optional filters
func (r *userRepository) FindAll(ctx context.Context, filters model.UserFilters) ([]model.User, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + userColumns + ` FROM users`)

	args := []interface{}{}
	argCount := 1
	var conditions []string

	if filters.Role != nil && *filters.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argCount))
		args = append(args, *filters.Role)
		//argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at, id")

	return r.queryUsers(ctx, queryBuilder.String(), args...)
}

// FindMissingQRCodeID retrieves users that have no QR token yet
func (r *userRepository) FindMissingQRCodeID(ctx context.Context) ([]model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE qr_code_id IS NULL ORDER BY created_at, id`
	return r.queryUsers(ctx, sql)
}

func (r *userRepository) queryUsers(ctx context.Context, sql string, args ...any) ([]model.User, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Update writes every mutable column of an existing user; qr_code_id is never touched here
func (r *userRepository) Update(ctx context.Context, u *model.User) error {
	demo, location, details, err := encodeDocuments(u)
	if err != nil {
		return err
	}

	sql := `UPDATE users
            SET full_name = $1, email = $2, phone = $3, password_hash = $4, role = $5, is_profile_complete = $6,
                demographics = $7, location = $8, role_details = $9, updated_at = NOW()
            WHERE id = $10 RETURNING updated_at`
	err = r.db.QueryRow(ctx, sql,
		u.FullName, u.Email, u.Phone, u.PasswordHash, nullableRole(u.Role), u.IsProfileComplete,
		demo, location, details, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoRecord
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// AssignQRCodeID sets the QR token of a user that has none yet.
// It reports false when the user is gone or already has a token.
func (r *userRepository) AssignQRCodeID(ctx context.Context, id, qrCodeID string) (bool, error) {
	sql := `UPDATE users SET qr_code_id = $1, updated_at = NOW() WHERE id = $2 AND qr_code_id IS NULL`
	cmdTag, err := r.db.Exec(ctx, sql, qrCodeID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicateQRCodeID
		}
		return false, fmt.Errorf("failed to assign QR code ID: %w", err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

// Delete removes a user and returns the removed row, or nil when nothing matched
func (r *userRepository) Delete(ctx context.Context, id string) (*model.User, error) {
	sql := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return u, nil
}
