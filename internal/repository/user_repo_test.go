package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"medilinko/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "qr_code_id", "full_name", "email", "phone", "password_hash", "role", "is_profile_complete",
	"demographics", "location", "role_details", "created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// anyArgs matches n arguments of any value
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func doctorRow(now time.Time) []any {
	return []any{
		"u-1", strPtr("ML-DOCTOR-1-abc"), "Dr. A", "a@x.com", "123", "", strPtr("doctor"), true,
		[]byte(`{"bloodGroup":"O+","allergies":["penicillin"]}`),
		[]byte(`{"type":"Point","coordinates":[77.2,28.6]}`),
		[]byte(`{"specialization":"Cardiology","experience":12}`),
		now, now,
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(doctorRow(now)...))

	u, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "doctor", u.Role)
	assert.Equal(t, "ML-DOCTOR-1-abc", *u.QRCodeID)
	assert.Equal(t, "O+", u.Demographics.BloodGroup)
	assert.Equal(t, []string{"penicillin"}, u.Demographics.Allergies)
	require.NotNil(t, u.Location)
	assert.Equal(t, []float64{77.2, 28.6}, u.Location.Coordinates)

	doc, ok := u.Details.(*model.DoctorDetails)
	require.True(t, ok, "expected doctor variant, got %T", u.Details)
	assert.Equal(t, "Cardiology", doc.Specialization)
	assert.Equal(t, 12, *doc.Experience)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.FindByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByQRCodeID_RoleAbsent(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE qr_code_id = $1")).
		WithArgs("ML-USER-1-abc").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			"u-2", strPtr("ML-USER-1-abc"), "Legacy", "", "", "", (*string)(nil), false,
			[]byte(`{}`), []byte(nil), []byte(`{}`), now, now,
		))

	u, err := repo.FindByQRCodeID(context.Background(), "ML-USER-1-abc")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Empty(t, u.Role)
	assert.Nil(t, u.Location)
	assert.IsType(t, &model.PatientDetails{}, u.Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindAll(t *testing.T) {
	now := time.Now()

	t.Run("without filter", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectQuery(`(?s)SELECT .* FROM users ORDER BY created_at, id`).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(doctorRow(now)...).
				AddRow("u-2", (*string)(nil), "Legacy", "", "", "", (*string)(nil), false,
					[]byte(`{}`), []byte(nil), []byte(`{}`), now, now))

		users, err := repo.FindAll(context.Background(), model.UserFilters{})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Nil(t, users[1].QRCodeID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with role filter", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)
		role := model.RoleDoctor

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role = $1 ORDER BY created_at, id")).
			WithArgs("doctor").
			WillReturnRows(pgxmock.NewRows(columns).AddRow(doctorRow(now)...))

		users, err := repo.FindAll(context.Background(), model.UserFilters{Role: &role})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "doctor", users[0].Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectQuery(`FROM users`).WillReturnRows(pgxmock.NewRows(columns))

		users, err := repo.FindAll(context.Background(), model.UserFilters{})
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()
	exp := 5

	u := &model.User{
		FullName: "Dr. A",
		Email:    "a@x.com",
		Role:     model.RoleDoctor,
		QRCodeID: strPtr("ML-DOCTOR-1-abc"),
		Details:  &model.DoctorDetails{Specialization: "Cardiology", Experience: &exp},
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), strPtr("ML-DOCTOR-1-abc"), "Dr. A", "a@x.com", "", "", strPtr("doctor"), false,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, now, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateQRCodeID(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_qr_code_id_key"})

	err := repo.Create(context.Background(), &model.User{FullName: "A", QRCodeID: strPtr("dup")})
	assert.ErrorIs(t, err, ErrDuplicateQRCodeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEncodeDocuments(t *testing.T) {
	lat := 28.6
	u := &model.User{
		Demographics: model.Demographics{Gender: "female"},
		Details:      &model.PharmacistDetails{PharmacyName: "Care", PharmacyLatitude: &lat},
	}

	demo, location, details, err := encodeDocuments(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"gender":"female"}`, string(demo))
	assert.Nil(t, location)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(details, &decoded))
	assert.Equal(t, "Care", decoded["pharmacyName"])
	assert.Equal(t, 28.6, decoded["pharmacyLatitude"])
}

func TestUserRepository_Update(t *testing.T) {
	now := time.Now()

	t.Run("ok", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
			WithArgs("B", "b@x.com", "", "", (*string)(nil), true,
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "u-1").
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

		u := &model.User{ID: "u-1", FullName: "B", Email: "b@x.com", IsProfileComplete: true, Details: &model.PatientDetails{}}
		require.NoError(t, repo.Update(context.Background(), u))
		assert.Equal(t, now, u.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gone", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
			WithArgs(anyArgs(10)...).
			WillReturnError(pgx.ErrNoRows)

		err := repo.Update(context.Background(), &model.User{ID: "u-1"})
		assert.ErrorIs(t, err, ErrNoRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_AssignQRCodeID(t *testing.T) {
	t.Run("assigned", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET qr_code_id = $1, updated_at = NOW() WHERE id = $2 AND qr_code_id IS NULL")).
			WithArgs("ML-USER-1-abc", "u-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := repo.AssignQRCodeID(context.Background(), "u-1", "ML-USER-1-abc")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already has a token", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET qr_code_id")).
			WithArgs("ML-USER-1-abc", "u-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := repo.AssignQRCodeID(context.Background(), "u-1", "ML-USER-1-abc")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("collision", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET qr_code_id")).
			WithArgs("dup", "u-1").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		_, err := repo.AssignQRCodeID(context.Background(), "u-1", "dup")
		assert.ErrorIs(t, err, ErrDuplicateQRCodeID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Delete(t *testing.T) {
	now := time.Now()

	t.Run("returns deleted row", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM users WHERE id = $1 RETURNING")).
			WithArgs("u-1").
			WillReturnRows(pgxmock.NewRows(columns).AddRow(doctorRow(now)...))

		u, err := repo.Delete(context.Background(), "u-1")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "u-1", u.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing matched", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM users")).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		u, err := repo.Delete(context.Background(), "missing")
		assert.NoError(t, err)
		assert.Nil(t, u)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
