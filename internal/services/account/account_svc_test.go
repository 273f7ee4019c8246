package account

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"roomrelay/internal/auth"
)

var (
	existsQ = regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`)
	insertQ = regexp.QuoteMeta(`INSERT INTO users (id, password_hash) VALUES ($1, $2)`)
	selectQ = regexp.QuoteMeta(`SELECT password_hash FROM users WHERE id = $1`)
)

func newService(t *testing.T) (IAccountService, sqlmock.Sqlmock, *auth.PasswordHasher, *auth.TokenManager) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		SecretKey: "account-test-secret-123",
		Algorithm: "HS256",
		TTL:       30 * time.Minute,
	})
	require.NoError(t, err)
	return NewAccountService(db, hasher, tokens), mock, hasher, tokens
}

func TestRegister(t *testing.T) {
	svc, mock, _, _ := newService(t)

	mock.ExpectQuery(existsQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(insertQ).WithArgs("alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Register(context.Background(), "alice", "s3cret-pass"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicate(t *testing.T) {
	svc, mock, _, _ := newService(t)

	mock.ExpectQuery(existsQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := svc.Register(context.Background(), "alice", "s3cret-pass")
	require.ErrorIs(t, err, ErrUserExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterUniqueViolationRace(t *testing.T) {
	svc, mock, _, _ := newService(t)

	mock.ExpectQuery(existsQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(insertQ).WithArgs("alice", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := svc.Register(context.Background(), "alice", "s3cret-pass")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, mock, hasher, tokens := newService(t)
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)

	mock.ExpectQuery(selectQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(hash))

	dto, err := svc.Login(context.Background(), "alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "bearer", dto.TokenType)
	assert.Equal(t, "alice", dto.Subject)
	assert.Equal(t, int64(1800), dto.ExpiresIn)

	sub, err := tokens.Verify(dto.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock, hasher, _ := newService(t)
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)

	mock.ExpectQuery(selectQ).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(hash))

	_, err = svc.Login(context.Background(), "alice", "guess")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, mock, _, _ := newService(t)

	mock.ExpectQuery(selectQ).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}))

	_, err := svc.Login(context.Background(), "ghost", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyStoreError(t *testing.T) {
	svc, mock, _, _ := newService(t)

	boom := errors.New("db down")
	mock.ExpectQuery(selectQ).WithArgs("alice").WillReturnError(boom)

	ok, err := svc.Verify(context.Background(), "alice", "x")
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
}
