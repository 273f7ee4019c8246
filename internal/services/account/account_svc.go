package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type TokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"  example:"bearer"`
	Subject     string `json:"sub"`
	ExpiresIn   int64  `json:"expires_in"`
}

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid id or password")
)

// unique_violation
const pgUniqueViolation = "23505"

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type Issuer interface {
	Issue(identity string) (string, error)
	TTL() time.Duration
}

type IAccountService interface {
	Register(ctx context.Context, id, password string) error
	Login(ctx context.Context, id, password string) (*TokenDTO, error)
	Verify(ctx context.Context, id, password string) (bool, error)
}

type accountService struct {
	db     *sql.DB
	hasher Hasher
	issuer Issuer
}

var _ IAccountService = (*accountService)(nil)

func NewAccountService(db *sql.DB, hasher Hasher, issuer Issuer) IAccountService {
	return &accountService{
		db:     db,
		hasher: hasher,
		issuer: issuer,
	}
}

// Register stores a salted hash for a new identity.
func (svc *accountService) Register(ctx context.Context, id, password string) error {
	var exists bool
	err := svc.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check user %s: %w", id, err)
	}
	if exists {
		return ErrUserExists
	}

	hash, err := svc.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = svc.db.ExecContext(ctx,
		`INSERT INTO users (id, password_hash) VALUES ($1, $2)`, id, hash)
	if err != nil {
		// lost a race with a concurrent registration of the same id
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("insert user %s: %w", id, err)
	}
	return nil
}

// Verify compares password against the stored hash. Unknown ids are not an error.
func (svc *accountService) Verify(ctx context.Context, id, password string) (bool, error) {
	var hash string
	err := svc.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load user %s: %w", id, err)
	}
	return svc.hasher.Verify(password, hash), nil
}

func (svc *accountService) Login(ctx context.Context, id, password string) (*TokenDTO, error) {
	ok, err := svc.Verify(ctx, id, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := svc.issuer.Issue(id)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &TokenDTO{
		AccessToken: token,
		TokenType:   "bearer",
		Subject:     id,
		ExpiresIn:   int64(svc.issuer.TTL().Seconds()),
	}, nil
}
