package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Sessions() SessionStore
	RefreshTokens() RefreshTokenStore
	LoginAttempts() LoginAttemptStore
}

type mngr struct {
	db            *bun.DB
	users         Users
	sessions      *Sessions
	refreshTokens *RefreshTokens
	loginAttempts *LoginAttempts
}

// NewRepositoryManager wires every repository over one injected bun handle.
// The handle's lifecycle belongs to the caller: constructed at process
// start, torn down at shutdown.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		sessions:      NewSessionsRepository(db),
		refreshTokens: NewRefreshTokensRepository(db),
		loginAttempts: NewLoginAttemptsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	if m.refreshTokens == nil {
		return errors.New("repository refreshTokens should be initialized")
	}

	if m.loginAttempts == nil {
		return errors.New("repository loginAttempts should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Sessions() SessionStore {
	return m.sessions
}

func (m mngr) RefreshTokens() RefreshTokenStore {
	return m.refreshTokens
}

func (m mngr) LoginAttempts() LoginAttemptStore {
	return m.loginAttempts
}
