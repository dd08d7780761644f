package auth_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auth "github.com/lingopad/go-auth"
)

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if v := args.Get(0); v != nil {
		return v.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockSessionStore implements auth.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Create(ctx context.Context, session *auth.Session) (*auth.Session, error) {
	args := m.Called(ctx, session)
	if v := args.Get(0); v != nil {
		return v.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionStore) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if v := args.Get(0); v != nil {
		return v.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionStore) DeleteByToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSessionStore) DeleteByID(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockSessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*auth.Session, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionStore) DeleteExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockRefreshTokenStore implements auth.RefreshTokenStore
type MockRefreshTokenStore struct {
	mock.Mock
}

func (m *MockRefreshTokenStore) Create(ctx context.Context, token *auth.RefreshToken) (*auth.RefreshToken, error) {
	args := m.Called(ctx, token)
	if v := args.Get(0); v != nil {
		return v.(*auth.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshTokenStore) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*auth.RefreshToken, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*auth.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshTokenStore) Revoke(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockLoginAttemptStore implements auth.LoginAttemptStore
type MockLoginAttemptStore struct {
	mock.Mock
}

func (m *MockLoginAttemptStore) Record(ctx context.Context, attempt *auth.LoginAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockLoginAttemptStore) CountRecentFailures(ctx context.Context, email string, since time.Time) (int, error) {
	args := m.Called(ctx, email, since)
	return args.Int(0), args.Error(1)
}

func (m *MockLoginAttemptStore) LastFailureAt(ctx context.Context, email string, since time.Time) (*time.Time, error) {
	args := m.Called(ctx, email, since)
	if v := args.Get(0); v != nil {
		return v.(*time.Time), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockActivitySink implements auth.ActivitySink
type MockActivitySink struct {
	mock.Mock
	Events []auth.ActivityEvent
}

func (m *MockActivitySink) Record(ctx context.Context, event auth.ActivityEvent) error {
	m.Events = append(m.Events, event)
	args := m.Called(ctx, event)
	return args.Error(0)
}
