package social_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/lingopad/go-auth"
	"github.com/lingopad/go-auth/social"
)

type fakeProvider struct {
	name    string
	profile *social.SocialProfile
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthCodeURL(state string, opts ...social.AuthCodeOption) string {
	return "https://provider.example/authorize?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string, opts ...social.ExchangeOption) (*social.Token, error) {
	return &social.Token{AccessToken: "provider-access-token"}, nil
}

func (p *fakeProvider) UserInfo(ctx context.Context, token *social.Token) (*social.SocialProfile, error) {
	return p.profile, nil
}

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if v := args.Get(0); v != nil {
		return v.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserDirectory) Create(ctx context.Context, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	args := m.Called(ctx, record)
	if v := args.Get(0); v != nil {
		return v.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Create(ctx context.Context, session *auth.Session) (*auth.Session, error) {
	args := m.Called(ctx, session)
	return session, args.Error(1)
}

func (m *mockSessionStore) GetByToken(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if v := args.Get(0); v != nil {
		return v.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) DeleteByToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockSessionStore) DeleteByID(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockSessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*auth.Session, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) DeleteExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockRefreshTokenStore struct {
	mock.Mock
}

func (m *mockRefreshTokenStore) Create(ctx context.Context, token *auth.RefreshToken) (*auth.RefreshToken, error) {
	args := m.Called(ctx, token)
	return token, args.Error(1)
}

func (m *mockRefreshTokenStore) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*auth.RefreshToken, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]*auth.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRefreshTokenStore) Revoke(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func testConfig() social.SocialAuthConfig {
	return social.SocialAuthConfig{
		StateEncryptionKey:   []byte("0123456789abcdef0123456789abcdef"),
		StateHMACKey:         []byte("fedcba9876543210fedcba9876543210"),
		AllowSignup:          true,
		RequireEmailVerified: true,
	}
}

func newFixture(t *testing.T, profile *social.SocialProfile, cfg social.SocialAuthConfig) (*social.SocialAuthenticator, *mockUserDirectory, *mockSessionStore, *mockRefreshTokenStore) {
	t.Helper()

	users := new(mockUserDirectory)
	sessions := new(mockSessionStore)
	refreshTokens := new(mockRefreshTokenStore)
	tokens := auth.NewTokenService([]byte("test-signing-key-32-bytes-long!!"), "lingopad", nil, nil)

	sa := social.NewSocialAuthenticator(
		users, sessions, refreshTokens, tokens, cfg,
		social.WithProvider(&fakeProvider{name: "google", profile: profile}),
	)

	return sa, users, sessions, refreshTokens
}

func verifiedProfile() *social.SocialProfile {
	return &social.SocialProfile{
		ProviderUserID: "g-123",
		Provider:       "google",
		Email:          "social@example.com",
		EmailVerified:  true,
		Name:           "Social User",
		AvatarURL:      "https://img.example/avatar.png",
	}
}

func beginFlow(t *testing.T, sa *social.SocialAuthenticator) string {
	t.Helper()
	redirect, err := sa.BeginAuth(context.Background(), "google")
	require.NoError(t, err)
	require.NotEmpty(t, redirect.State)
	return redirect.State
}

func TestBeginAuthUnknownProvider(t *testing.T) {
	sa, _, _, _ := newFixture(t, verifiedProfile(), testConfig())

	_, err := sa.BeginAuth(context.Background(), "github")
	assert.ErrorIs(t, err, social.ErrProviderNotFound)
}

func TestCompleteAuthProvisionsNewUser(t *testing.T) {
	sa, users, sessions, refreshTokens := newFixture(t, verifiedProfile(), testConfig())
	state := beginFlow(t, sa)

	users.On("GetByEmail", mock.Anything, "social@example.com").Return(nil, nil)
	users.On("Create", mock.Anything, mock.Anything).
		Return(&auth.User{ID: uuid.New(), Email: "social@example.com", EmailVerified: true}, nil)
	sessions.On("Create", mock.Anything, mock.Anything).Return(nil, nil)
	refreshTokens.On("Create", mock.Anything, mock.Anything).Return(nil, nil)

	result, err := sa.CompleteAuth(context.Background(), "google", "auth-code", state, auth.Client{IP: "203.0.113.9"})
	require.NoError(t, err)

	assert.True(t, result.IsNewUser)
	assert.NotEmpty(t, result.SessionToken)
	assert.NotEmpty(t, result.RefreshToken)

	// OAuth lifetimes are fixed: 7d session, 30d refresh.
	assert.Equal(t, auth.OAuthSessionTTL, result.SessionTTL)
	assert.Equal(t, auth.OAuthRefreshTokenTTL, result.RefreshTTL)

	// Provisioned accounts carry the verified flag and no password.
	created := users.Calls[1].Arguments.Get(1).(*auth.User)
	assert.True(t, created.EmailVerified)
	assert.Nil(t, created.PasswordHash)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestCompleteAuthExistingUser(t *testing.T) {
	sa, users, sessions, refreshTokens := newFixture(t, verifiedProfile(), testConfig())
	state := beginFlow(t, sa)

	existing := &auth.User{ID: uuid.New(), Email: "social@example.com", EmailVerified: true}
	users.On("GetByEmail", mock.Anything, "social@example.com").Return(existing, nil)
	sessions.On("Create", mock.Anything, mock.Anything).Return(nil, nil)
	refreshTokens.On("Create", mock.Anything, mock.Anything).Return(nil, nil)

	result, err := sa.CompleteAuth(context.Background(), "google", "auth-code", state, auth.Client{})
	require.NoError(t, err)

	assert.False(t, result.IsNewUser)
	assert.Equal(t, existing.ID, result.User.ID)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCompleteAuthSignupDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.AllowSignup = false

	sa, users, _, _ := newFixture(t, verifiedProfile(), cfg)
	state := beginFlow(t, sa)

	users.On("GetByEmail", mock.Anything, "social@example.com").Return(nil, nil)

	_, err := sa.CompleteAuth(context.Background(), "google", "auth-code", state, auth.Client{})
	assert.ErrorIs(t, err, social.ErrSignupNotAllowed)
}

func TestCompleteAuthUnverifiedProfile(t *testing.T) {
	profile := verifiedProfile()
	profile.EmailVerified = false

	sa, _, _, _ := newFixture(t, profile, testConfig())
	state := beginFlow(t, sa)

	_, err := sa.CompleteAuth(context.Background(), "google", "auth-code", state, auth.Client{})
	assert.ErrorIs(t, err, social.ErrEmailNotVerified)
}

func TestCompleteAuthProviderMismatch(t *testing.T) {
	sa, _, _, _ := newFixture(t, verifiedProfile(), testConfig())
	state := beginFlow(t, sa)

	_, err := sa.CompleteAuth(context.Background(), "github", "auth-code", state, auth.Client{})
	assert.Error(t, err)
}

func TestCompleteAuthBadState(t *testing.T) {
	sa, _, _, _ := newFixture(t, verifiedProfile(), testConfig())

	_, err := sa.CompleteAuth(context.Background(), "google", "auth-code", "garbage-state", auth.Client{})
	assert.Error(t, err)
}

func TestCompleteAuthExpiredState(t *testing.T) {
	cfg := testConfig()
	cfg.StateTTL = -time.Minute

	sa, _, _, _ := newFixture(t, verifiedProfile(), cfg)
	state := beginFlow(t, sa)

	_, err := sa.CompleteAuth(context.Background(), "google", "auth-code", state, auth.Client{})
	assert.ErrorIs(t, err, social.ErrStateExpired)
}
