package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"

	auth "github.com/lingopad/go-auth"
)

// UserDirectory is the slice of the users repository the social flow
// needs. auth.Users satisfies it.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*auth.User, error)
	Create(ctx context.Context, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error)
}

// SocialAuthenticator orchestrates OAuth login flows: state round-trip,
// code exchange, user provisioning, and session establishment. OAuth logins
// get the fixed extended session and base refresh lifetimes; remember-me
// does not apply.
type SocialAuthenticator struct {
	providers     map[string]SocialProvider
	stateManager  StateManager
	users         UserDirectory
	sessions      auth.SessionStore
	refreshTokens auth.RefreshTokenStore
	tokens        auth.TokenService
	activity      auth.ActivitySink
	logger        auth.Logger
	config        SocialAuthConfig
}

// SocialAuthConfig configures the social authenticator.
type SocialAuthConfig struct {
	DefaultRedirectURL   string
	StateEncryptionKey   []byte
	StateHMACKey         []byte
	StateTTL             time.Duration
	AllowSignup          bool
	RequireEmailVerified bool
}

// SocialAuthOption configures the social authenticator.
type SocialAuthOption func(*SocialAuthenticator)

// NewSocialAuthenticator creates a new social authenticator.
func NewSocialAuthenticator(
	users UserDirectory,
	sessions auth.SessionStore,
	refreshTokens auth.RefreshTokenStore,
	tokens auth.TokenService,
	config SocialAuthConfig,
	opts ...SocialAuthOption,
) *SocialAuthenticator {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	sa := &SocialAuthenticator{
		providers:     make(map[string]SocialProvider),
		users:         users,
		sessions:      sessions,
		refreshTokens: refreshTokens,
		tokens:        tokens,
		config:        cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	if sa.stateManager == nil {
		sa.stateManager = NewEncryptedStateManager(
			cfg.StateEncryptionKey,
			cfg.StateHMACKey,
			cfg.StateTTL,
		)
	}

	return sa
}

// WithProvider registers a social provider.
func WithProvider(provider SocialProvider) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		if provider == nil {
			return
		}
		sa.providers[provider.Name()] = provider
	}
}

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.stateManager = sm
	}
}

// WithActivitySink sets the activity sink for audit logging.
func WithActivitySink(sink auth.ActivitySink) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.activity = sink
	}
}

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.logger = logger
	}
}

// BeginAuth starts the OAuth flow for a provider.
func (sa *SocialAuthenticator) BeginAuth(
	ctx context.Context,
	providerName string,
	opts ...BeginAuthOption,
) (*AuthRedirect, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	cfg := &beginAuthConfig{
		redirectURL: sa.config.DefaultRedirectURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	codeChallenge := computeCodeChallenge(codeVerifier)

	state := &OAuthState{
		Nonce:        generateNonce(),
		Provider:     providerName,
		CodeVerifier: codeVerifier,
		RedirectURL:  cfg.redirectURL,
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    time.Now().Add(sa.config.StateTTL).Unix(),
	}

	stateToken, err := sa.stateManager.Encode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	authURL := provider.AuthCodeURL(stateToken, WithPKCE(codeChallenge, "S256"))

	return &AuthRedirect{
		URL:      authURL,
		State:    stateToken,
		Provider: providerName,
	}, nil
}

// CompleteAuth finishes the OAuth flow after callback: it verifies the
// state, exchanges the code, finds or provisions the user, and establishes
// a server-side session plus a refresh token.
func (sa *SocialAuthenticator) CompleteAuth(
	ctx context.Context,
	providerName string,
	code string,
	stateToken string,
	client auth.Client,
) (*AuthResult, error) {
	state, err := sa.stateManager.Decode(stateToken)
	if err != nil {
		if errors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if state.Provider != providerName {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	token, err := provider.Exchange(ctx, code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTokenExchangeFailed, providerName, err)
	}

	profile, err := provider.UserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUserInfoFailed, providerName, err)
	}

	if profile.Email == "" {
		return nil, ErrEmailMissing
	}

	if sa.config.RequireEmailVerified && !profile.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	user, isNewUser, err := sa.findOrProvision(ctx, providerName, profile)
	if err != nil {
		return nil, err
	}

	session, err := auth.NewSession(user.ID, client, auth.OAuthSessionTTL)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session token")
	}

	if _, err := sa.sessions.Create(ctx, session); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session")
	}

	subject := auth.TokenSubject{UserID: user.ID, Email: user.Email}
	if user.SystemRole != nil && user.SystemRole.Role != "" {
		subject.Roles = []string{string(user.SystemRole.Role)}
	}

	refreshToken, err := sa.tokens.IssueRefreshToken(subject)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	record, err := auth.NewRefreshTokenRecord(user.ID, refreshToken, client, auth.OAuthRefreshTokenTTL)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash refresh token")
	}

	if _, err := sa.refreshTokens.Create(ctx, record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh token")
	}

	if sa.activity != nil {
		_ = sa.activity.Record(ctx, auth.ActivityEvent{
			EventType:  auth.ActivityEventSocialLogin,
			UserID:     user.ID.String(),
			Action:     "social_login",
			OccurredAt: time.Now(),
			IPAddress:  client.IP,
			UserAgent:  client.UserAgent,
			Details: map[string]any{
				"provider":         providerName,
				"provider_user_id": profile.ProviderUserID,
				"is_new_user":      isNewUser,
			},
		})
	}

	return &AuthResult{
		User:         user.Public(),
		SessionToken: session.Token,
		RefreshToken: refreshToken,
		SessionTTL:   auth.OAuthSessionTTL,
		RefreshTTL:   auth.OAuthRefreshTokenTTL,
		IsNewUser:    isNewUser,
		Provider:     providerName,
		Profile:      profile,
		RedirectURL:  state.RedirectURL,
	}, nil
}

// findOrProvision resolves a verified profile to a local account. New
// accounts get a deterministic ID derived from the email so repeated
// provisioning across environments converges on the same identity.
func (sa *SocialAuthenticator) findOrProvision(ctx context.Context, providerName string, profile *SocialProfile) (*auth.User, bool, error) {
	user, err := sa.users.GetByEmail(ctx, profile.Email)
	if err != nil {
		return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if user != nil {
		return user, false, nil
	}

	if !sa.config.AllowSignup {
		return nil, false, ErrSignupNotAllowed
	}

	record := &auth.User{
		Email:         auth.NormalizeEmail(profile.Email),
		Name:          profile.Name,
		Image:         profile.AvatarURL,
		EmailVerified: profile.EmailVerified,
	}

	if id, err := hashid.NewUUID(record.Email); err == nil {
		record.ID = id
	}

	created, err := sa.users.Create(ctx, record)
	if err != nil {
		return nil, false, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	return created, true, nil
}

// ListProviders returns all registered providers.
func (sa *SocialAuthenticator) ListProviders() []ProviderInfo {
	var providers []ProviderInfo
	for name, p := range sa.providers {
		providers = append(providers, ProviderInfo{
			Name:    name,
			AuthURL: p.AuthCodeURL(""),
		})
	}
	return providers
}

// ProviderInfo describes an available provider.
type ProviderInfo struct {
	Name    string
	AuthURL string
}

// AuthRedirect contains the authorization URL for redirecting users.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// AuthResult contains the result of a successful authentication.
type AuthResult struct {
	User         auth.PublicUser
	SessionToken string
	RefreshToken string
	SessionTTL   time.Duration
	RefreshTTL   time.Duration
	IsNewUser    bool
	Provider     string
	Profile      *SocialProfile
	RedirectURL  string
}

// BeginAuthOption configures the auth initiation.
type BeginAuthOption func(*beginAuthConfig)

type beginAuthConfig struct {
	redirectURL string
}

// WithRedirectURL sets the post-auth redirect URL.
func WithRedirectURL(url string) BeginAuthOption {
	return func(c *beginAuthConfig) {
		c.redirectURL = url
	}
}
