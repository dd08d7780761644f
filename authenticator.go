package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// LoginRequest is the credential payload for a password login.
type LoginRequest struct {
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

// Validate checks the payload shape before any store access.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ChangePasswordRequest is the payload for an authenticated password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

// LoginResult carries everything a transport needs to establish the
// authenticated state: the opaque session token, the signed refresh token,
// and the lifetimes to mirror into cookies. RefreshToken may be empty on a
// refresh-only reissue, in which case the existing credential stands.
type LoginResult struct {
	User         PublicUser    `json:"user"`
	SessionToken string        `json:"-"`
	RefreshToken string        `json:"-"`
	AccessToken  string        `json:"-"`
	SessionTTL   time.Duration `json:"-"`
	RefreshTTL   time.Duration `json:"-"`
}

// UserTracker records metadata updates after a verified login.
type UserTracker interface {
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// Authenticator is the credential and session lifecycle surface.
type Authenticator interface {
	Login(ctx context.Context, req LoginRequest, client Client) (*LoginResult, error)
	Logout(ctx context.Context, sessionToken string) error
	Refresh(ctx context.Context, refreshToken string, client Client) (*LoginResult, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID, currentToken string) error
}

// Auther implements Authenticator over the narrow store surfaces so tests
// can stand it up without a database.
type Auther struct {
	users         UserStore
	sessions      SessionStore
	refreshTokens RefreshTokenStore
	attempts      LoginAttemptStore
	throttle      *LoginThrottle
	tokens        TokenService
	tracker       UserTracker
	activity      ActivitySink
	logger        Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuther wires an authenticator from individual stores.
func NewAuther(users UserStore, sessions SessionStore, refreshTokens RefreshTokenStore, attempts LoginAttemptStore, tokens TokenService) *Auther {
	return &Auther{
		users:         users,
		sessions:      sessions,
		refreshTokens: refreshTokens,
		attempts:      attempts,
		throttle:      NewLoginThrottle(attempts),
		tokens:        tokens,
		activity:      noopActivitySink{},
		logger:        defLogger{},
	}
}

// NewAutherFromManager is the common wiring over a repository manager.
func NewAutherFromManager(repos RepositoryManager, tokens TokenService) *Auther {
	a := NewAuther(repos.Users(), repos.Sessions(), repos.RefreshTokens(), repos.LoginAttempts(), tokens)
	a.tracker = repos.Users()
	return a
}

func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
		a.throttle = a.throttle.WithLogger(logger)
	}
	return a
}

func (a *Auther) WithActivitySink(sink ActivitySink) *Auther {
	a.activity = normalizeActivitySink(sink)
	return a
}

func (a *Auther) WithUserTracker(tracker UserTracker) *Auther {
	a.tracker = tracker
	return a
}

// Login authenticates a credential pair and establishes a session plus a
// refresh token. Every attempt is recorded with its real failure reason;
// the error returned to the caller goes through the external mapping so an
// unknown email and a wrong password are indistinguishable.
func (a *Auther) Login(ctx context.Context, req LoginRequest, client Client) (*LoginResult, error) {
	if err := req.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	email := NormalizeEmail(req.Email)

	status, err := a.throttle.Status(ctx, email)
	if err != nil {
		return nil, err
	}

	if status.Locked {
		a.recordAttempt(ctx, email, client, false, FailureAccountLocked)
		return nil, annotate(ErrAccountLocked, map[string]any{
			"locked_until": status.LockedUntil,
		})
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if user == nil {
		return nil, a.failLogin(ctx, email, client, FailureUserNotFound, status)
	}

	if !user.HasPassword() {
		return nil, a.failLogin(ctx, email, client, FailureNoPasswordSet, status)
	}

	if err := ComparePasswordAndHash(req.Password, *user.PasswordHash); err != nil {
		return nil, a.failLogin(ctx, email, client, FailureInvalidPassword, status)
	}

	if !user.EmailVerified {
		a.recordAttempt(ctx, email, client, false, FailureEmailNotVerified)
		return nil, annotate(ErrEmailNotVerified, map[string]any{
			"requires_verification": true,
		})
	}

	a.recordAttempt(ctx, email, client, true, "")

	if a.tracker != nil {
		if err := a.tracker.TrackSuccessfulLogin(ctx, user); err != nil {
			a.logger.Warn("failed to track login for %s: %v", user.ID, err)
		}
	}

	result, err := a.establish(ctx, user, client, req.RememberMe)
	if err != nil {
		return nil, err
	}

	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.ID.String(),
		Action:    "login",
		Details:   map[string]any{"remember_me": req.RememberMe},
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
	})

	return result, nil
}

// establish creates the session record and the refresh token pair for an
// already verified user.
func (a *Auther) establish(ctx context.Context, user *User, client Client, extended bool) (*LoginResult, error) {
	session, err := NewSession(user.ID, client, SessionDuration(extended))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session token")
	}

	if _, err := a.sessions.Create(ctx, session); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session")
	}

	subject := subjectForUser(user)

	accessToken, err := a.tokens.IssueAccessToken(subject, extended)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	refreshToken, err := a.tokens.IssueRefreshToken(subject)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	record, err := NewRefreshTokenRecord(user.ID, refreshToken, client, RefreshDuration(extended))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash refresh token")
	}

	if _, err := a.refreshTokens.Create(ctx, record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh token")
	}

	return &LoginResult{
		User:         user.Public(),
		SessionToken: session.Token,
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
		SessionTTL:   SessionDuration(extended),
		RefreshTTL:   RefreshDuration(extended),
	}, nil
}

// failLogin records the attempt under its real reason and returns the
// collapsed external error, annotated with the attempts left before lockout.
func (a *Auther) failLogin(ctx context.Context, email string, client Client, reason FailureReason, status ThrottleStatus) error {
	a.recordAttempt(ctx, email, client, false, reason)

	remaining := status.RemainingAttempts - 1
	if remaining < 0 {
		remaining = 0
	}

	return annotate(ExternalLoginError(reason), map[string]any{
		"remaining_attempts": remaining,
	})
}

func (a *Auther) recordAttempt(ctx context.Context, email string, client Client, success bool, reason FailureReason) {
	attempt := &LoginAttempt{
		Email:     email,
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
		Success:   success,
	}

	if reason != "" {
		r := string(reason)
		attempt.FailureReason = &r
	}

	if err := a.attempts.Record(ctx, attempt); err != nil {
		a.logger.Error("failed to record login attempt for %s: %v", email, err)
	}
}

// Logout removes the session record. Unknown tokens are a no-op so logout
// is always safe to call.
func (a *Auther) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	session, err := a.sessions.GetByToken(ctx, sessionToken)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session")
	}

	if session == nil {
		return nil
	}

	if err := a.sessions.DeleteByToken(ctx, sessionToken); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete session")
	}

	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    session.UserID.String(),
		Action:    "logout",
	})

	return nil
}

// Refresh validates a refresh token and reissues an access token with a new
// session. The refresh token itself is not rotated; the result carries an
// empty RefreshToken so transports leave the existing credential in place.
func (a *Auther) Refresh(ctx context.Context, refreshToken string, client Client) (*LoginResult, error) {
	claims, err := a.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, ErrTokenMalformed
	}

	records, err := a.refreshTokens.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load refresh tokens")
	}

	var matched *RefreshToken
	for _, rec := range records {
		if CompareOpaqueToken(refreshToken, rec.TokenHash) == nil {
			matched = rec
			break
		}
	}

	if matched == nil {
		// Valid signature but no live record: revoked or past the row expiry.
		return nil, ErrUnauthenticated
	}

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if user == nil {
		return nil, ErrUnauthenticated
	}

	session, err := NewSession(user.ID, client, SessionTTL)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session token")
	}

	if _, err := a.sessions.Create(ctx, session); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session")
	}

	accessToken, err := a.tokens.IssueAccessToken(subjectForUser(user), false)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventTokenRefreshed,
		UserID:    user.ID.String(),
		Action:    "refresh",
		IPAddress: client.IP,
		UserAgent: client.UserAgent,
	})

	return &LoginResult{
		User:         user.Public(),
		SessionToken: session.Token,
		AccessToken:  accessToken,
		SessionTTL:   SessionTTL,
	}, nil
}

// ChangePassword verifies the current credential, enforces the strength
// policy, swaps the hash, and revokes every refresh token. The session that
// carried the request stays valid; all other devices lose their ability to
// silently re-authenticate.
func (a *Auther) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password change payload")
	}

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
	}

	if user == nil {
		return ErrUnauthenticated
	}

	if !user.HasPassword() {
		return ErrOAuthOnlyAccount
	}

	if err := ComparePasswordAndHash(req.CurrentPassword, *user.PasswordHash); err != nil {
		return ErrCurrentPasswordIncorrect
	}

	strength := ValidatePasswordStrength(req.NewPassword)
	if !strength.Valid {
		return annotate(ErrWeakPassword, map[string]any{
			"errors": strength.Errors,
		})
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := a.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	revoked, err := a.refreshTokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke refresh tokens")
	}

	a.emit(ctx, ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		UserID:    userID.String(),
		Action:    "password_change",
		Details:   map[string]any{"refresh_tokens_revoked": revoked},
	})

	return nil
}

// ListSessions returns the user's active device sessions, newest first.
func (a *Auther) ListSessions(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	sessions, err := a.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list sessions")
	}
	return sessions, nil
}

// RevokeSession removes one of the user's own sessions by ID. Revoking the
// session backing the current request is rejected; logout is the way out.
func (a *Auther) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID, currentToken string) error {
	sessions, err := a.sessions.ListByUser(ctx, userID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list sessions")
	}

	var target *Session
	for _, s := range sessions {
		if s.ID == sessionID {
			target = s
			break
		}
	}

	if target == nil {
		return goerrors.New("session not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}

	if target.Token == currentToken {
		return ErrSessionNotOwn
	}

	if err := a.sessions.DeleteByID(ctx, userID, sessionID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete session")
	}

	a.emit(ctx, ActivityEvent{
		EventType:    ActivityEventSessionRevoked,
		UserID:       userID.String(),
		Action:       "session_revoke",
		ResourceType: "session",
		ResourceID:   sessionID.String(),
	})

	return nil
}

func (a *Auther) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Warn("failed to record activity %s: %v", event.EventType, err)
	}
}

// subjectForUser builds the token subject. Only the system role travels in
// the token; project roles are resolved per request from the session.
func subjectForUser(user *User) TokenSubject {
	subject := TokenSubject{
		UserID: user.ID,
		Email:  user.Email,
	}
	if user.SystemRole != nil && user.SystemRole.Role != "" {
		subject.Roles = []string{string(user.SystemRole.Role)}
	}
	return subject
}
