package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/internal/security"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user
var ErrNotAuthenticated = errors.New("not authenticated")

// minPasswordLength is enforced on signup before calling the backend
const minPasswordLength = 8

// AuthBackend is the remote authentication service
type AuthBackend interface {
	SignIn(ctx context.Context, req backend.SignInRequest) (*backend.SignInResponse, error)
	SignUp(ctx context.Context, req backend.SignUpRequest) (*backend.SignUpResponse, error)
}

// TokenCipher seals the access token before it is written to storage
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignUpInput is the registration form
type SignUpInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	DateOfBirth     string // YYYY-MM-DD
}

// ProfileUpdate carries the user fields that may change locally
type ProfileUpdate struct {
	Username *string
	Email    *string
}

// SessionListener is told when a user signs in or the session ends. It runs
// after the session lock is released.
type SessionListener func(ctx context.Context, signedIn bool)

// SessionManager owns the authenticated-session record
type SessionManager struct {
	mu        sync.Mutex
	session   model.AuthSession
	listeners []SessionListener

	remote AuthBackend
	cipher TokenCipher
	store  *repository.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewSessionManager restores the persisted session. cipher may be nil, in
// which case the token is stored as is.
func NewSessionManager(ctx context.Context, remote AuthBackend, store *repository.Store, cipher TokenCipher, logger *zap.Logger) *SessionManager {
	m := &SessionManager{
		remote: remote,
		cipher: cipher,
		store:  store,
		now:    time.Now,
		logger: logger,
	}

	var saved model.AuthSession
	if !store.Load(ctx, repository.KeySession, &saved) || saved.User == nil || saved.User.AccessToken == "" {
		return m
	}

	token := saved.User.AccessToken
	if cipher == nil && security.IsSealed(token) {
		logger.Warn("discarding encrypted session: no session key configured")
		return m
	}
	if cipher != nil {
		plain, err := cipher.Decrypt(token)
		if err != nil {
			logger.Warn("discarding session with unreadable token", zap.Error(err))
			return m
		}
		token = plain
	}

	user := *saved.User
	user.AccessToken = token
	m.session = model.AuthSession{IsAuthenticated: true, User: &user}
	return m
}

// Login signs in against the backend and persists the session
func (m *SessionManager) Login(ctx context.Context, username, password string) (*model.AuthUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, newValidationError("username", "username is required")
	}
	if password == "" {
		return nil, newValidationError("password", "password is required")
	}

	resp, err := m.remote.SignIn(ctx, backend.SignInRequest{Username: username, Password: password})
	if err != nil {
		m.logger.Warn("sign in failed", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("sign in failed: %w", err)
	}

	user := model.AuthUser{
		ID:          resp.UserID,
		Username:    firstNonEmpty(resp.Username, username),
		Email:       firstNonEmpty(resp.Email, username),
		AccessToken: resp.AccessToken,
	}
	m.establish(ctx, user)

	m.logger.Info("user signed in", zap.Int64("user_id", user.ID))
	m.notify(ctx, true)
	return m.publicUser(), nil
}

// Validate checks the registration form
func (in SignUpInput) Validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return newValidationError("fullName", "full name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return newValidationError("email", "a valid email address is required")
	}
	if len(in.Password) < minPasswordLength {
		return newValidationError("password", "password must be at least %d characters", minPasswordLength)
	}
	if in.ConfirmPassword != in.Password {
		return newValidationError("confirmPassword", "passwords do not match")
	}
	if _, err := model.ParseDate(in.DateOfBirth); err != nil {
		return newValidationError("dateOfBirth", "date of birth must be a date (YYYY-MM-DD)")
	}
	return nil
}

// Register creates an account and signs the user in. When the backend does not
// return a token on signup, a regular sign in follows.
func (m *SessionManager) Register(ctx context.Context, in SignUpInput) (*model.AuthUser, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	dob, _ := model.ParseDate(in.DateOfBirth)
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)

	resp, err := m.remote.SignUp(ctx, backend.SignUpRequest{
		Username:    fullName,
		Email:       email,
		Password:    in.Password,
		FullName:    fullName,
		DateOfBirth: dob.String(),
	})
	if err != nil {
		m.logger.Warn("sign up failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("sign up failed: %w", err)
	}

	if resp.AccessToken == "" {
		return m.Login(ctx, fullName, in.Password)
	}

	m.establish(ctx, model.AuthUser{
		ID:          resp.UserID,
		Username:    fullName,
		Email:       email,
		AccessToken: resp.AccessToken,
	})

	m.logger.Info("user registered", zap.Int64("user_id", resp.UserID))
	m.notify(ctx, true)
	return m.publicUser(), nil
}

// OnChange registers a listener for sign-in and sign-out
func (m *SessionManager) OnChange(l SessionListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Logout clears the session and its stored record
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.clearLocked(ctx)
	m.mu.Unlock()

	m.notify(ctx, false)
}

// Invalidate forces a logout after the backend rejected the credential
func (m *SessionManager) Invalidate(ctx context.Context, reason string) {
	m.mu.Lock()
	if !m.session.IsAuthenticated {
		m.mu.Unlock()
		return
	}
	m.logger.Warn("session invalidated", zap.String("reason", reason))
	m.clearLocked(ctx)
	m.mu.Unlock()

	m.notify(ctx, false)
}

func (m *SessionManager) notify(ctx context.Context, signedIn bool) {
	m.mu.Lock()
	listeners := append([]SessionListener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, signedIn)
	}
}

// Current returns the session without the access token
func (m *SessionManager) Current() model.AuthSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.session.IsAuthenticated || m.session.User == nil {
		return model.AuthSession{}
	}
	user := *m.session.User
	user.AccessToken = ""
	return model.AuthSession{IsAuthenticated: true, User: &user}
}

// Token returns the bearer credential, or "" when signed out
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.User == nil {
		return ""
	}
	return m.session.User.AccessToken
}

// UpdateProfile merges the given fields into the signed-in user
func (m *SessionManager) UpdateProfile(ctx context.Context, update ProfileUpdate) (*model.AuthUser, error) {
	m.mu.Lock()
	if !m.session.IsAuthenticated || m.session.User == nil {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}

	if update.Username != nil {
		if name := strings.TrimSpace(*update.Username); name != "" {
			m.session.User.Username = name
		}
	}
	if update.Email != nil {
		if _, err := mail.ParseAddress(*update.Email); err != nil {
			m.mu.Unlock()
			return nil, newValidationError("email", "a valid email address is required")
		}
		m.session.User.Email = *update.Email
	}
	m.persistLocked(ctx)
	m.mu.Unlock()

	return m.publicUser(), nil
}

// Valid reports whether the session holds a usable token at now. The token
// must have the shape of a JWT; an exp claim, when present, must lie in the
// future. The signature is the backend's concern.
func (m *SessionManager) Valid(now time.Time) bool {
	token := m.Token()
	if token == "" {
		return false
	}
	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return exp.IsZero() || now.Before(exp)
}

// TokenExpiry returns the exp claim of a JWT, or the zero time when absent
func TokenExpiry(token string) (time.Time, error) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, fmt.Errorf("token is not a JWT")
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// Opaque three-part tokens are accepted without an expiry
		return time.Time{}, nil
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

func (m *SessionManager) establish(ctx context.Context, user model.AuthUser) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = model.AuthSession{IsAuthenticated: true, User: &user}
	m.persistLocked(ctx)
}

func (m *SessionManager) publicUser() *model.AuthUser {
	return m.Current().User
}

func (m *SessionManager) clearLocked(ctx context.Context) {
	m.session = model.AuthSession{}
	if err := m.store.Remove(ctx, repository.KeySession); err != nil {
		m.logger.Warn("failed to remove stored session", zap.Error(err))
	}
}

// persistLocked writes the session with the token sealed. Storage errors are logged only.
func (m *SessionManager) persistLocked(ctx context.Context) {
	if m.session.User == nil {
		return
	}
	user := *m.session.User
	if m.cipher != nil {
		sealed, err := m.cipher.Encrypt(user.AccessToken)
		if err != nil {
			m.logger.Error("failed to seal access token, session not persisted", zap.Error(err))
			return
		}
		user.AccessToken = sealed
	}

	record := model.AuthSession{IsAuthenticated: true, User: &user}
	if err := m.store.Save(ctx, repository.KeySession, record); err != nil {
		m.logger.Warn("failed to persist session", zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
