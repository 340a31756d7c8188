package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/internal/security"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "7"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestEncryptor(t *testing.T) *security.Encryptor {
	t.Helper()
	enc, err := security.NewEncryptor([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	return enc
}

func validSignUp() SignUpInput {
	return SignUpInput{
		FullName:        "Jane Doe",
		Email:           "jane@example.com",
		Password:        "supersecret",
		ConfirmPassword: "supersecret",
		DateOfBirth:     "1990-04-12",
	}
}

func TestSessionManager_Login(t *testing.T) {
	ctx := context.Background()
	remote := new(MockAuthBackend)
	store := newMemoryStore()
	manager := NewSessionManager(ctx, remote, store, nil, zap.NewNop())

	remote.On("SignIn", ctx, backend.SignInRequest{Username: "jane", Password: "pw"}).Return(&backend.SignInResponse{
		AccessToken: "header.payload.sig",
		TokenType:   "bearer",
		UserID:      7,
		Username:    "jane",
	}, nil)

	user, err := manager.Login(ctx, " jane ", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "jane", user.Email, "email falls back to the username")
	assert.Empty(t, user.AccessToken)

	assert.Equal(t, "header.payload.sig", manager.Token())
	assert.True(t, manager.Current().IsAuthenticated)

	var saved model.AuthSession
	require.True(t, store.Load(ctx, repository.KeySession, &saved))
	assert.True(t, saved.IsAuthenticated)
	assert.Equal(t, "header.payload.sig", saved.User.AccessToken)
}

func TestSessionManager_LoginValidation(t *testing.T) {
	remote := new(MockAuthBackend)
	manager := NewSessionManager(context.Background(), remote, newMemoryStore(), nil, zap.NewNop())

	var verr *ValidationError
	_, err := manager.Login(context.Background(), "", "pw")
	assert.ErrorAs(t, err, &verr)
	_, err = manager.Login(context.Background(), "jane", "")
	assert.ErrorAs(t, err, &verr)
	remote.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything)
}

func TestSessionManager_LoginFailureLeavesSignedOut(t *testing.T) {
	ctx := context.Background()
	remote := new(MockAuthBackend)
	manager := NewSessionManager(ctx, remote, newMemoryStore(), nil, zap.NewNop())

	apiErr := &backend.APIError{StatusCode: 401, Detail: "Incorrect username or password"}
	remote.On("SignIn", ctx, mock.Anything).Return(nil, apiErr)

	_, err := manager.Login(ctx, "jane", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect username or password")
	assert.False(t, manager.Current().IsAuthenticated)
	assert.Empty(t, manager.Token())
}

func TestSignUpInput_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(in *SignUpInput)
		wantField string
	}{
		{name: "valid", modify: func(in *SignUpInput) {}},
		{name: "missing name", modify: func(in *SignUpInput) { in.FullName = " " }, wantField: "fullName"},
		{name: "bad email", modify: func(in *SignUpInput) { in.Email = "not-an-email" }, wantField: "email"},
		{name: "short password", modify: func(in *SignUpInput) { in.Password, in.ConfirmPassword = "short", "short" }, wantField: "password"},
		{name: "mismatch", modify: func(in *SignUpInput) { in.ConfirmPassword = "different1" }, wantField: "confirmPassword"},
		{name: "bad birth date", modify: func(in *SignUpInput) { in.DateOfBirth = "12/04/1990" }, wantField: "dateOfBirth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSignUp()
			tt.modify(&in)
			err := in.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestSessionManager_RegisterFallsBackToSignIn(t *testing.T) {
	ctx := context.Background()
	remote := new(MockAuthBackend)
	manager := NewSessionManager(ctx, remote, newMemoryStore(), nil, zap.NewNop())

	remote.On("SignUp", ctx, backend.SignUpRequest{
		Username:    "Jane Doe",
		Email:       "jane@example.com",
		Password:    "supersecret",
		FullName:    "Jane Doe",
		DateOfBirth: "1990-04-12",
	}).Return(&backend.SignUpResponse{Success: true, Message: "User created", UserID: 9}, nil)
	remote.On("SignIn", ctx, backend.SignInRequest{Username: "Jane Doe", Password: "supersecret"}).Return(&backend.SignInResponse{
		AccessToken: "a.b.c",
		UserID:      9,
		Username:    "Jane Doe",
		Email:       "jane@example.com",
	}, nil)

	user, err := manager.Register(ctx, validSignUp())
	require.NoError(t, err)
	assert.Equal(t, int64(9), user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "a.b.c", manager.Token())
	remote.AssertExpectations(t)
}

func TestSessionManager_RegisterWithToken(t *testing.T) {
	ctx := context.Background()
	remote := new(MockAuthBackend)
	manager := NewSessionManager(ctx, remote, newMemoryStore(), nil, zap.NewNop())

	remote.On("SignUp", ctx, mock.Anything).Return(&backend.SignUpResponse{Success: true, UserID: 3, AccessToken: "x.y.z"}, nil)

	user, err := manager.Register(ctx, validSignUp())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", user.Username)
	assert.Equal(t, "x.y.z", manager.Token())
	remote.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything)
}

func TestSessionManager_RegisterFailure(t *testing.T) {
	ctx := context.Background()
	remote := new(MockAuthBackend)
	manager := NewSessionManager(ctx, remote, newMemoryStore(), nil, zap.NewNop())

	remote.On("SignUp", ctx, mock.Anything).Return(nil, &backend.APIError{StatusCode: 400, Detail: "Email already registered"})

	_, err := manager.Register(ctx, validSignUp())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email already registered")
	assert.False(t, manager.Current().IsAuthenticated)
}

func TestSessionManager_LogoutAndInvalidate(t *testing.T) {
	ctx := context.Background()
	remote := new(MockAuthBackend)
	store := newMemoryStore()
	manager := NewSessionManager(ctx, remote, store, nil, zap.NewNop())
	remote.On("SignIn", ctx, mock.Anything).Return(&backend.SignInResponse{AccessToken: "a.b.c", UserID: 1}, nil)

	_, err := manager.Login(ctx, "jane", "pw")
	require.NoError(t, err)
	manager.Logout(ctx)
	assert.False(t, manager.Current().IsAuthenticated)
	var saved model.AuthSession
	assert.False(t, store.Load(ctx, repository.KeySession, &saved))

	_, err = manager.Login(ctx, "jane", "pw")
	require.NoError(t, err)
	manager.Invalidate(ctx, "token rejected")
	assert.Empty(t, manager.Token())
	assert.False(t, store.Load(ctx, repository.KeySession, &saved))

	// Invalidating a signed-out session is a no-op
	manager.Invalidate(ctx, "again")
	assert.False(t, manager.Current().IsAuthenticated)
}

func TestSessionManager_RestoresEncryptedSession(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	store := repository.NewStore(kv, zap.NewNop())
	enc := newTestEncryptor(t)
	remote := new(MockAuthBackend)
	remote.On("SignIn", ctx, mock.Anything).Return(&backend.SignInResponse{AccessToken: "a.b.c", UserID: 5, Username: "jane"}, nil)

	first := NewSessionManager(ctx, remote, store, enc, zap.NewNop())
	_, err := first.Login(ctx, "jane", "pw")
	require.NoError(t, err)

	raw, ok, err := kv.Get(ctx, repository.KeySession)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), "a.b.c")

	second := NewSessionManager(ctx, remote, store, enc, zap.NewNop())
	assert.True(t, second.Current().IsAuthenticated)
	assert.Equal(t, "a.b.c", second.Token())
	assert.Equal(t, int64(5), second.Current().User.ID)
}

func TestSessionManager_DropsUnreadableSession(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	require.NoError(t, store.Save(ctx, repository.KeySession, model.AuthSession{
		IsAuthenticated: true,
		User:            &model.AuthUser{ID: 1, AccessToken: "enc:v1:garbage"},
	}))

	manager := NewSessionManager(ctx, new(MockAuthBackend), store, newTestEncryptor(t), zap.NewNop())
	assert.False(t, manager.Current().IsAuthenticated)
}

func TestSessionManager_DropsSealedSessionWithoutKey(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	sealed, err := newTestEncryptor(t).Encrypt("a.b.c")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, repository.KeySession, model.AuthSession{
		IsAuthenticated: true,
		User:            &model.AuthUser{ID: 1, AccessToken: sealed},
	}))

	manager := NewSessionManager(ctx, new(MockAuthBackend), store, nil, zap.NewNop())
	assert.False(t, manager.Current().IsAuthenticated)
	assert.Empty(t, manager.Token())
}

func TestSessionManager_OnChange(t *testing.T) {
	ctx := context.Background()
	remote := new(MockAuthBackend)
	manager := NewSessionManager(ctx, remote, newMemoryStore(), nil, zap.NewNop())
	remote.On("SignIn", ctx, mock.Anything).Return(&backend.SignInResponse{AccessToken: "a.b.c", UserID: 1}, nil)
	remote.On("SignUp", ctx, mock.Anything).Return(&backend.SignUpResponse{Success: true, UserID: 2, AccessToken: "d.e.f"}, nil)

	var changes []bool
	manager.OnChange(func(_ context.Context, signedIn bool) {
		// Listeners may read the session without deadlocking
		assert.Equal(t, signedIn, manager.Current().IsAuthenticated)
		changes = append(changes, signedIn)
	})

	_, err := manager.Login(ctx, "jane", "pw")
	require.NoError(t, err)
	manager.Invalidate(ctx, "token rejected")
	manager.Invalidate(ctx, "already signed out")
	_, err = manager.Register(ctx, validSignUp())
	require.NoError(t, err)
	manager.Logout(ctx)

	assert.Equal(t, []bool{true, false, true, false}, changes)
}

func TestSessionManager_IgnoresSessionWithoutToken(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	require.NoError(t, store.Save(ctx, repository.KeySession, model.AuthSession{
		IsAuthenticated: true,
		User:            &model.AuthUser{ID: 1},
	}))

	manager := NewSessionManager(ctx, new(MockAuthBackend), store, nil, zap.NewNop())
	assert.False(t, manager.Current().IsAuthenticated)
}

func TestSessionManager_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	remote := new(MockAuthBackend)
	manager := NewSessionManager(ctx, remote, newMemoryStore(), nil, zap.NewNop())

	name := "janed"
	_, err := manager.UpdateProfile(ctx, ProfileUpdate{Username: &name})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	remote.On("SignIn", ctx, mock.Anything).Return(&backend.SignInResponse{AccessToken: "a.b.c", UserID: 1, Username: "jane"}, nil)
	_, err = manager.Login(ctx, "jane", "pw")
	require.NoError(t, err)

	email := "new@example.com"
	user, err := manager.UpdateProfile(ctx, ProfileUpdate{Username: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "janed", user.Username)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "a.b.c", manager.Token())

	bad := "nope"
	_, err = manager.UpdateProfile(ctx, ProfileUpdate{Email: &bad})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSessionManager_Valid(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "unexpired jwt", token: signedToken(t, now.Add(time.Hour)), want: true},
		{name: "expired jwt", token: signedToken(t, now.Add(-time.Hour)), want: false},
		{name: "jwt without exp", token: signedToken(t, time.Time{}), want: true},
		{name: "opaque three-part token", token: "a.b.c", want: true},
		{name: "not a jwt", token: "opaque-token", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := new(MockAuthBackend)
			remote.On("SignIn", ctx, mock.Anything).Return(&backend.SignInResponse{AccessToken: tt.token, UserID: 1}, nil)
			manager := NewSessionManager(ctx, remote, newMemoryStore(), nil, zap.NewNop())
			_, err := manager.Login(ctx, "jane", "pw")
			require.NoError(t, err)

			assert.Equal(t, tt.want, manager.Valid(now))
		})
	}

	signedOut := NewSessionManager(ctx, new(MockAuthBackend), newMemoryStore(), nil, zap.NewNop())
	assert.False(t, signedOut.Valid(now))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	got, err := TokenExpiry(signedToken(t, exp))
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	_, err = TokenExpiry("no-dots")
	assert.Error(t, err)
}

func TestSessionManager_UnauthorizedFromOtherServicesInvalidates(t *testing.T) {
	ctx := context.Background()
	auth := new(MockAuthBackend)
	auth.On("SignIn", ctx, mock.Anything).Return(&backend.SignInResponse{AccessToken: "a.b.c", UserID: 1}, nil)
	manager := NewSessionManager(ctx, auth, newMemoryStore(), nil, zap.NewNop())
	_, err := manager.Login(ctx, "jane", "pw")
	require.NoError(t, err)

	remote := new(MockMedicationBackend)
	remote.On("ListMedications", ctx).Return(nil, errors.Join(errors.New("HTTP 401"), backend.ErrUnauthorized))
	engine := NewMedicationEngine(ctx, remote, newMemoryStore(), zap.NewNop())
	engine.SetSessionInvalidator(manager)

	assert.Error(t, engine.Refresh(ctx))
	assert.False(t, manager.Current().IsAuthenticated)
}
