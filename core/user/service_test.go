package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studyplanner/core"
	appfs "github.com/trezcool/studyplanner/fs"
)

type repoMock struct {
	mu    sync.Mutex
	seq   int
	users map[string]User
}

func newRepoMock() *repoMock { return &repoMock{users: make(map[string]User)} }

func (r *repoMock) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
outer:
	for _, usr := range r.users {
		for _, id := range excludedIDs {
			if usr.ID == id {
				continue outer
			}
		}
		if usr.Email == email {
			return ErrEmailExists
		}
	}
	return nil
}

func (r *repoMock) CreateUser(_ context.Context, usr User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	usr.ID = strings.Repeat("0", 7) + string(rune('0'+r.seq))
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *repoMock) GetUser(_ context.Context, filter GetFilter) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, usr := range r.users {
		if (filter.ID != "" && usr.ID == filter.ID) || (filter.ID == "" && usr.Email == filter.Email) {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *repoMock) UpdateUser(_ context.Context, usr User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[usr.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *repoMock) DeleteUsersByID(_ context.Context, ids ...string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, id := range ids {
		if _, ok := r.users[id]; ok {
			delete(r.users, id)
			n++
		}
	}
	return n, nil
}

type mailMock struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailMock) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	m.sent = append(m.sent, messages...)
	m.mu.Unlock()
}

type fixture struct {
	svc      *Service
	repo     *repoMock
	mail     *mailMock
	validate *validator.Validate
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	pwds, err := LoadCommonPasswords(appfs.FS)
	require.NoError(t, err)

	validate, translator := core.NewValidator()
	InitValidators(validate, translator, pwds)

	repo, mail := newRepoMock(), new(mailMock)
	return fixture{
		svc:      NewService(repo, mail, core.NewTestConfig()),
		repo:     repo,
		mail:     mail,
		validate: validate,
	}
}

func (f fixture) register(t *testing.T, email, pwd string) User {
	t.Helper()
	nu := NewUser{Name: "Devi", Email: email, Password: pwd, PasswordConfirm: pwd}
	require.NoError(t, nu.Validate(context.Background(), f.validate, f.svc))
	usr, err := f.svc.Register(context.Background(), nu)
	require.NoError(t, err)
	return usr
}

func failedTags(t *testing.T, err error) []string {
	t.Helper()
	var vErrs validator.ValidationErrors
	require.True(t, errors.As(err, &vErrs), "want validator.ValidationErrors, got %T (%v)", err, err)
	tags := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		tags = append(tags, fe.Field()+":"+fe.Tag())
	}
	return tags
}

func TestNewUser_Validate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "taken@test.test", "Str0ng-Pass")

	tests := []struct {
		name     string
		nu       NewUser
		wantTags []string
	}{
		{name: "missing fields", nu: NewUser{}, wantTags: []string{"email:required", "password:required", "password_confirm:required"}},
		{name: "bad email", nu: NewUser{Email: "nope", Password: "Str0ng-Pass", PasswordConfirm: "Str0ng-Pass"}, wantTags: []string{"email:email"}},
		{name: "confirmation mismatch", nu: NewUser{Email: "a@test.test", Password: "Str0ng-Pass", PasswordConfirm: "Str0ng-Pas"}, wantTags: []string{"password_confirm:eqfield"}},
		{name: "too short", nu: NewUser{Email: "a@test.test", Password: "Sh0rt!", PasswordConfirm: "Sh0rt!"}, wantTags: []string{"password:pwdminlen"}},
		{name: "whitespace", nu: NewUser{Email: "a@test.test", Password: "has space 1", PasswordConfirm: "has space 1"}, wantTags: []string{"password:pwdnospace"}},
		{name: "all numeric", nu: NewUser{Email: "a@test.test", Password: "1029384756", PasswordConfirm: "1029384756"}, wantTags: []string{"password:pwdnotallnum"}},
		{name: "like the email", nu: NewUser{Email: "devika@test.test", Password: "devika@test", PasswordConfirm: "devika@test"}, wantTags: []string{"password:pwdtoosim"}},
		{name: "common", nu: NewUser{Email: "a@test.test", Password: "Password123", PasswordConfirm: "Password123"}, wantTags: []string{"password:pwdnocommon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(context.Background(), f.validate, f.svc)
			assert.ElementsMatch(t, tt.wantTags, failedTags(t, err))
		})
	}

	t.Run("email taken", func(t *testing.T) {
		nu := NewUser{Email: "  TAKEN@test.test ", Password: "An0ther-Pass", PasswordConfirm: "An0ther-Pass"}
		err := nu.Validate(context.Background(), f.validate, f.svc)
		require.ErrorIs(t, err, ErrEmailExists)

		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "email", vErr.Fields[0].Field)
	})
}

func TestService_RegisterAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usr := f.register(t, "devi@test.test", "Str0ng-Pass")

	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.NotEqual(t, []byte("Str0ng-Pass"), usr.PasswordHash)
	assert.True(t, usr.LastLogin.IsZero())

	_, err := f.svc.Authenticate(ctx, "devi@test.test", "wrong-pass")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, err = f.svc.Authenticate(ctx, "ghost@test.test", "Str0ng-Pass")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	logged, err := f.svc.Authenticate(ctx, " DEVI@test.test", "Str0ng-Pass")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, logged.ID)
	assert.WithinDuration(t, time.Now(), logged.LastLogin, time.Minute)

	_, err = f.svc.SetActive(ctx, usr.Email, false)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "devi@test.test", "Str0ng-Pass")
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestService_PasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usr := f.register(t, "devi@test.test", "Str0ng-Pass")

	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "ghost@test.test"), ErrNotFound)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, usr.Email))
	require.Len(t, f.mail.sent, 1)

	msg := f.mail.sent[0]
	assert.Equal(t, "password_reset", msg.TemplateName)
	assert.Equal(t, usr.Email, msg.To[0].Address)
	data := msg.TemplateData.(map[string]string)

	reset := ResetUserPassword{UID: data["UID"], Token: data["Token"], Password: "N3w-Secret", PasswordConfirm: "N3w-Secret"}
	require.NoError(t, reset.Validate(f.validate))

	bad := reset
	bad.Token = "HE4TS-sigsig"
	var vErr *core.ValidationError
	assert.True(t, errors.As(f.svc.ResetPassword(ctx, bad), &vErr))

	require.NoError(t, f.svc.ResetPassword(ctx, reset))
	_, err := f.svc.Authenticate(ctx, usr.Email, "N3w-Secret")
	require.NoError(t, err)

	// the link is single use
	assert.Error(t, f.svc.ResetPassword(ctx, reset))
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usr := f.register(t, "devi@test.test", "Str0ng-Pass")

	require.NoError(t, f.svc.Delete(ctx, usr.ID))
	_, err := f.svc.GetByID(ctx, usr.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
