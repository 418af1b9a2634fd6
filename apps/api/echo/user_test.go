package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studyplanner/core/plan"
	"github.com/trezcool/studyplanner/core/user"
	"github.com/trezcool/studyplanner/testutil"
)

func Test_userApi_register(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.usrRepo, "Taken", "taken@test.test", "Str0ng-Pass", true)

	newUser := func(email, pwd, confirm string) []byte {
		return marshalObj(t, user.NewUser{Name: "Devi", Email: email, Password: pwd, PasswordConfirm: confirm})
	}

	post, path := http.MethodPost, "/v1/users/register"
	runHTTPTests(t, app, []httpTest{
		{name: "malformed body", method: post, path: path, body: []byte(`not json`), wantCode: http.StatusBadRequest},
		{
			name: "required fields", method: post, path: path, body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"email":            "this field is required",
				"password":         "this field is required",
				"password_confirm": "this field is required",
			}),
		},
		{
			name: "email taken", method: post, path: path, body: newUser(" Taken@test.test", "An0ther-Pass", "An0ther-Pass"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{name: "weak password", method: post, path: path, body: newUser("devi@test.test", "12345678", "12345678"), wantCode: http.StatusBadRequest},
	})

	t.Run("registered", func(t *testing.T) {
		req, rec := newRequest(post, path, newUser("devi@test.test", "Str0ng-Pass", "Str0ng-Pass"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, "devi@test.test", res.User.Email)
		assert.Equal(t, plan.DefaultSubjects(), res.Session.Plan.Subjects)
		assert.False(t, res.Session.Unsaved)

		// the default plan is stored right away
		stored, err := app.planRepo.GetPlan(context.Background(), res.User.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Subjects, 4)
	})
}

func Test_userApi_login(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.usrRepo, "Devi", "devi@test.test", "Str0ng-Pass", true)
	testutil.CreateUser(t, app.usrRepo, "Gone", "gone@test.test", "Str0ng-Pass", false)

	login := func(email, pwd string) []byte { return marshalObj(t, LoginRequest{Email: email, Password: pwd}) }
	errAuthFailed := marshalObj(t, httpErr{Error: "authentication failed"})

	runHTTPTests(t, app, []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/v1/users/login", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/login", body: login("ghost@test.test", "Str0ng-Pass"),
			wantCode: http.StatusBadRequest, wantData: errAuthFailed,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login", body: login("devi@test.test", "nope"),
			wantCode: http.StatusBadRequest, wantData: errAuthFailed,
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/login", body: login("gone@test.test", "Str0ng-Pass"),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "logged in", method: http.MethodPost, path: "/v1/users/login", body: login(" DEVI@test.test ", "Str0ng-Pass")},
	})
}

func Test_userApi_logout(t *testing.T) {
	app := newTestApp(t)
	_, token := app.login(t, "devi@test.test")
	_, other := app.login(t, "other@test.test")

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/users/logout", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "logged out", method: http.MethodPost, path: "/v1/users/logout", token: token, wantCode: http.StatusNoContent},
		{name: "session ended", method: http.MethodGet, path: "/v1/plan", token: token, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errEnded)},
		{name: "other sessions live on", method: http.MethodGet, path: "/v1/plan", token: other},
	})
}

func Test_userApi_me(t *testing.T) {
	app := newTestApp(t)
	usr, token := app.login(t, "devi@test.test")

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, usr.ID, got.ID)
	assert.False(t, got.LastLogin.IsZero())
	assert.NotContains(t, rec.Body.String(), "password")

	// deleted users lose their sessions
	_, err := app.usrRepo.DeleteUsersByID(context.Background(), usr.ID)
	require.NoError(t, err)
	runHTTPTests(t, app, []httpTest{
		{name: "deleted", path: "/v1/users/me", token: token, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errEnded)},
		{name: "session closed", path: "/v1/plan", token: token, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errEnded)},
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := newTestApp(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Devi", "devi@test.test", "Str0ng-Pass", true)
	naughty := testutil.CreateUser(t, app.usrRepo, "Naughty", "naughty@test.test", "Str0ng-Pass", false)

	oldIat := time.Now().Add(-2 * app.Conf.Server.JWTRefreshExpirationDelta).Unix()

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/token-refresh", token: app.tokenFor(t, naughty, "s-naughty"),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "refresh expired", method: http.MethodPost, path: "/v1/users/token-refresh", token: app.tokenFor(t, usr, "s-old", oldIat),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "refreshed", method: http.MethodPost, path: "/v1/users/token-refresh", token: app.tokenFor(t, usr, "s-1")},
	})

	t.Run("same session", func(t *testing.T) {
		token := app.tokenFor(t, usr, "s-2")
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

		app.PlanSvc.Close("s-2")
		req, rec = newAuthRequest(http.MethodGet, "/v1/plan", res.Token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app := newTestApp(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Devi", "devi@test.test", "Str0ng-Pass", true)

	success := marshalObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
	runHTTPTests(t, app, []httpTest{
		{
			name: "invalid email", method: http.MethodPost, path: "/v1/users/password-reset", body: []byte(`{"email": "lol"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/password-reset",
			body: marshalObj(t, PasswordResetRequest{Email: "ghost@test.test"}), wantData: success,
		},
		{
			name: "known email", method: http.MethodPost, path: "/v1/users/password-reset",
			body: marshalObj(t, PasswordResetRequest{Email: usr.Email}), wantData: success,
		},
	})

	sent := app.mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)
	data := sent[0].TemplateData.(map[string]string)
	assert.Contains(t, sent[0].TextContent, "/password-reset/"+data["UID"]+"/"+data["Token"])

	confirm := func(uid, token string) []byte {
		return marshalObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: "N3w-Secret", PasswordConfirm: "N3w-Secret"})
	}
	runHTTPTests(t, app, []httpTest{
		{
			name: "invalid link", method: http.MethodPost, path: "/v1/users/password-reset-confirm", body: confirm(data["UID"], "HE4TS-sigsig"),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "invalid password reset link"}),
		},
		{
			name: "reset", method: http.MethodPost, path: "/v1/users/password-reset-confirm", body: confirm(data["UID"], data["Token"]),
			wantData: marshalObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "login with new password", method: http.MethodPost, path: "/v1/users/login",
			body: marshalObj(t, LoginRequest{Email: usr.Email, Password: "N3w-Secret"}),
		},
	})
}
