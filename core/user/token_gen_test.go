package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeVerifyToken(t *testing.T) {
	gen := tokenGenerator{
		secret:  []byte("secret"),
		timeout: 3 * 24 * time.Hour,
		nowFunc: time.Now,
	}

	now := time.Now()
	usr := User{
		ID:        "0b7f1f44-5b0e-4a8e-9f63-3e7e4f8f2c11",
		Name:      "T",
		Email:     "t@test.test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	require.NoError(t, usr.SetPassword("pwd"))

	validToken, err := gen.makeToken(usr)
	require.NoError(t, err)

	// generate an expired token
	dayLate := gen.timeout + (24 * time.Hour)
	late := gen
	late.nowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := late.makeToken(usr)
	require.NoError(t, err)

	// any login invalidates previous tokens
	relogged := usr
	relogged.LastLogin = now.Add(time.Minute)

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "NRXWY-sigsig", wantErr: errInvalidToken},
		{name: "invalid token", usr: usr, token: "HE4TS-sigsig", wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "stale token", usr: relogged, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, gen.verifyToken(tt.usr, tt.token))
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "0b7f1f44-5b0e-4a8e-9f63-3e7e4f8f2c11"}
	id, err := decodeUID(encodeUID(usr))
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	_, err = decodeUID("not base64!")
	assert.Error(t, err)
}
