// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

// mintToken signs an HS256 token the way the platform's auth service does.
func mintToken(t *testing.T, secret string, mutate func(jwt.Token)) string {
	t.Helper()

	tok := jwt.New()
	require.NoError(t, tok.Set(jwt.SubjectKey, "user-1"))
	require.NoError(t, tok.Set(jwt.IssuedAtKey, time.Now()))
	require.NoError(t, tok.Set(jwt.ExpirationKey, time.Now().Add(time.Hour)))
	if mutate != nil {
		mutate(tok)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), []byte(secret)))
	require.NoError(t, err)
	return string(signed)
}

func TestTokenValidator_Valid(t *testing.T) {
	v := NewTokenValidator(testSecret)

	p, err := v.Validate(mintToken(t, testSecret, nil))
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.ID)
	assert.Empty(t, p.Roles)
}

func TestTokenValidator_RolesClaim(t *testing.T) {
	v := NewTokenValidator(testSecret)

	token := mintToken(t, testSecret, func(tok jwt.Token) {
		tok.Set("roles", []string{"admin", "user"})
	})

	p, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "user"}, p.Roles)
	assert.True(t, p.IsAdmin())
}

func TestTokenValidator_MalformedRolesClaim(t *testing.T) {
	v := NewTokenValidator(testSecret)

	token := mintToken(t, testSecret, func(tok jwt.Token) {
		tok.Set("roles", []interface{}{"admin", 42})
	})

	_, err := v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenValidator_WrongSecret(t *testing.T) {
	v := NewTokenValidator(testSecret)

	_, err := v.Validate(mintToken(t, "some-other-secret", nil))
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenValidator_Expired(t *testing.T) {
	v := NewTokenValidator(testSecret)

	token := mintToken(t, testSecret, func(tok jwt.Token) {
		tok.Set(jwt.ExpirationKey, time.Now().Add(-time.Minute))
	})

	_, err := v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenValidator_MissingSubject(t *testing.T) {
	v := NewTokenValidator(testSecret)

	tok := jwt.New()
	require.NoError(t, tok.Set(jwt.ExpirationKey, time.Now().Add(time.Hour)))
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), []byte(testSecret)))
	require.NoError(t, err)

	_, err = v.Validate(string(signed))
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenValidator_Garbage(t *testing.T) {
	v := NewTokenValidator(testSecret)

	_, err := v.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
