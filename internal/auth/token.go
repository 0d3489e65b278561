// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// TokenValidator verifies HS256 bearer tokens issued by the platform's auth
// service. The user id travels in the standard subject claim; role names in
// a "roles" claim.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator creates a validator for the shared signing secret.
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// Validate parses and verifies a token and resolves the principal. Any
// parse, signature, or expiry failure surfaces as ErrInvalidCredential.
func (v *TokenValidator) Validate(token string) (Principal, error) {
	parsed, err := jwt.Parse([]byte(token), jwt.WithKey(jwa.HS256(), v.secret), jwt.WithValidate(true))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	sub, ok := parsed.Subject()
	if !ok || sub == "" {
		return Principal{}, fmt.Errorf("%w: missing subject claim", ErrInvalidCredential)
	}

	// Roles are optional; a token without them is a plain user. JSON claims
	// decode as []interface{}, so the role names are converted one by one.
	var roles []string
	var rawRoles []interface{}
	if err := parsed.Get("roles", &rawRoles); err == nil {
		roles = make([]string, 0, len(rawRoles))
		for _, r := range rawRoles {
			name, ok := r.(string)
			if !ok {
				return Principal{}, fmt.Errorf("%w: malformed roles claim", ErrInvalidCredential)
			}
			roles = append(roles, name)
		}
	}

	return Principal{ID: sub, Roles: roles}, nil
}
