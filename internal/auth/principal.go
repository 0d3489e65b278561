// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth gates WebSocket connection attempts: it validates the bearer
// token supplied at connect time and decides whether the principal may join
// the requested channel. Authorization happens once per attempt; a role or
// ownership change after connect does not retroactively disconnect.
package auth

import (
	"strings"

	"github.com/samber/lo"
)

// Role hierarchy levels. Higher roles inherit the access of lower ones.
var roleLevels = map[string]int{
	"super_admin": 100,
	"admin":       80,
	"manager":     60,
	"staff":       40,
	"user":        20,
	"guest":       10,
}

const adminLevel = 80

// Principal is an authenticated user as resolved from a bearer token.
type Principal struct {
	ID    string
	Roles []string
}

// IsAdmin reports whether any of the principal's roles sits at or above the
// admin level in the hierarchy.
func (p Principal) IsAdmin() bool {
	return lo.SomeBy(p.Roles, func(r string) bool {
		return roleLevels[strings.ToLower(r)] >= adminLevel
	})
}

// HasRole reports whether the principal carries the named role.
func (p Principal) HasRole(role string) bool {
	return lo.SomeBy(p.Roles, func(r string) bool {
		return strings.EqualFold(r, role)
	})
}
