// Copyright (C) 2026 Ordercast
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to config.yaml log.levels
// These ensure consistent logger names across the codebase

// GetAPILogger returns a logger for HTTP/WebSocket API operations
func GetAPILogger() zerolog.Logger {
	return GetLogger("api")
}

// GetRealtimeLogger returns a logger for the broadcast layer
func GetRealtimeLogger() zerolog.Logger {
	return GetLogger("realtime")
}

// GetBusLogger returns a logger for the pub/sub bus bridge
func GetBusLogger() zerolog.Logger {
	return GetLogger("bus")
}

// GetAuthLogger returns a logger for authentication and authorization
func GetAuthLogger() zerolog.Logger {
	return GetLogger("auth")
}
