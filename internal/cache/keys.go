package cache

import "strings"

const (
	GlobalKeyPrefix = "quizsync"
)

// GenerateKey builds a namespaced store key for an object type and
// identifier. Extra params are joined by "_" and appended.
func GenerateKey(objectType, identifier string, params ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, objectType, identifier}, ":")
	if len(params) > 0 {
		return strings.Join([]string{baseKey, strings.Join(params, "_")}, ":")
	}
	return baseKey
}

// SessionStateKey is the store key under which a session's snapshot lives.
func SessionStateKey(sessionID string) string {
	return GenerateKey("session", "state", sessionID)
}
