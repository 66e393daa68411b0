// Package tenant maps organizations to their isolated per-tenant databases.
package tenant

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-z0-9_]+`)
)

// Sanitize derives the canonical name used as a database-name suffix from an
// organization display name: lowercase, whitespace runs collapsed to a single
// underscore, everything outside [a-z0-9_] stripped. Idempotent; may return
// an empty string, which callers must reject as invalid input.
//
// The live service, the migrator and the janitor all share this one
// implementation; the canonical name is a contract, not a convention.
func Sanitize(name string) string {
	name = strings.ToLower(name)
	name = whitespaceRun.ReplaceAllString(name, "_")
	return disallowed.ReplaceAllString(name, "")
}
