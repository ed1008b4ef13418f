// Package commands implements the named operations the desktop shell
// invokes: session and record persistence, analytics queries, settings and
// the file helpers used by the review screen.
//
// Arguments arrive as JSON objects with camelCase keys. Service validates
// them before touching the store, so a *ValidationError means the request
// itself was wrong. Successful mutations are announced to a Publisher.
package commands
