// Package auth provides the authentication, session, and authorization core
// for a collaborative translation platform: password logins with per-email
// throttling, server-side sessions with device management, JWT access and
// refresh tokens, and a pure role/permission evaluator.
//
// Identity resolution:
//   - Sessions are opaque tokens backed by database rows. IdentityResolver
//     rebuilds an AuthenticatedUser per request from one read, including the
//     optional system role and every project membership. Expired rows never
//     authenticate and are deleted lazily on touch.
//
// Authorization:
//   - Guards in rbac.go are pure functions over AuthenticatedUser. Project
//     roles form a ladder (VIEWER < EDITOR < REVIEWER < ADMIN); the system
//     ADMIN role short-circuits every check. Permissions resolve through a
//     closed minimum-role table and deny by default.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther to describe
//     login, logout, refresh, and password change events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
package auth
