// Package client contains client-side building blocks for authkeeper.
//
// # Overview
//
// The package provides:
//  1. The API contract (see the Client interface) for the authkeeper REST
//     service: Ping, Register, Login, Refresh, Logout, Me and User.
//  2. An HTTP implementation (see HTTPClient). It sends the access token as a
//     Bearer header and echoes the CSRF token as cookie and header on
//     state-changing calls.
//  3. Bootstrap helpers for the local session database (InitDatabase,
//     RunMigrations): SQLite with embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses become *APIError, which unwraps to a sentinel matching
// its status (ErrUnauthorized, ErrConflict, ErrValidation, ...). Transport
// failures wrap ErrUnavailable.
package client
