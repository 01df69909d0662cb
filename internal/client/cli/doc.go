// Package cli implements authctl, the command-line client for authkeeper.
//
// Commands: register, login, me, user, refresh, logout and status. The
// session obtained by login is kept in a local SQLite database (see
// client.InitDatabase) so later invocations stay authenticated; an expired
// access token is refreshed transparently.
package cli
