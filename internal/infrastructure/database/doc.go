// Package database manages the SQLite connection backing the issuer's
// command-outcome history. It wraps database/sql with WAL configuration,
// embedded-migration support, and health checks.
//
// The history store is entirely optional; correlation does not depend on
// it, and the responder process never opens a database at all.
package database
