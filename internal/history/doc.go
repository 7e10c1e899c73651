// Package history records terminal command outcomes to SQLite.
//
// Every command the issuer emits ends in exactly one of two states:
// matched (an acknowledgement arrived before the deadline) or timeout
// (the deadline passed first). The repository appends one row per
// outcome to the command_log table, giving an on-disk record that
// survives restarts and is cheap to inspect with the sqlite3 shell.
//
// Recording is best-effort from the caller's point of view: the issuer
// loop treats a failed insert as a logged warning, never as a reason to
// stop correlating.
package history
