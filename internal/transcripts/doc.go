// Package transcripts persists engine transcripts in SQLite so re-running
// subgen on the same media (to change formats or styling) skips the
// expensive speech recognition step.
//
// Entries are keyed by the SHA-256 of the audio fed to the engine together
// with the model, the language hint, and whether word timing was requested.
// The schema carries a single version row; a mismatch asks the user to clear
// the cache instead of migrating.
package transcripts
