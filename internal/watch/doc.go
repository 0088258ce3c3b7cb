// Package watch transcribes media files as they appear in a directory.
//
// Create and write events are debounced per file until the file has been
// quiet for the settle period, then files are handed to the workflow one at a
// time. Paths inside ignored directories (normally the subtitle output
// directory, which also receives temporary audio and downloads) are skipped.
package watch
