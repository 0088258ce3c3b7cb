// Package staging removes scratch files that interrupted runs leave behind:
// extracted "<name>_temp.wav" audio in the output directory and WhisperX work
// directories under the system temp directory.
package staging
