// Package textutil provides filename sanitization for media downloaded or
// supplied by the user, so subtitle and temporary file paths stay ASCII and
// free of shell and filesystem hazards.
package textutil
