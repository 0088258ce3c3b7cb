// Package subtitles renders timed transcription segments into subtitle
// documents.
//
// Two formats are supported: SubRip (.srt) and Advanced SubStation Alpha
// (.ass). The ASS renderer can emit karaoke timing tags so players highlight
// each word as it is spoken. Segments without word timing degrade to plain
// dialogue lines one segment at a time rather than failing the document.
//
// Rendering is pure: RenderSRT and RenderASS build the whole document in
// memory and return typed errors (TimingError, FormatError, WriteError) so
// callers can tell bad input from unsupported requests and filesystem
// failures. WriteFiles dispatches a list of requested formats to files that
// share a base path.
package subtitles
