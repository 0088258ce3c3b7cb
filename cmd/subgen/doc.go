// Command subgen generates subtitle files from local media or YouTube URLs.
//
// Audio is transcribed with WhisperX (launched through uvx by default) and
// rendered as SRT and/or ASS, optionally with karaoke word highlighting.
// Subcommands cover single runs (transcribe, render, download), a directory
// watcher, model and transcript cache management, and environment checks
// (doctor).
//
// Configuration is loaded from --config, ./subgen.toml, or
// ~/.config/subgen/config.toml. Run `subgen config init` to create a sample.
package main
