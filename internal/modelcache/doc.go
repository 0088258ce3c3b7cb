// Package modelcache inspects and prunes the directory where the speech
// engine stores downloaded model weights.
//
// Both the flat layout ("<cache>/medium/model.bin") and the Hugging Face hub
// layout ("<cache>/models--Systran--faster-whisper-medium/snapshots/...") are
// recognised. Mutations hold an exclusive lock on "<cache>/.lock"; a running
// transcription holds the same lock shared so a model cannot disappear under it.
package modelcache
