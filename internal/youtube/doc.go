// Package youtube recognises YouTube links and downloads them as MP4 with
// yt-dlp so the audio can be transcribed.
package youtube
