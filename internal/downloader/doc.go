// Package downloader adapts yt-dlp (via github.com/lrstanley/go-ytdlp) to the
// relay: a metadata probe and a single-tier download into a caller-owned
// directory. Retry policy lives in the relay, not here.
package downloader
