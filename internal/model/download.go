package model

// SizeLimit is the upload ceiling of the Bot API for bots (50 MB).
const SizeLimit int64 = 50 * 1024 * 1024

const bytesInMB = 1024 * 1024

type DownloadResult struct {
	Path    string
	Size    int64
	Quality string
	Title   string
}

func (r *DownloadResult) ExceedsLimit() bool {
	return r.Size > SizeLimit
}

func (r *DownloadResult) SizeMB() float64 {
	return float64(r.Size) / bytesInMB
}

// VideoInfo is the metadata fetched before the download starts.
type VideoInfo struct {
	Title    string
	Duration int
}

// CachedVideo is what the file cache remembers about a delivered video.
type CachedVideo struct {
	FileID string
	Title  string
}
