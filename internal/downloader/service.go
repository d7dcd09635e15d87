package downloader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/pkg/errors"

	"github.com/bots-empire/ytrelay-bot/internal/log"
	"github.com/bots-empire/ytrelay-bot/internal/model"
)

const (
	outputTemplate    = "%(title)s.%(ext)s"
	progressFrequency = 2 * time.Second
)

// Service runs yt-dlp for one URL at a time; it holds no per-request state.
type Service struct {
	logger log.Logger
}

func NewService(logger log.Logger) *Service {
	return &Service{logger: logger}
}

// Install makes sure a yt-dlp binary is available, downloading it if needed.
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return errors.Wrap(err, "install yt-dlp")
	}
	return nil
}

// Probe fetches metadata without downloading.
func (s *Service) Probe(ctx context.Context, url string) (*model.VideoInfo, error) {
	res, err := ytdlp.New().
		NoPlaylist().
		SkipDownload().
		PrintJSON().
		Run(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(model.ErrDownloadFailure, "probe %s: %s", url, err)
	}

	info, err := res.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return nil, errors.Wrapf(model.ErrDownloadFailure, "probe %s: no extracted info", url)
	}

	videoInfo := &model.VideoInfo{}
	if info[0].Title != nil {
		videoInfo.Title = *info[0].Title
	}
	if info[0].Duration != nil {
		videoInfo.Duration = int(*info[0].Duration)
	}
	return videoInfo, nil
}

// Download fetches url with the tier's format selector into dir.
func (s *Service) Download(ctx context.Context, url string, tier model.QualityTier, dir string) (*model.DownloadResult, error) {
	dl := ytdlp.New().
		NoPlaylist().
		RestrictFilenames().
		ForceOverwrites().
		PrintJSON().
		Format(tier.Format).
		Output(filepath.Join(dir, outputTemplate))

	dl.ProgressFunc(progressFrequency, func(update ytdlp.ProgressUpdate) {
		if update.TotalBytes > 0 {
			s.logger.Debug("%s [%s]: %d/%d bytes", url, tier.Name, update.DownloadedBytes, update.TotalBytes)
		}
	})

	res, err := dl.Run(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(model.ErrDownloadFailure, "run yt-dlp with tier %s: %s", tier.Name, err)
	}

	result := &model.DownloadResult{Quality: tier.Name}

	if info, err := res.GetExtractedInfo(); err == nil && len(info) > 0 {
		if info[0].Filename != nil {
			result.Path = *info[0].Filename
		}
		if info[0].Title != nil {
			result.Title = *info[0].Title
		}
	}

	if result.Path, result.Size, err = resolveOutput(result.Path, dir); err != nil {
		return nil, err
	}

	return result, nil
}

// resolveOutput stats the file yt-dlp reported. Merges and post-processing
// may rename it, so a missing file falls back to the newest one in dir.
func resolveOutput(reported, dir string) (string, int64, error) {
	if reported != "" {
		stat, err := os.Stat(reported)
		if err == nil {
			return reported, stat.Size(), nil
		}
	}

	path, err := newestFile(dir)
	if err != nil {
		return "", 0, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return "", 0, errors.Wrapf(model.ErrDownloadFailure, "stat downloaded file: %s", err)
	}
	return path, stat.Size(), nil
}

// newestFile finds the output when yt-dlp printed no filename.
func newestFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(model.ErrDownloadFailure, "read download dir: %s", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}

	var files []candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) == ".part" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{path: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}

	if len(files) == 0 {
		return "", errors.Wrap(model.ErrDownloadFailure, "no file produced")
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	return files[0].path, nil
}
