package services

import (
	"context"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/bots-empire/ytrelay-bot/internal/model"
)

const tempDirPattern = tempDirPrefix + "*"

// HandleMessage is the default handler for any text that is not a known
// command: it looks for a link and runs the relay for it.
func (r *Relay) HandleMessage(ctx context.Context, s *model.Situation) error {
	s.Link = model.ExtractLink(s.Message.Text)
	if !s.Link.Matched() {
		s.Err = model.ErrUnsupportedLink
		if err := s.SetState(model.StateDone); err != nil {
			return err
		}
		return r.sendText(s, r.bot.LangText("guidance_text"))
	}

	if err := s.SetState(model.StateURLExtracted); err != nil {
		return err
	}

	if !r.spreader.Allow(s.ChatID) {
		model.RateLimitedRequests.Inc()
		s.Err = model.ErrRateLimited
		if err := s.SetState(model.StateRejected); err != nil {
			return err
		}
		return r.sendText(s, r.bot.LangText("rate_limited"))
	}

	r.reportProgress(s, model.StageProcessing, r.bot.LangText("processing"))

	if r.deliverCached(s) {
		return nil
	}

	dir, err := os.MkdirTemp(r.config.Download.WorkDir, tempDirPattern)
	if err != nil {
		s.Err = err
		r.logger.Warn("request %s: create work dir: %s", s.RequestID, err.Error())
		if err := s.SetState(model.StateFailed); err != nil {
			return err
		}
		return r.fail(s, "unexpected_error")
	}
	defer r.removeDir(dir)

	result, err := r.retrieve(ctx, s, dir)
	if err != nil {
		s.Err = err
		r.logger.Warn("request %s: %s: %s", s.RequestID, s.Link.URL, err.Error())

		if errors.Is(err, model.ErrSizeExceeded) {
			if err := s.SetState(model.StateRejected); err != nil {
				return err
			}
			return r.fail(s, "too_large")
		}

		if err := s.SetState(model.StateFailed); err != nil {
			return err
		}
		return r.fail(s, "download_failed")
	}

	return r.deliver(s, result)
}

// retrieve runs the primary tier and, if that fails or does not fit into
// SizeLimit, exactly one attempt at the fallback tier.
func (r *Relay) retrieve(ctx context.Context, s *model.Situation, dir string) (*model.DownloadResult, error) {
	r.reportProgress(s, model.StageFetching, r.bot.LangText("fetching_info"))
	s.Title = r.fetchTitle(ctx, s)

	var (
		lastErr   error
		oversized *model.DownloadResult
	)

	for i, tier := range r.config.Download.Ladder.Tiers() {
		if i > 0 {
			if ctx.Err() != nil {
				return nil, lastErr
			}
			r.reportRetry(s, oversized)
		}

		if err := s.SetState(model.StateDownloading); err != nil {
			return nil, err
		}
		r.reportProgress(s, model.StageDownloading, r.bot.LangText("downloading", s.Title))

		result, err := r.attempt(ctx, s, tier, dir)
		if err != nil {
			lastErr = err
			oversized = nil
			continue
		}

		if result.ExceedsLimit() {
			lastErr = errors.Wrapf(model.ErrSizeExceeded, "tier %s produced %.1fMB", tier.Name, result.SizeMB())
			oversized = result
			r.removeFile(result.Path)
			continue
		}

		return result, nil
	}

	return nil, lastErr
}

func (r *Relay) attempt(ctx context.Context, s *model.Situation, tier model.QualityTier, dir string) (*model.DownloadResult, error) {
	if timeout := r.config.Download.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := r.downloader.Download(ctx, s.Link.URL, tier, dir)
	if err != nil {
		model.DownloadAttempts.WithLabelValues(tier.Name, "error").Inc()
		return nil, errors.Wrapf(err, "tier %s", tier.Name)
	}

	if result.Quality == "" {
		result.Quality = tier.Name
	}
	if result.Title == "" {
		result.Title = s.Title
	}
	s.Quality = result.Quality

	outcome := "ok"
	if result.ExceedsLimit() {
		outcome = "oversized"
	}
	model.DownloadAttempts.WithLabelValues(tier.Name, outcome).Inc()

	r.logger.Info("request %s: tier %s downloaded %.1fMB", s.RequestID, tier.Name, result.SizeMB())
	return result, nil
}

// deliver uploads a result that fits into SizeLimit and rejects anything else.
func (r *Relay) deliver(s *model.Situation, result *model.DownloadResult) error {
	if result.ExceedsLimit() {
		s.Err = model.ErrSizeExceeded
		if err := s.SetState(model.StateRejected); err != nil {
			return err
		}
		return r.fail(s, "too_large")
	}

	if err := s.SetState(model.StateDelivering); err != nil {
		return err
	}
	r.reportProgress(s, model.StageUploading, r.bot.LangText("uploading"))

	video := tgbotapi.NewVideo(s.ChatID, tgbotapi.FilePath(result.Path))
	video.Caption = r.bot.LangText("video_caption", result.Title)
	video.SupportsStreaming = true
	video.ReplyToMessageID = replyTo(s)

	sent, err := r.sender.Send(video)
	if err != nil {
		s.Err = err
		r.moveTo(s, model.StateFailed)
		if err := r.fail(s, "unexpected_error"); err != nil {
			r.logger.Warn("request %s: report upload failure: %s", s.RequestID, err.Error())
		}
		return errors.Wrapf(model.ErrTransportFailure, "send video: %s", err)
	}

	r.remember(s, sent, result.Title)
	r.clearProgress(s)

	return s.SetState(model.StateDone)
}

// deliverCached re-sends a previously uploaded file. A stale file_id is
// dropped and the caller falls back to downloading.
func (r *Relay) deliverCached(s *model.Situation) bool {
	if r.cache == nil {
		return false
	}

	cached, err := r.cache.Get(s.Link.VideoID)
	if err != nil {
		if !errors.Is(err, model.ErrCacheMiss) {
			r.logger.Warn("request %s: cache lookup: %s", s.RequestID, err.Error())
		}
		model.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	model.CacheLookups.WithLabelValues("hit").Inc()

	s.Title = cached.Title
	if s.Title == "" {
		s.Title = r.bot.LangText("default_title")
	}

	video := tgbotapi.NewVideo(s.ChatID, tgbotapi.FileID(cached.FileID))
	video.Caption = r.bot.LangText("video_caption", s.Title)
	video.SupportsStreaming = true
	video.ReplyToMessageID = replyTo(s)

	if _, err := r.sender.Send(video); err != nil {
		r.logger.Warn("request %s: send cached file: %s", s.RequestID, err.Error())
		if err := r.cache.Delete(s.Link.VideoID); err != nil {
			r.logger.Warn("request %s: drop cached file: %s", s.RequestID, err.Error())
		}
		return false
	}

	r.moveTo(s, model.StateDelivering)
	r.moveTo(s, model.StateDone)
	r.clearProgress(s)
	return true
}

func (r *Relay) remember(s *model.Situation, sent tgbotapi.Message, title string) {
	if r.cache == nil || sent.Video == nil {
		return
	}

	video := model.CachedVideo{FileID: sent.Video.FileID, Title: title}
	if err := r.cache.Set(s.Link.VideoID, video); err != nil {
		r.logger.Warn("request %s: cache file id: %s", s.RequestID, err.Error())
	}
}

func (r *Relay) fetchTitle(ctx context.Context, s *model.Situation) string {
	info, err := r.downloader.Probe(ctx, s.Link.URL)
	if err != nil {
		r.logger.Warn("request %s: probe: %s", s.RequestID, err.Error())
		return r.bot.LangText("default_title")
	}
	if info.Title == "" {
		return r.bot.LangText("default_title")
	}
	return info.Title
}

func (r *Relay) reportRetry(s *model.Situation, oversized *model.DownloadResult) {
	if oversized != nil {
		r.reportProgress(s, model.StageRetrying, r.bot.LangText("too_large_retrying", oversized.SizeMB()))
		return
	}
	r.reportProgress(s, model.StageRetrying, r.bot.LangText("failed_retrying"))
}

// reportProgress sends or edits the status message, once per stage. Failures
// never affect the request.
func (r *Relay) reportProgress(s *model.Situation, stage model.Stage, text string) {
	if !s.MarkReported(stage) {
		return
	}

	if s.StatusMessageID == 0 {
		msg := tgbotapi.NewMessage(s.ChatID, text)
		msg.ReplyToMessageID = replyTo(s)

		sent, err := r.sender.Send(msg)
		if err != nil {
			r.logger.Warn("request %s: report %s: %s", s.RequestID, stage, err.Error())
			return
		}
		s.StatusMessageID = sent.MessageID
		return
	}

	edit := tgbotapi.NewEditMessageText(s.ChatID, s.StatusMessageID, text)
	if _, err := r.sender.Send(edit); err != nil {
		r.logger.Warn("request %s: report %s: %s", s.RequestID, stage, err.Error())
	}
}

func (r *Relay) clearProgress(s *model.Situation) {
	if s.StatusMessageID == 0 {
		return
	}

	if _, err := r.sender.Request(tgbotapi.NewDeleteMessage(s.ChatID, s.StatusMessageID)); err != nil {
		r.logger.Warn("request %s: delete status message: %s", s.RequestID, err.Error())
	}
	s.StatusMessageID = 0
}

// fail shows the failure text in place of the status message when possible.
func (r *Relay) fail(s *model.Situation, key string) error {
	text := r.bot.LangText(key)

	if s.StatusMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(s.ChatID, s.StatusMessageID, text)
		if _, err := r.sender.Send(edit); err == nil {
			return nil
		}
	}

	return r.sendText(s, text)
}

func (r *Relay) sendText(s *model.Situation, text string) error {
	msg := tgbotapi.NewMessage(s.ChatID, text)
	msg.ReplyToMessageID = replyTo(s)
	msg.DisableWebPagePreview = true

	if _, err := r.sender.Send(msg); err != nil {
		return errors.Wrapf(model.ErrTransportFailure, "send message to %d: %s", s.ChatID, err)
	}
	return nil
}

func (r *Relay) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("remove %s: %s", path, err.Error())
	}
}

func (r *Relay) removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		r.logger.Warn("remove %s: %s", dir, err.Error())
	}
}

// moveTo is for paths that already settled the request outcome; a refused
// transition is only logged.
func (r *Relay) moveTo(s *model.Situation, next model.RequestState) {
	if err := s.SetState(next); err != nil {
		r.logger.Warn("request %s: %s", s.RequestID, err.Error())
	}
}

func replyTo(s *model.Situation) int {
	if s.Message == nil {
		return 0
	}
	return s.Message.MessageID
}
