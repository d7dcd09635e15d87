package services

import (
	"context"
	"io"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/bots-empire/ytrelay-bot/cfg"
	"github.com/bots-empire/ytrelay-bot/internal/log"
	"github.com/bots-empire/ytrelay-bot/internal/model"
	"github.com/bots-empire/ytrelay-bot/internal/utils"
)

const testChatID int64 = 42

type fakeSender struct {
	mu sync.Mutex

	nextID   int
	messages []tgbotapi.MessageConfig
	edits    []tgbotapi.EditMessageTextConfig
	videos   []tgbotapi.VideoConfig
	requests []tgbotapi.Chattable

	failUpload   bool
	failCachedID bool
	failMessages bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	sent := tgbotapi.Message{MessageID: 100 + f.nextID, Chat: &tgbotapi.Chat{ID: testChatID}}

	switch chattable := c.(type) {
	case tgbotapi.MessageConfig:
		if f.failMessages {
			return tgbotapi.Message{}, errors.New("telegram is down")
		}
		f.messages = append(f.messages, chattable)
		sent.Text = chattable.Text
	case tgbotapi.EditMessageTextConfig:
		if f.failMessages {
			return tgbotapi.Message{}, errors.New("telegram is down")
		}
		f.edits = append(f.edits, chattable)
	case tgbotapi.VideoConfig:
		if _, byID := chattable.File.(tgbotapi.FileID); byID && f.failCachedID {
			return tgbotapi.Message{}, errors.New("Bad Request: wrong file identifier")
		}
		if _, byPath := chattable.File.(tgbotapi.FilePath); byPath && f.failUpload {
			return tgbotapi.Message{}, errors.New("Request Entity Too Large")
		}
		f.videos = append(f.videos, chattable)
		sent.Video = &tgbotapi.Video{FileID: "uploaded-file-id"}
	}

	return sent, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns every text the user saw, new messages and edits in order of kind.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string
	for _, msg := range f.messages {
		texts = append(texts, msg.Text)
	}
	for _, edit := range f.edits {
		texts = append(texts, edit.Text)
	}
	return texts
}

type downloadOutcome struct {
	size int64
	err  error
}

type fakeDownloader struct {
	mu sync.Mutex

	title    string
	probeErr error
	outcomes []downloadOutcome
	tiers    []model.QualityTier
	urls     []string
}

func (f *fakeDownloader) Probe(_ context.Context, _ string) (*model.VideoInfo, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return &model.VideoInfo{Title: f.title, Duration: 60}, nil
}

func (f *fakeDownloader) Download(_ context.Context, url string, tier model.QualityTier, dir string) (*model.DownloadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.tiers)
	f.tiers = append(f.tiers, tier)
	f.urls = append(f.urls, url)

	if call >= len(f.outcomes) {
		return nil, errors.Wrap(model.ErrDownloadFailure, "unexpected call")
	}

	outcome := f.outcomes[call]
	if outcome.err != nil {
		return nil, outcome.err
	}

	return &model.DownloadResult{
		Path: dir + "/video.mp4",
		Size: outcome.size,
	}, nil
}

func (f *fakeDownloader) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.tiers)
}

type fakeCache struct {
	mu      sync.Mutex
	files   map[string]model.CachedVideo
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{files: make(map[string]model.CachedVideo)}
}

func (f *fakeCache) Get(videoID string) (model.CachedVideo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	video, ok := f.files[videoID]
	if !ok {
		return model.CachedVideo{}, model.ErrCacheMiss
	}
	return video, nil
}

func (f *fakeCache) Set(videoID string, video model.CachedVideo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.files[videoID] = video
	return nil
}

func (f *fakeCache) Delete(videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.files, videoID)
	f.deleted = append(f.deleted, videoID)
	return nil
}

type relayFixture struct {
	relay      *Relay
	sender     *fakeSender
	downloader *fakeDownloader
	bot        *model.GlobalBot
}

func newRelayFixture(t *testing.T, cache FileCache, spreader *utils.Spreader, outcomes ...downloadOutcome) *relayFixture {
	t.Helper()

	texts, err := model.DefaultTexts()
	if err != nil {
		t.Fatalf("DefaultTexts() error = %v", err)
	}

	bot := &model.GlobalBot{
		Language: texts,
		BotLink:  "https://t.me/ytrelay_test_bot",
	}

	config := &cfg.Config{
		Download: cfg.DownloadConfig{
			WorkDir:       t.TempDir(),
			Ladder:        model.DefaultQualityLadder(),
			SweepInterval: 1,
		},
		Developers: []int64{7},
	}

	sender := &fakeSender{}
	dl := &fakeDownloader{title: "Never Gonna Give You Up", outcomes: outcomes}
	logger := log.NewLogger(io.Discard, log.LevelWarn)

	relay := NewRelayService(bot, sender, dl, cache, spreader, config, logger)
	bot.MessageHandler = newTestHandlers(relay)

	return &relayFixture{relay: relay, sender: sender, downloader: dl, bot: bot}
}

func newTestHandlers(relay *Relay) *MessagesHandlers {
	handlers := &MessagesHandlers{Handlers: map[string]model.Handler{}}
	handlers.Init(relay)
	return handlers
}

func newTestSituation(text string) *model.Situation {
	msg := &tgbotapi.Message{
		MessageID: 10,
		Text:      text,
		Chat:      &tgbotapi.Chat{ID: testChatID},
	}

	if len(text) > 0 && text[0] == '/' {
		length := len(text)
		for i, r := range text {
			if r == ' ' {
				length = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}

	return model.NewSituation(msg, "req-test")
}

const mb = 1024 * 1024
