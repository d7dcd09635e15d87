package services

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bots-empire/ytrelay-bot/cfg"
	"github.com/bots-empire/ytrelay-bot/internal/log"
	"github.com/bots-empire/ytrelay-bot/internal/model"
	"github.com/bots-empire/ytrelay-bot/internal/utils"
)

// Sender is the part of *tgbotapi.BotAPI the relay talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Downloader interface {
	Probe(ctx context.Context, url string) (*model.VideoInfo, error)
	Download(ctx context.Context, url string, tier model.QualityTier, dir string) (*model.DownloadResult, error)
}

type FileCache interface {
	Get(videoID string) (model.CachedVideo, error)
	Set(videoID string, video model.CachedVideo) error
	Delete(videoID string) error
}

type Relay struct {
	bot        *model.GlobalBot
	sender     Sender
	downloader Downloader
	cache      FileCache
	spreader   *utils.Spreader
	config     *cfg.Config
	logger     log.Logger

	stats    updateStatistic
	inFlight sync.WaitGroup
}

type updateStatistic struct {
	mu      sync.Mutex
	counter int
}

// NewRelayService wires the relay. cache may be nil when Redis is not configured.
func NewRelayService(
	bot *model.GlobalBot,
	sender Sender,
	downloader Downloader,
	cache FileCache,
	spreader *utils.Spreader,
	config *cfg.Config,
	logger log.Logger,
) *Relay {
	if spreader == nil {
		spreader = utils.NewSpreader(0, 0)
	}

	return &Relay{
		bot:        bot,
		sender:     sender,
		downloader: downloader,
		cache:      cache,
		spreader:   spreader,
		config:     config,
		logger:     logger,
	}
}
