package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roylee0704/gron"
	"github.com/roylee0704/gron/xtime"

	"github.com/bots-empire/ytrelay-bot/cfg"
	"github.com/bots-empire/ytrelay-bot/internal/db"
	"github.com/bots-empire/ytrelay-bot/internal/downloader"
	log2 "github.com/bots-empire/ytrelay-bot/internal/log"
	model2 "github.com/bots-empire/ytrelay-bot/internal/model"
	services2 "github.com/bots-empire/ytrelay-bot/internal/services"
	"github.com/bots-empire/ytrelay-bot/internal/utils"
)

func main() {
	log2.PrintLogo("YT Relay", []string{"FF0000"})

	config, err := cfg.Load()
	if err != nil {
		log2.NewDefaultLogger().Prefix("YT Relay").Fatal("load config: %s", err.Error())
	}

	logger := log2.NewLogger(color.Output, log2.ParseLevel(config.LogLevel)).Prefix("YT Relay")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prepareDownloader(ctx, config, logger)

	globalBot := startBot(config, logger)

	relay := services2.NewRelayService(
		globalBot,
		globalBot.Bot,
		downloader.NewService(logger.Prefix("downloader")),
		startCache(globalBot, config, logger),
		utils.NewSpreader(config.Limits.PerMinute, config.Limits.Burst),
		config,
		logger,
	)
	globalBot.MessageHandler = NewMessagesHandler(relay)

	if config.Metrics.Port != "" {
		go startPrometheusHandler(config.Metrics.Port, logger)
	}

	cron := startCron(relay, config)
	defer cron.Stop()

	relay.SendNotificationToDeveloper("Bot is restarted")
	logger.Ok("All handlers are running")

	// Returns once the running requests have replied and cleaned up.
	relay.ActionsWithUpdates(ctx, globalBot.Chanel)

	globalBot.Bot.StopReceivingUpdates()
	logger.Ok("Bot is stopped")
}

func prepareDownloader(ctx context.Context, config *cfg.Config, logger log2.Logger) {
	if err := os.MkdirAll(config.Download.WorkDir, 0o755); err != nil {
		logger.Fatal("create work dir %s: %s", config.Download.WorkDir, err.Error())
	}

	if !config.Download.InstallYtdlp {
		return
	}

	if err := downloader.Install(ctx); err != nil {
		logger.Fatal("%s", err.Error())
	}
	logger.Ok("yt-dlp is ready")
}

func startBot(config *cfg.Config, logger log2.Logger) *model2.GlobalBot {
	globalBot, err := model2.NewGlobalBot(config.Telegram.BotToken, config.Telegram.Debug)
	if err != nil {
		logger.Fatal("error start bot: %s", err.Error())
	}

	globalBot.StartPolling(config.Telegram.PollingTimeout)
	logger.Ok("Bot %s is running", globalBot.BotLink)

	return globalBot
}

// startCache returns nil when Redis is not configured or unreachable; the
// relay then always downloads.
func startCache(globalBot *model2.GlobalBot, config *cfg.Config, logger log2.Logger) services2.FileCache {
	if config.Redis.Addr == "" {
		return nil
	}

	rdb, err := model2.StartRedis(config.Redis.Addr, config.Redis.Password, config.Redis.DB)
	if err != nil {
		logger.Warn("file cache disabled: %s", err.Error())
		return nil
	}

	globalBot.Rdb = rdb
	logger.Ok("File cache is connected to %s", config.Redis.Addr)
	return db.NewFileCache(rdb, config.Redis.TTL)
}

func startPrometheusHandler(port string, logger log2.Logger) {
	http.Handle("/metrics", promhttp.Handler())
	logger.Ok("Metrics can be read from %s port", port)
	metricErr := http.ListenAndServe(":"+port, nil)
	if metricErr != nil {
		logger.Fatal("metrics stoped by metricErr: %s\n", metricErr.Error())
	}
}

func startCron(relay *services2.Relay, config *cfg.Config) *gron.Cron {
	cron := gron.New()
	cron.AddFunc(gron.Every(config.Download.SweepInterval), relay.SweepStale)
	cron.AddFunc(gron.Every(1*xtime.Day).At("20:59"), relay.SendTodayUpdateMsg)

	go func() {
		time.Sleep(5 * time.Second)

		cron.Start()
	}()

	return cron
}

func NewMessagesHandler(relay *services2.Relay) *services2.MessagesHandlers {
	handle := services2.MessagesHandlers{
		Handlers: map[string]model2.Handler{},
	}

	handle.Init(relay)
	return &handle
}
