package model

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

type GlobalBot struct {
	Bot    *tgbotapi.BotAPI
	Chanel tgbotapi.UpdatesChannel
	Rdb    *redis.Client

	MessageHandler GlobalHandlers

	Language map[string]string

	BotToken string
	BotLink  string
}

type GlobalHandlers interface {
	GetHandler(command string) Handler
}

type Handler func(ctx context.Context, situation *Situation) error

// NewGlobalBot connects to the Bot API and loads the message catalogue.
func NewGlobalBot(token string, debug bool) (*GlobalBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(ErrTransportFailure, err.Error())
	}
	bot.Debug = debug

	b := &GlobalBot{
		Bot:      bot,
		BotToken: token,
		BotLink:  "https://t.me/" + bot.Self.UserName,
	}

	if err := b.ParseLangMap(); err != nil {
		return nil, errors.Wrap(err, "parse lang map")
	}

	return b, nil
}

func (b *GlobalBot) StartPolling(timeout int) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout

	b.Chanel = b.Bot.GetUpdatesChan(u)
}

func (b *GlobalBot) ParseLangMap() error {
	texts, err := DefaultTexts()
	if err != nil {
		return err
	}

	b.Language = texts
	return nil
}

func StartRedis(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping().Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", addr)
	}
	return rdb, nil
}

func (b *GlobalBot) LangText(key string, values ...interface{}) string {
	formatText := b.Language[key]
	if len(values) == 0 {
		return formatText
	}
	return fmt.Sprintf(formatText, values...)
}
