package services

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (r *Relay) panicCather(update *tgbotapi.Update) {
	msg := recover()
	if msg == nil {
		return
	}

	panicText := fmt.Sprintf("%s\npanic in backend: message = %s\n%s",
		r.bot.BotLink,
		msg,
		string(debug.Stack()),
	)
	r.logger.Warn(panicText)

	r.SendNotificationToDeveloper(panicText)

	data, err := json.MarshalIndent(update, "", "  ")
	if err != nil {
		return
	}

	r.SendNotificationToDeveloper(string(data))
}
