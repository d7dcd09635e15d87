package services

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SendNotificationToDeveloper is best effort: failures are only logged.
func (r *Relay) SendNotificationToDeveloper(text string) {
	for _, chatID := range r.config.Developers {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.DisableWebPagePreview = true

		if _, err := r.sender.Send(msg); err != nil {
			r.logger.Warn("failed to notify developer %d: %s", chatID, err.Error())
		}
	}
}
