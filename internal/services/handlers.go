package services

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bots-empire/ytrelay-bot/internal/model"
)

const (
	updatePrintHeader = "update number: %d    // ytrelay-update: chat %d: %s"
)

type MessagesHandlers struct {
	Handlers map[string]model.Handler
}

func (h *MessagesHandlers) GetHandler(command string) model.Handler {
	return h.Handlers[command]
}

func (h *MessagesHandlers) Init(relay *Relay) {
	h.OnCommand("/start", relay.StartCommand)
	h.OnCommand("/help", relay.HelpCommand)
}

func (h *MessagesHandlers) OnCommand(command string, handler model.Handler) {
	h.Handlers[command] = handler
}

// ActionsWithUpdates dispatches every update on its own goroutine until ctx
// is cancelled or the channel closes, then waits for the running handlers.
func (r *Relay) ActionsWithUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer r.inFlight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			localUpdate := update
			r.inFlight.Add(1)
			go func() {
				defer r.inFlight.Done()
				r.checkUpdate(ctx, &localUpdate)
			}()
		}
	}
}

func (r *Relay) checkUpdate(ctx context.Context, update *tgbotapi.Update) {
	defer r.panicCather(update)

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	if update.Message.PinnedMessage != nil {
		return
	}

	r.printNewUpdate(update)

	situation := model.NewSituation(update.Message, uuid.NewString())
	r.checkMessage(ctx, situation)
}

func (r *Relay) printNewUpdate(update *tgbotapi.Update) {
	r.stats.mu.Lock()
	r.stats.counter++
	counter := r.stats.counter
	r.stats.mu.Unlock()

	model.HandleUpdates.WithLabelValues(r.bot.BotLink).Inc()

	r.logger.Info(updatePrintHeader, counter, update.Message.Chat.ID, update.Message.Text)
}

func (r *Relay) checkMessage(ctx context.Context, situation *model.Situation) {
	var handler model.Handler
	if r.bot.MessageHandler != nil {
		handler = r.bot.MessageHandler.GetHandler(situation.Command)
	}
	if handler == nil {
		handler = r.HandleMessage
	}

	r.spreader.ServeHandler(ctx, handler, situation, func(err error) {
		text := fmt.Sprintf("%s // request %s // error with serve user msg: %s\ncommand = '%s'",
			r.bot.BotLink,
			situation.RequestID,
			err.Error(),
			situation.Command,
		)
		r.logger.Warn(text)

		if errors.Is(err, model.ErrTransportFailure) {
			r.SendNotificationToDeveloper(text)
		}
	})

	if situation.State().IsTerminal() {
		model.Deliveries.WithLabelValues(situation.State().String()).Inc()
		model.RequestDuration.WithLabelValues(situation.State().String()).
			Observe(time.Since(situation.StartTime).Seconds())
	}
}

func (r *Relay) StartCommand(_ context.Context, s *model.Situation) error {
	if err := s.SetState(model.StateDone); err != nil {
		return err
	}
	return r.sendText(s, r.bot.LangText("start_text"))
}

func (r *Relay) HelpCommand(_ context.Context, s *model.Situation) error {
	if err := s.SetState(model.StateDone); err != nil {
		return err
	}
	return r.sendText(s, r.bot.LangText("help_text"))
}

// SendTodayUpdateMsg reports the number of updates since the previous call.
func (r *Relay) SendTodayUpdateMsg() {
	r.stats.mu.Lock()
	counter := r.stats.counter
	r.stats.counter = 0
	r.stats.mu.Unlock()

	r.SendNotificationToDeveloper(r.bot.LangText("today_updates", counter))
}
