package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bots-empire/ytrelay-bot/internal/model"
)

func TestRelay_Commands(t *testing.T) {
	tests := []struct {
		text    string
		wantKey string
	}{
		{"/start", "start_text"},
		{"/help", "help_text"},
		{"/START", "start_text"},
		{"/help@ytrelay_test_bot", "help_text"},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			fx := newRelayFixture(t, nil, nil)
			s := newTestSituation(test.text)

			fx.relay.checkMessage(context.Background(), s)

			if s.State() != model.StateDone {
				t.Errorf("state = %s, expected Done", s.State())
			}
			if fx.downloader.calls() != 0 {
				t.Errorf("downloader calls = %d, expected 0", fx.downloader.calls())
			}
			if len(fx.sender.messages) != 1 {
				t.Fatalf("messages = %d, expected 1", len(fx.sender.messages))
			}

			text := fx.sender.messages[0].Text
			if text == "" || text != fx.bot.LangText(test.wantKey) {
				t.Errorf("reply = %q, expected %s", text, test.wantKey)
			}
		})
	}
}

func TestRelay_UnknownCommandIsScannedForLink(t *testing.T) {
	fx := newRelayFixture(t, nil, nil, downloadOutcome{size: mb})
	s := newTestSituation("/get https://youtu.be/dQw4w9WgXcQ")

	fx.relay.checkMessage(context.Background(), s)

	if fx.downloader.calls() != 1 {
		t.Errorf("downloader calls = %d, expected 1", fx.downloader.calls())
	}
	if s.State() != model.StateDone {
		t.Errorf("state = %s, expected Done", s.State())
	}
}

func TestRelay_TransportFailureNotifiesDevelopers(t *testing.T) {
	fx := newRelayFixture(t, nil, nil, downloadOutcome{size: mb})
	fx.sender.failUpload = true

	fx.relay.checkMessage(context.Background(), newTestSituation("https://youtu.be/dQw4w9WgXcQ"))

	var notified bool
	for _, msg := range fx.sender.messages {
		if msg.ChatID == 7 {
			notified = true
		}
	}
	if !notified {
		t.Error("expected a developer notification")
	}
}

func TestRelay_ActionsWithUpdates(t *testing.T) {
	fx := newRelayFixture(t, nil, nil)

	updates := make(chan tgbotapi.Update, 3)
	updates <- tgbotapi.Update{UpdateID: 1}
	updates <- tgbotapi.Update{UpdateID: 2, Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      "hello",
	}}
	updates <- tgbotapi.Update{UpdateID: 3, Message: &tgbotapi.Message{
		MessageID: 2,
		Chat:      &tgbotapi.Chat{ID: testChatID},
	}}
	close(updates)

	fx.relay.ActionsWithUpdates(context.Background(), updates)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(fx.sender.texts()) == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	texts := fx.sender.texts()
	if len(texts) != 1 || texts[0] != fx.bot.LangText("guidance_text") {
		t.Errorf("texts = %q, expected only the guidance text", texts)
	}
}

func TestRelay_ActionsWithUpdates_StopsOnCancel(t *testing.T) {
	fx := newRelayFixture(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		fx.relay.ActionsWithUpdates(ctx, make(chan tgbotapi.Update))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ActionsWithUpdates did not return after cancel")
	}
}

func TestRelay_ActionsWithUpdates_WaitsForRunningHandlers(t *testing.T) {
	fx := newRelayFixture(t, nil, nil)

	started := make(chan struct{})
	var finished atomic.Bool
	fx.bot.MessageHandler = &MessagesHandlers{Handlers: map[string]model.Handler{
		"/slow": func(context.Context, *model.Situation) error {
			close(started)
			time.Sleep(100 * time.Millisecond)
			finished.Store(true)
			return nil
		},
	}}

	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{UpdateID: 1, Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      "/slow",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-started
		cancel()
	}()

	fx.relay.ActionsWithUpdates(ctx, updates)

	if !finished.Load() {
		t.Error("ActionsWithUpdates returned before the running handler finished")
	}
}

func TestRelay_PanicIsRecovered(t *testing.T) {
	fx := newRelayFixture(t, nil, nil)
	fx.bot.MessageHandler = &MessagesHandlers{Handlers: map[string]model.Handler{
		"/boom": func(context.Context, *model.Situation) error {
			panic("boom")
		},
	}}

	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      "/boom",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
	}

	fx.relay.checkUpdate(context.Background(), &tgbotapi.Update{Message: msg})

	if len(fx.sender.messages) == 0 || fx.sender.messages[0].ChatID != 7 {
		t.Errorf("expected the panic to be reported to developers")
	}
}

func TestRelay_SendTodayUpdateMsg(t *testing.T) {
	fx := newRelayFixture(t, nil, nil)
	fx.relay.stats.counter = 5

	fx.relay.SendTodayUpdateMsg()

	if fx.relay.stats.counter != 0 {
		t.Errorf("counter = %d, expected reset", fx.relay.stats.counter)
	}
	if len(fx.sender.messages) != 1 || fx.sender.messages[0].Text != "Today Update's counter: 5" {
		t.Errorf("messages = %v", fx.sender.messages)
	}
}
