package model

import (
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// maxDownloadEntries is the first attempt plus the single quality fallback.
const maxDownloadEntries = 2

type Stage string

const (
	StageProcessing  Stage = "processing"
	StageFetching    Stage = "fetching"
	StageDownloading Stage = "downloading"
	StageRetrying    Stage = "retrying"
	StageUploading   Stage = "uploading"
)

type Situation struct {
	Message   *tgbotapi.Message
	RequestID string
	ChatID    int64
	Command   string
	Link      Link
	Title     string
	Quality   string
	Err       error
	StartTime time.Time

	// StatusMessageID is the progress message edited through the stages, 0 until sent.
	StatusMessageID int

	state     RequestState
	downloads int
	reported  map[Stage]bool
}

func NewSituation(message *tgbotapi.Message, requestID string) *Situation {
	s := &Situation{
		Message:   message,
		RequestID: requestID,
		ChatID:    message.Chat.ID,
		StartTime: time.Now(),
		state:     StateReceived,
		reported:  make(map[Stage]bool),
	}

	if message.IsCommand() {
		s.Command = "/" + strings.ToLower(message.Command())
	}

	return s
}

func (s *Situation) State() RequestState {
	return s.state
}

// SetState moves the request forward. Downloading may be entered twice at
// most, and nothing leaves a terminal state.
func (s *Situation) SetState(next RequestState) error {
	if !s.state.canMoveTo(next) {
		return errors.Wrapf(ErrIllegalTransition, "%s -> %s", s.state, next)
	}

	if next == StateDownloading {
		if s.downloads >= maxDownloadEntries {
			return errors.Wrapf(ErrIllegalTransition, "%s -> %s: attempts exhausted", s.state, next)
		}
		s.downloads++
	}

	s.state = next
	return nil
}

func (s *Situation) DownloadAttempts() int {
	return s.downloads
}

// MarkReported returns false when the stage was already reported.
func (s *Situation) MarkReported(stage Stage) bool {
	if s.reported == nil {
		s.reported = make(map[Stage]bool)
	}
	if s.reported[stage] {
		return false
	}

	s.reported[stage] = true
	return true
}
