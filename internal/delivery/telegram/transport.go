package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abhigitlit/revisely/internal/dispatch"
	"github.com/abhigitlit/revisely/internal/service"
)

// Sender implements the engine's transport boundary over the Telegram Bot
// API. Every outbound operation goes through the rate-limited dispatcher so
// the system-wide throughput ceiling holds no matter how many sessions are
// active.
type Sender struct {
	bot    *tgbotapi.BotAPI
	disp   *dispatch.Dispatcher
	logger *zap.Logger
}

// NewSender creates a Sender over the given bot and dispatcher.
func NewSender(bot *tgbotapi.BotAPI, disp *dispatch.Dispatcher, logger *zap.Logger) *Sender {
	return &Sender{bot: bot, disp: disp, logger: logger}
}

// wrapTransportErr maps network timeouts onto the engine's transient
// transport error so the bounded retry contract can match on it.
func wrapTransportErr(err error) error {
	if err == nil {
		return nil
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", service.ErrTransportTimeout, err)
	}
	return err
}

// Send submits a Chattable through the dispatcher and returns the sent message.
func (s *Sender) Send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var msg tgbotapi.Message
	err := s.disp.Submit(ctx, func(context.Context) error {
		var err error
		msg, err = s.bot.Send(c)
		return wrapTransportErr(err)
	})
	return msg, err
}

// Request submits a Chattable whose response body is not needed.
func (s *Sender) Request(ctx context.Context, c tgbotapi.Chattable) error {
	return s.disp.Submit(ctx, func(context.Context) error {
		_, err := s.bot.Request(c)
		return wrapTransportErr(err)
	})
}

// SendQuestion dispatches one quiz poll. The returned dispatch id is the
// Telegram poll id carried back by answer events.
func (s *Sender) SendQuestion(
	ctx context.Context,
	chatID int64,
	text string,
	options []string,
	correctIndex int,
	annotation string,
	timeLimit time.Duration,
) (service.SentQuestion, error) {
	poll := tgbotapi.NewPoll(chatID, text, options...)
	poll.Type = "quiz"
	poll.CorrectOptionID = int64(correctIndex)
	poll.IsAnonymous = false
	if timeLimit > 0 {
		poll.OpenPeriod = int(timeLimit.Seconds())
	}
	if annotation != "" {
		poll.Explanation = annotation
		poll.ExplanationParseMode = tgbotapi.ModeHTML
	}

	msg, err := s.Send(ctx, poll)
	if err != nil {
		return service.SentQuestion{}, err
	}
	if msg.Poll == nil {
		return service.SentQuestion{}, errors.New("send poll: response carries no poll")
	}

	return service.SentQuestion{DispatchID: msg.Poll.ID, MessageID: msg.MessageID}, nil
}

// SendSummary sends the end-of-pass performance summary, with retry buttons
// when a retry pass is on offer.
func (s *Sender) SendSummary(ctx context.Context, chatID int64, sum service.Summary, offerRetry bool) error {
	msg := tgbotapi.NewMessage(chatID, formatSummary(sum, offerRetry))
	if offerRetry {
		msg.ReplyMarkup = retryKeyboard()
	}

	_, err := s.Send(ctx, msg)
	return err
}

// SendNotice sends one of the engine's terminal notifications.
func (s *Sender) SendNotice(ctx context.Context, chatID int64, notice service.Notice) error {
	var text string
	switch notice {
	case service.NoticeCancelled:
		text = msgCancelled
	case service.NoticeInactive:
		text = msgInactive
	case service.NoticeForcedStop:
		text = msgForcedStop
	case service.NoticeSendFailed:
		text = msgSendFailed
	default:
		return fmt.Errorf("unknown notice %d", notice)
	}

	_, err := s.Send(ctx, tgbotapi.NewMessage(chatID, text))
	return err
}

// StopPoll closes an outstanding quiz poll, best-effort.
func (s *Sender) StopPoll(ctx context.Context, chatID int64, messageID int) error {
	return s.Request(ctx, tgbotapi.NewStopPoll(chatID, messageID))
}
