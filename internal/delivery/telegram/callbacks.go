package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (h *Handler) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID

	// Always clear the button spinner, even for swallowed taps.
	if err := h.sender.Request(ctx, tgbotapi.NewCallback(query.ID, "")); err != nil {
		h.logger.Debug("failed to answer callback query", zap.Error(err))
	}

	if !h.menus.debounce(userID, time.Now()) {
		return
	}

	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	data := query.Data

	switch {
	case data == "home":
		h.menus.setPath(userID, ".")
		h.showDirectory(ctx, userID, chatID, query)

	case strings.HasPrefix(data, "dir:"):
		h.handleDirTap(ctx, userID, chatID, strings.TrimPrefix(data, "dir:"), query)

	case strings.HasPrefix(data, "file:"):
		h.startQuizSetup(ctx, userID, chatID, strings.TrimPrefix(data, "file:"), query)

	case data == "limit_all":
		h.handleLimitAll(ctx, userID, chatID, query)

	case data == "limit_custom":
		h.handleLimitCustom(ctx, userID, chatID, query)

	case data == "pre_limit":
		h.menus.clearLimit(userID)
		h.engine.Cancel(ctx, userID)
		h.showDirectory(ctx, userID, chatID, query)

	case data == "pre_timer":
		h.handlePreTimer(ctx, userID, chatID, query)

	case strings.HasPrefix(data, "timer:"):
		h.handleTimerChoice(ctx, userID, chatID, data == "timer:yes", query)

	case data == "retry_choice:yes":
		h.handleRetryAccept(ctx, userID, chatID, query)

	case data == "retry_choice:no":
		h.engine.DeclineRetry(ctx, userID)
		h.editOrSend(ctx, chatID, query, msgBackToDirectory)

	default:
		h.logger.Warn("unknown callback data",
			zap.Int64("user_id", userID),
			zap.String("data", data),
		)
	}
}

func (h *Handler) handleDirTap(ctx context.Context, userID, chatID int64, target string, query *tgbotapi.CallbackQuery) {
	if target == ".." {
		parent := filepath.Dir(h.menus.path(userID))
		if parent == "" {
			parent = "."
		}
		h.menus.setPath(userID, parent)
	} else {
		h.menus.setPath(userID, target)
	}
	h.showDirectory(ctx, userID, chatID, query)
}

func (h *Handler) handleLimitAll(ctx context.Context, userID, chatID int64, query *tgbotapi.CallbackQuery) {
	total, ok := h.engine.QuestionCount(userID)
	if !ok {
		h.editOrSend(ctx, chatID, query, msgQuizLoadError)
		return
	}

	h.menus.clearLimit(userID)
	h.engine.SetLimit(userID, total)
	h.sendMarkup(ctx, chatID, query, msgTimerPrompt, timerKeyboard())
}

func (h *Handler) handleLimitCustom(ctx context.Context, userID, chatID int64, query *tgbotapi.CallbackQuery) {
	total, ok := h.engine.QuestionCount(userID)
	if !ok {
		h.editOrSend(ctx, chatID, query, msgQuizLoadError)
		return
	}

	h.menus.awaitLimit(userID, h.maxLimitTries)
	h.editOrSend(ctx, chatID, query, fmt.Sprintf(msgCustomLimit, total, h.maxLimitTries))
}

func (h *Handler) handlePreTimer(ctx context.Context, userID, chatID int64, query *tgbotapi.CallbackQuery) {
	total, ok := h.engine.QuestionCount(userID)
	if !ok {
		h.editOrSend(ctx, chatID, query, msgQuizLoadError)
		return
	}

	h.menus.clearLimit(userID)
	h.sendMarkup(ctx, chatID, query, fmt.Sprintf(msgLimitPrompt, total), limitKeyboard(total))
}

func (h *Handler) handleTimerChoice(ctx context.Context, userID, chatID int64, enabled bool, query *tgbotapi.CallbackQuery) {
	h.editOrSend(ctx, chatID, query, msgStartingQuiz)

	if err := h.engine.Begin(ctx, userID, enabled); err != nil {
		h.logger.Error("failed to begin quiz",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		h.sendText(ctx, chatID, msgQuizLoadError)
	}
}

func (h *Handler) handleRetryAccept(ctx context.Context, userID, chatID int64, query *tgbotapi.CallbackQuery) {
	h.editOrSend(ctx, chatID, query, msgStartingRetry)
	if !h.engine.AcceptRetry(ctx, userID) {
		h.sendText(ctx, chatID, msgNoWrongToRetry)
	}
}
