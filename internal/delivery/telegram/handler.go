package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abhigitlit/revisely/internal/domain/entities"
	"github.com/abhigitlit/revisely/internal/repository"
	"github.com/abhigitlit/revisely/internal/service"
	"github.com/abhigitlit/revisely/internal/storage"
)

type QuizEngine interface {
	CreateSession(ctx context.Context, userID, chatID int64, quizFile string, questions []entities.Question) error
	SetLimit(userID int64, limit int) bool
	QuestionCount(userID int64) (int, bool)
	Begin(ctx context.Context, userID int64, timerEnabled bool) error
	HandleAnswer(ctx context.Context, userID int64, dispatchID string, selected int)
	Cancel(ctx context.Context, userID int64) bool
	AcceptRetry(ctx context.Context, userID int64) bool
	DeclineRetry(ctx context.Context, userID int64)
}

type QuizBank interface {
	List(rel string) (dirs []string, files []string, err error)
	FilesUnder(rel string) ([]string, error)
	Load(rel string) ([]entities.Question, error)
}

type UserRepo interface {
	SaveUser(ctx context.Context, user *entities.User) error
}

type Handler struct {
	bot    *tgbotapi.BotAPI
	sender *Sender
	logger *zap.Logger

	engine QuizEngine
	bank   QuizBank
	ledger service.Ledger
	quota  *service.QuotaService
	users  UserRepo

	menus         *menuStore
	maxLimitTries int
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	sender *Sender,
	logger *zap.Logger,
	engine QuizEngine,
	bank QuizBank,
	ledger service.Ledger,
	quota *service.QuotaService,
	users UserRepo,
	maxLimitTries int,
) *Handler {
	return &Handler{
		bot:           bot,
		sender:        sender,
		logger:        logger,
		engine:        engine,
		bank:          bank,
		ledger:        ledger,
		quota:         quota,
		users:         users,
		menus:         newMenuStore(),
		maxLimitTries: maxLimitTries,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.PollAnswer != nil {
		h.handlePollAnswer(ctx, update.PollAnswer)
		return
	}

	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message, callback or poll answer")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	from := update.Message.From
	if from == nil {
		return
	}

	fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if err := h.users.SaveUser(ctx, entities.NewUser(from.ID, fullName, from.UserName)); err != nil {
		h.logger.Error("failed to save user",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
	}

	chatID := update.Message.Chat.ID

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			h.handleStart(ctx, from.ID, chatID)

		case "cancel", "quit":
			h.engine.Cancel(ctx, from.ID)

		case "announce":
			h.handleAnnounce(ctx, from.ID, chatID, update.Message.CommandArguments())

		default:
			h.sendText(ctx, chatID, msgUnknownCommand)
		}

		return
	}

	h.handleLimitInput(ctx, from.ID, chatID, update.Message.Text)
}

func (h *Handler) handlePollAnswer(ctx context.Context, answer *tgbotapi.PollAnswer) {
	selected := -1
	if len(answer.OptionIDs) > 0 {
		selected = answer.OptionIDs[0]
	}
	h.engine.HandleAnswer(ctx, answer.User.ID, answer.PollID, selected)
}

func (h *Handler) handleStart(ctx context.Context, userID, chatID int64) {
	if err := h.quota.CheckAllowed(ctx, userID); err != nil {
		if errors.Is(err, service.ErrQuotaExceeded) {
			h.sendText(ctx, chatID, msgQuotaExceeded)
			return
		}
		h.logger.Error("quota check failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	h.menus.setPath(userID, ".")
	h.showDirectory(ctx, userID, chatID, nil)
}

// handleLimitInput consumes plain text while the user is entering a custom
// question limit; anything else is ignored.
func (h *Handler) handleLimitInput(ctx context.Context, userID, chatID int64, text string) {
	awaiting, _ := h.menus.limitState(userID)
	if !awaiting {
		return
	}

	total, ok := h.engine.QuestionCount(userID)
	if !ok {
		h.menus.clearLimit(userID)
		return
	}

	limit, err := strconv.Atoi(strings.TrimSpace(text))
	if err == nil && h.engine.SetLimit(userID, limit) {
		h.menus.clearLimit(userID)
		h.sendText(ctx, chatID, fmt.Sprintf(msgLimitSet, limit))
		h.askForTimer(ctx, chatID)
		return
	}

	left := h.menus.spendLimitTry(userID)
	if left <= 0 {
		h.sendText(ctx, chatID, msgLimitNoAttempts)
		h.askForLimit(ctx, chatID, total)
		return
	}
	h.sendText(ctx, chatID, fmt.Sprintf(msgCustomLimit, total, left))
}

func (h *Handler) askForLimit(ctx context.Context, chatID int64, total int) {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgLimitPrompt, total))
	msg.ReplyMarkup = limitKeyboard(total)
	h.send(ctx, msg)
}

func (h *Handler) askForTimer(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, msgTimerPrompt)
	msg.ReplyMarkup = timerKeyboard()
	h.send(ctx, msg)
}

func (h *Handler) handleAnnounce(ctx context.Context, userID, chatID int64, args string) {
	if !h.quota.IsAdmin(userID) {
		h.sendText(ctx, chatID, msgNotAuthorized)
		return
	}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		h.sendText(ctx, chatID, msgAnnounceUsage)
		return
	}

	var recipients []int64
	text := "📢:\n\n"
	if target, err := strconv.ParseInt(fields[0], 10, 64); err == nil && len(fields) > 1 {
		recipients = []int64{target}
		text += strings.Join(fields[1:], " ")
	} else {
		all, err := h.ledger.AllUserIDs(ctx)
		if err != nil {
			h.logger.Error("failed to list users for announcement", zap.Error(err))
			return
		}
		recipients = all
		text += strings.Join(fields, " ")
	}

	var failed []int64
	for _, uid := range recipients {
		if err := h.sendText(ctx, uid, text); err != nil {
			h.logger.Warn("failed to deliver announcement",
				zap.Int64("user_id", uid),
				zap.Error(err),
			)
			failed = append(failed, uid)
		}
	}

	response := fmt.Sprintf("✅ Announcement sent to %d user(s).", len(recipients)-len(failed))
	if len(failed) > 0 {
		response += fmt.Sprintf("\nFailed to send to: %v", failed)
	}
	h.sendText(ctx, chatID, response)
}

// showDirectory renders the current directory as an inline keyboard.
// When query is non-nil the existing message is edited in place.
func (h *Handler) showDirectory(ctx context.Context, userID, chatID int64, query *tgbotapi.CallbackQuery) {
	rel := h.menus.path(userID)

	dirs, files, err := h.bank.List(rel)
	if err != nil {
		h.logger.Error("failed to list quiz directory",
			zap.String("path", rel),
			zap.Error(err),
		)
		h.sendText(ctx, chatID, msgQuizLoadError)
		return
	}

	completedList, err := h.ledger.CompletedFiles(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load completed quizzes", zap.Int64("user_id", userID), zap.Error(err))
	}
	completed := make(map[string]bool, len(completedList))
	for _, f := range completedList {
		completed[f] = true
	}

	dirDone := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		sub, err := h.bank.FilesUnder(d)
		if err != nil || len(sub) == 0 {
			continue
		}
		done := true
		for _, f := range sub {
			if !completed[f] {
				done = false
				break
			}
		}
		dirDone[d] = done
	}

	isHome := rel == "." || rel == ""

	if len(dirs) == 0 && len(files) == 0 && isHome {
		if query != nil {
			h.send(ctx, tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, msgNoQuizzes))
		} else {
			h.sendText(ctx, chatID, msgNoQuizzes)
		}
		return
	}

	kb := buildDirectoryKeyboard(dirs, files, completed, dirDone, isHome)
	if query != nil {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, query.Message.MessageID, msgSelectQuiz, kb)
		h.send(ctx, edit)
		return
	}

	msg := tgbotapi.NewMessage(chatID, msgSelectQuiz)
	msg.ReplyMarkup = kb
	h.send(ctx, msg)
}

func (h *Handler) startQuizSetup(ctx context.Context, userID, chatID int64, quizFile string, query *tgbotapi.CallbackQuery) {
	questions, err := h.bank.Load(quizFile)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMalformedQuizBank):
			h.editOrSend(ctx, chatID, query, msgInvalidQuizFile)
		case errors.Is(err, repository.ErrNoValidQuestions):
			h.editOrSend(ctx, chatID, query, msgNoValidQuestions)
		default:
			h.logger.Error("failed to load quiz bank",
				zap.String("file", quizFile),
				zap.Error(err),
			)
			h.editOrSend(ctx, chatID, query, msgQuizLoadError)
		}
		return
	}

	if err := h.engine.CreateSession(ctx, userID, chatID, quizFile, questions); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyActive):
			h.editOrSend(ctx, chatID, query, msgAlreadyActive)
		case errors.Is(err, service.ErrQuotaExceeded):
			h.editOrSend(ctx, chatID, query, msgQuotaExceeded)
		default:
			h.logger.Error("failed to create session",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			h.editOrSend(ctx, chatID, query, msgQuizLoadError)
		}
		return
	}

	h.sendMarkup(ctx, chatID, query, fmt.Sprintf(msgLimitPrompt, len(questions)), limitKeyboard(len(questions)))
}

func (h *Handler) editOrSend(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, text string) {
	if query != nil {
		h.send(ctx, tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, text))
		return
	}
	h.sendText(ctx, chatID, text)
}

// sendMarkup edits the callback's message to carry text and keyboard, or
// sends a fresh message when there is nothing to edit.
func (h *Handler) sendMarkup(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if query != nil {
		h.send(ctx, tgbotapi.NewEditMessageTextAndMarkup(chatID, query.Message.MessageID, text, kb))
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	h.send(ctx, msg)
}

func (h *Handler) sendText(ctx context.Context, chatID int64, text string) error {
	return h.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) send(ctx context.Context, c tgbotapi.Chattable) error {
	if _, err := h.sender.Send(ctx, c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return err
	}
	return nil
}
