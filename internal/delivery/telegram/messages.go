// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	"github.com/abhigitlit/revisely/internal/service"
)

const (
	msgSelectQuiz       = "📂 Select a Quiz"
	msgNoQuizzes        = "No directories or quiz files found."
	msgAlreadyActive    = "⚠️ You already have an active quiz. Finish it first (or /cancel it) before starting a new one."
	msgQuotaExceeded    = "❌ You have reached your quiz limit. Please wait a while before starting another quiz."
	msgInvalidQuizFile  = "Invalid quiz format in the file."
	msgNoValidQuestions = "No valid questions found after filtering."
	msgQuizLoadError    = "Error loading quiz. Try again later."
	msgTimerPrompt      = "⏳ Do you want timer for the quiz?"
	msgStartingQuiz     = "Starting quiz now..."
	msgStartingRetry    = "Starting a new quiz with your incorrectly answered questions!"
	msgNoWrongToRetry   = "No wrong questions to retry. Great job!"
	msgBackToDirectory  = "Okay, returning to quiz directory."
	msgCancelled        = "Your active quiz has been canceled. You can start a new quiz with /start."
	msgInactive         = "Quiz canceled due to inactivity. Select another quiz using /start."
	msgForcedStop       = "⚠️ Quiz stopped after too many unanswered questions. Select another quiz using /start."
	msgSendFailed       = "⚠️ Couldn't send the next question. It will count as unanswered."
	msgLimitSet         = "Question number set to %d."
	msgLimitPrompt      = "The quiz has %d valid questions.\nDo you want to use all questions or set a custom number?"
	msgLimitNoAttempts  = "No attempts left. Canceling input."
	msgCustomLimit      = "Enter the number of questions you want (1-%d). You have %d attempts."
	msgNotAuthorized    = "❌ You are not authorized to make announcements."
	msgAnnounceUsage    = "Usage: /announce [user_id (optional)] <message>"
	msgUnknownCommand   = "Unknown command. Use /start to pick a quiz or /cancel to stop an active one."
)

// formatSummary renders the end-of-pass performance block, appending the
// retry question when a retry pass is available.
func formatSummary(sum service.Summary, offerRetry bool) string {
	var b strings.Builder

	b.WriteString("🏆 Quiz Completed!\n\n")
	b.WriteString("📊 Your Performance Summary:\n")
	b.WriteString("────────────────────────────\n")
	fmt.Fprintf(&b, "📝 Questions Attempted: %d\n", sum.Attempted)
	fmt.Fprintf(&b, "✅ Correct Answers:     %d\n", sum.Correct)
	fmt.Fprintf(&b, "❌ Incorrect Answers:   %d\n", sum.Wrong)
	b.WriteString("────────────────────────────\n")
	b.WriteString("🎉 Thank you for participating!\n")

	if offerRetry {
		fmt.Fprintf(&b, "\nYou have %d wrong question(s). Would you like to reattempt them?", sum.WrongCount)
	}

	return b.String()
}
