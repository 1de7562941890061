// ui.go builds the inline keyboards for directory browsing and quiz setup.

package telegram

import (
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// buildDirectoryKeyboard lays out directories and quiz files in a two-column
// grid, with navigation buttons when not at the bank root.
func buildDirectoryKeyboard(dirs, files []string, completed map[string]bool, dirDone map[string]bool, isHome bool) tgbotapi.InlineKeyboardMarkup {
	var items []tgbotapi.InlineKeyboardButton

	for _, d := range dirs {
		label := "📁 " + filepath.Base(d)
		if dirDone[d] {
			label += " ✅"
		}
		items = append(items, tgbotapi.NewInlineKeyboardButtonData(label, "dir:"+d))
	}

	for _, f := range files {
		label := "📝 " + strings.TrimSuffix(filepath.Base(f), ".json")
		if completed[f] {
			label += " ✅"
		}
		items = append(items, tgbotapi.NewInlineKeyboardButtonData(label, "file:"+f))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(items); i += 2 {
		end := i + 2
		if end > len(items) {
			end = len(items)
		}
		rows = append(rows, items[i:end])
	}

	if !isHome {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Previous", "dir:.."),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Home", "home"),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// limitKeyboard asks whether to use every question or a custom count.
func limitKeyboard(total int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("All (%d)", total), "limit_all"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Custom", "limit_custom"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️", "pre_limit"),
			tgbotapi.NewInlineKeyboardButtonData("🏠", "home"),
		),
	)
}

// timerKeyboard asks whether the quiz runs with per-question deadlines.
func timerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏳ Yes", "timer:yes"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏲️ No", "timer:no"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️", "pre_timer"),
			tgbotapi.NewInlineKeyboardButtonData("🏠", "home"),
		),
	)
}

// retryKeyboard offers a retry pass over the wrong questions.
func retryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, Retry", "retry_choice:yes"),
			tgbotapi.NewInlineKeyboardButtonData("No", "retry_choice:no"),
		),
	)
}
