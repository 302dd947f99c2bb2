package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data values for inline keyboard buttons.
const (
	callbackAddTransaction = "add_transaction"
	callbackSavingsGoal    = "set_savings_goal"
	callbackReports        = "financial_reports"
	callbackAIChat         = "ai_chat"
)

// mainMenuKeyboard returns the main menu, two buttons per row.
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Add Income/Expense", callbackAddTransaction),
			tgbotapi.NewInlineKeyboardButtonData("🎯 Set Savings Goal", callbackSavingsGoal),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Financial Reports", callbackReports),
			tgbotapi.NewInlineKeyboardButtonData("🤖 Chat with AI Assistant", callbackAIChat),
		),
	)
}

// startNewSessionKeyboard is attached to timeout notifications so the user
// can open a fresh assistant session in one tap.
func startNewSessionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤖 Start New Session", callbackAIChat),
		),
	)
}
