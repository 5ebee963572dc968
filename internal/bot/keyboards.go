package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

const (
	btnCart = "🛒 Cart"
	btnHelp = "❓ Help"
)

// mainReplyKeyboard нижняя панель
func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnCart), tgbotapi.NewKeyboardButton(btnHelp)},
		},
	}
}

// maxCallbackData лимит Telegram на callback_data, в байтах
const maxCallbackData = 64

// itemKeyboard добавить в корзину и пересчитать другими профилями.
// Кнопки, данные которых не влезают в лимит, не показываются.
func itemKeyboard(code, current string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if data := "add:" + code; len(data) <= maxCallbackData {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add to cart", data),
		))
	}

	var profiles []tgbotapi.InlineKeyboardButton
	for _, name := range scoring.Builtins() {
		if name == current {
			continue
		}
		data := "score:" + code + ":" + name
		if len(data) > maxCallbackData {
			continue
		}
		profiles = append(profiles, tgbotapi.NewInlineKeyboardButtonData("📊 "+name, data))
	}
	if len(profiles) > 0 {
		rows = append(rows, profiles)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func cartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Score cart", "cart:score"),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Clear", "cart:clear"),
		),
	)
}
