package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/eco-wardrobe/internal/domain/cart"
	"github.com/Spok95/eco-wardrobe/internal/domain/scans"
	"github.com/Spok95/eco-wardrobe/internal/infra/xlsx"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

const helpText = `Scan a clothing QR code or send its code to see the environmental impact.

/score CODE [basic|enhanced|dual] score an item
/add CODE add an item to your cart
/remove CODE remove an item from your cart
/cart show your cart and its score
/clear empty your cart
/help this message`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		m := tgbotapi.NewMessage(chatID, helpText)
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)

	case "score":
		if len(args) == 0 {
			b.reply(chatID, "Usage: /score CODE [profile]")
			return
		}
		profile := ""
		if len(args) > 1 {
			profile = args[1]
		}
		b.scoreItem(ctx, chatID, args[0], profile)

	case "add":
		if len(args) == 0 {
			b.reply(chatID, "Usage: /add CODE")
			return
		}
		b.addToCart(ctx, chatID, args[0])

	case "remove":
		if len(args) == 0 {
			b.reply(chatID, "Usage: /remove CODE")
			return
		}
		b.removeFromCart(ctx, chatID, args[0])

	case "cart":
		b.showCart(ctx, chatID)

	case "clear":
		b.clearCart(ctx, chatID)

	default:
		b.reply(chatID, "Unknown command. Send /help for the list.")
	}
}

// handleText кнопки нижней панели или код вещи (сканер QR присылает его текстом).
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	switch text {
	case "":
		return
	case btnCart:
		b.showCart(ctx, msg.Chat.ID)
	case btnHelp:
		b.reply(msg.Chat.ID, helpText)
	default:
		b.scoreItem(ctx, msg.Chat.ID, text, "")
	}
}

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		b.answerCallback(cb, "")
		return
	}
	chatID := cb.Message.Chat.ID
	// код вещи может содержать ":", профиль всегда последний
	action, arg, _ := strings.Cut(cb.Data, ":")
	sep := strings.LastIndex(arg, ":")

	switch {
	case action == "add" && arg != "":
		b.answerCallback(cb, "")
		b.addToCart(ctx, chatID, arg)
	case action == "score" && sep > 0:
		b.answerCallback(cb, "")
		b.scoreItem(ctx, chatID, arg[:sep], arg[sep+1:])
	case cb.Data == "cart:score":
		b.answerCallback(cb, "")
		b.scoreCart(ctx, chatID)
	case cb.Data == "cart:clear":
		b.answerCallback(cb, "Cart cleared")
		b.clearCart(ctx, chatID)
	default:
		b.answerCallback(cb, "Unknown action")
	}
}

/* Оценка */

func (b *Bot) scorerFor(profile string) (*scoring.Scorer, error) {
	if profile == "" {
		return b.scorer, nil
	}
	p, err := scoring.LoadBuiltin(profile)
	if err != nil {
		return nil, err
	}
	return b.scorer.WithProfile(p), nil
}

func (b *Bot) scoreItem(ctx context.Context, chatID int64, code, profile string) {
	s, err := b.scorerFor(profile)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Unknown profile %q. Available: %s", profile, strings.Join(scoring.Builtins(), ", ")))
		return
	}
	res, err := s.ScoreItem(ctx, code)
	if err != nil {
		b.reply(chatID, b.errorText(code, err))
		return
	}

	if b.scans != nil {
		sc := scans.Scan{
			ItemCode:  res.Item.Code,
			SessionID: cart.TelegramSession(chatID),
			Profile:   res.Profile,
			Score:     res.Score,
			Grade:     res.Grade,
		}
		if _, err := b.scans.Record(ctx, sc); err != nil {
			b.log.Warn("scan record failed", "code", res.Item.Code, "err", err)
		}
	}

	m := tgbotapi.NewMessage(chatID, formatResult(res))
	if kb := itemKeyboard(res.Item.Code, res.Profile); len(kb.InlineKeyboard) > 0 {
		m.ReplyMarkup = kb
	}
	b.send(m)
}

// errorText текст для пользователя; ошибки хранилища только в лог.
func (b *Bot) errorText(code string, err error) string {
	var nf *scoring.NotFoundError
	switch {
	case errors.As(err, &nf):
		if len(nf.Suggestions) > 0 {
			return fmt.Sprintf("Item %s not found. Did you mean: %s?", nf.Code, strings.Join(nf.Suggestions, ", "))
		}
		return fmt.Sprintf("Item %s not found.", nf.Code)
	case errors.Is(err, scoring.ErrNoComposition):
		return fmt.Sprintf("No material composition data for %s.", code)
	case errors.Is(err, scoring.ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, scoring.ErrNoScorableItems):
		return "None of the items in your cart could be scored."
	case errors.Is(err, cart.ErrFull):
		return fmt.Sprintf("Your cart is full (%d items). Remove something first.", b.carts.MaxItems())
	default:
		b.log.Error("bot request failed", "code", code, "err", err)
		return "Something went wrong, please try again later."
	}
}

/* Корзина */

func (b *Bot) addToCart(ctx context.Context, chatID int64, code string) {
	// вещь должна существовать, иначе в корзину попадёт опечатка
	it, err := b.scorer.Catalog().GetItem(ctx, strings.TrimSpace(code))
	if err != nil {
		b.reply(chatID, b.errorText(code, err))
		return
	}
	if it == nil {
		b.reply(chatID, b.errorText(code, &scoring.NotFoundError{Code: code}))
		return
	}
	code = it.Code
	c, added, err := b.carts.Add(ctx, cart.TelegramSession(chatID), code)
	if err != nil {
		b.reply(chatID, b.errorText(code, err))
		return
	}
	if !added {
		b.reply(chatID, fmt.Sprintf("%s is already in your cart (%d items).", code, c.Len()))
		return
	}
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Added %s. Cart: %d/%d items.", code, c.Len(), b.carts.MaxItems()))
	m.ReplyMarkup = cartKeyboard()
	b.send(m)
}

func (b *Bot) removeFromCart(ctx context.Context, chatID int64, code string) {
	c, removed, err := b.carts.Remove(ctx, cart.TelegramSession(chatID), code)
	if err != nil {
		b.reply(chatID, b.errorText(code, err))
		return
	}
	if !removed {
		b.reply(chatID, fmt.Sprintf("%s is not in your cart.", code))
		return
	}
	b.reply(chatID, fmt.Sprintf("Removed %s. Cart: %d items.", code, c.Len()))
}

func (b *Bot) showCart(ctx context.Context, chatID int64) {
	c, err := b.carts.Get(ctx, cart.TelegramSession(chatID))
	if err != nil {
		b.reply(chatID, b.errorText("", err))
		return
	}
	if c.Len() == 0 {
		b.reply(chatID, "Your cart is empty. Send an item code or /add CODE.")
		return
	}
	m := tgbotapi.NewMessage(chatID, formatCart(c.Codes, b.carts.MaxItems()))
	m.ReplyMarkup = cartKeyboard()
	b.send(m)
}

func (b *Bot) scoreCart(ctx context.Context, chatID int64) {
	codes, err := b.carts.Codes(ctx, cart.TelegramSession(chatID))
	if err != nil {
		b.reply(chatID, b.errorText("", err))
		return
	}
	res, err := b.scorer.ScoreCart(ctx, codes)
	if err != nil {
		b.reply(chatID, b.errorText("", err))
		return
	}
	b.reply(chatID, formatCartResult(res))
}

func (b *Bot) clearCart(ctx context.Context, chatID int64) {
	if err := b.carts.Clear(ctx, cart.TelegramSession(chatID)); err != nil {
		b.reply(chatID, b.errorText("", err))
		return
	}
	b.reply(chatID, "Your cart is empty now.")
}

/* Загрузка каталога */

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.sink == nil || chatID != b.adminChat {
		b.reply(chatID, "Send an item code or /help.")
		return
	}
	if !strings.HasSuffix(strings.ToLower(msg.Document.FileName), ".xlsx") {
		b.reply(chatID, "Only .xlsx catalog workbooks are supported.")
		return
	}

	data, err := b.download(msg.Document.FileID)
	if err != nil {
		b.log.Error("catalog download failed", "err", err)
		b.reply(chatID, "Could not download the file.")
		return
	}
	rep, err := xlsx.Import(ctx, bytes.NewReader(data), b.sink)
	if rep != nil && (rep.Items > 0 || rep.Impacts > 0 || rep.Compositions > 0) {
		b.scorer.Ranges().Invalidate()
	}
	if err != nil {
		b.log.Warn("catalog import failed", "err", err)
		b.reply(chatID, "Import stopped: "+err.Error())
		return
	}
	b.log.Info("catalog imported", "materials", rep.Materials, "impacts", rep.Impacts, "items", rep.Items)
	b.reply(chatID, fmt.Sprintf("Imported: %d materials, %d impact values, %d items, %d compositions.",
		rep.Materials, rep.Impacts, rep.Items, rep.Compositions))
}
