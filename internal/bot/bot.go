package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/eco-wardrobe/internal/domain/cart"
	"github.com/Spok95/eco-wardrobe/internal/domain/catalog"
	"github.com/Spok95/eco-wardrobe/internal/domain/scans"
	"github.com/Spok95/eco-wardrobe/internal/scoring"
)

// API методы Telegram, которые использует бот (*tgbotapi.BotAPI).
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetFileDirectURL(fileID string) (string, error)
}

type ScanRecorder interface {
	Record(ctx context.Context, s scans.Scan) (int64, error)
}

type Bot struct {
	api       API
	log       *slog.Logger
	scorer    *scoring.Scorer
	carts     *cart.Service
	scans     ScanRecorder
	sink      catalog.Sink
	adminChat int64
	download  func(fileID string) ([]byte, error)
}

type Option func(*Bot)

func WithScans(r ScanRecorder) Option { return func(b *Bot) { b.scans = r } }

// WithImport разрешает загрузку каталога (.xlsx) из чата администратора.
func WithImport(sink catalog.Sink, adminChatID int64) Option {
	return func(b *Bot) { b.sink, b.adminChat = sink, adminChatID }
}

func New(api API, log *slog.Logger, scorer *scoring.Scorer, carts *cart.Service, opts ...Option) *Bot {
	b := &Bot{api: api, log: log, scorer: scorer, carts: carts}
	b.download = b.downloadTelegramFile
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handle(ctx, upd)
		}
	}
}

func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		b.onMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		b.onCallback(ctx, upd.CallbackQuery)
	}
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	default:
		b.handleText(ctx, msg)
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Warn("callback answer failed", "err", err)
	}
}

// downloadTelegramFile скачивает файл по FileID через Telegram API.
func (b *Bot) downloadTelegramFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
