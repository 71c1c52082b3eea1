package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ngfenglong/JiakAIBot/services"
)

// UserStore creates/touches user documents on contact.
type UserStore interface {
	EnsureUser(ctx context.Context, userID string) error
}

// PhotoArchive keeps a durable copy of submitted photos.
type PhotoArchive interface {
	ArchivePhoto(ctx context.Context, userID string, data []byte) (string, error)
}

// Bot is the Telegram transport: it receives updates, gates them through
// the access guard and hands them to the meal-log pipeline.
type Bot struct {
	api    *tgbotapi.BotAPI
	access *services.AccessControl
	meals  *services.MealLogService
	users  UserStore
	// archive is nil when no bucket is configured; photos then keep the
	// platform file id as their input reference.
	archive PhotoArchive

	// workers is a counting semaphore bounding concurrent update handling.
	workers chan struct{}
}

func New(token string, access *services.AccessControl, meals *services.MealLogService, users UserStore, archive PhotoArchive, workers int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	return &Bot{
		api:     api,
		access:  access,
		meals:   meals,
		users:   users,
		archive: archive,
		workers: make(chan struct{}, workers),
	}, nil
}

// Run polls for updates until ctx is cancelled. Each update is handled in
// its own goroutine, gated by the worker semaphore; a failure only ever
// affects its own update.
func (b *Bot) Run(ctx context.Context) {
	log.Printf("bot: authorized as @%s", b.api.Self.UserName)
	b.registerCommands()

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.workers <- struct{}{}
			go func(u tgbotapi.Update) {
				defer func() { <-b.workers }()
				b.handleUpdate(ctx, u)
			}(update)
		}
	}
}

func (b *Bot) registerCommands() {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Initialize the bot"},
		tgbotapi.BotCommand{Command: "summary", Description: "Today's nutrition summary"},
		tgbotapi.BotCommand{Command: "history", Description: "View past meals"},
		tgbotapi.BotCommand{Command: "trends", Description: "7-day overview"},
		tgbotapi.BotCommand{Command: "help", Description: "How to use JiakAI"},
	)
	if _, err := b.api.Request(cmds); err != nil {
		log.Printf("bot: set commands: %v", err)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: send: %v", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}
