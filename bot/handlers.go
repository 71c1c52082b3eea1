package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ngfenglong/JiakAIBot/models"
	"github.com/ngfenglong/JiakAIBot/services"
	"github.com/ngfenglong/JiakAIBot/utils"
)

const (
	callbackRequestAccess = "request_access"
	historyCallbackPrefix = "history:"

	// handlerTimeout bounds one whole inbound message, on top of the
	// per-call timeouts inside the pipeline.
	handlerTimeout = 2 * time.Minute

	// maxPhotoBytes caps the photo download (Telegram bot downloads top
	// out at 20 MB anyway).
	maxPhotoBytes = 20 << 20
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	userID := strconv.FormatInt(msg.From.ID, 10)

	// Every command and message is gated, /start included. The only side
	// effect for a rejected user is the optional access request.
	if !b.access.IsAuthorized(userID) {
		b.sendAccessDenied(msg.Chat.ID)
		return
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg, userID)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg, userID)
	case strings.TrimSpace(msg.Text) != "":
		b.handleText(ctx, msg, userID)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, userID string) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		if err := b.users.EnsureUser(ctx, userID); err != nil {
			log.Printf("bot: ensure user %s: %v", userID, err)
		}
		b.reply(chatID, FormatWelcome())

	case "help":
		b.reply(chatID, FormatHelp())

	case "summary":
		now := time.Now()
		key := utils.DateKey(now)
		summary, err := b.meals.DailySummary(ctx, userID, key)
		if err != nil {
			b.reply(chatID, userMessageFor(err))
			return
		}
		b.reply(chatID, FormatDailySummary(summary, utils.DisplayDate(key, now)))

	case "history":
		now := time.Now()
		day := now
		if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
			parsed, err := utils.ParseDateKey(args)
			if err != nil {
				b.reply(chatID, "Please use /history YYYY-MM-DD, e.g. /history 2025-03-01")
				return
			}
			day = parsed
		}
		b.sendHistory(ctx, chatID, userID, utils.DateKey(day), 0)

	case "trends":
		points, err := b.meals.Trends(ctx, userID, 7)
		if err != nil {
			b.reply(chatID, userMessageFor(err))
			return
		}
		b.reply(chatID, FormatTrends(points))

	default:
		b.reply(chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, userID string) {
	chatID := msg.Chat.ID
	b.reply(chatID, "📸 Analyzing your meal photo...")

	// Telegram sends several sizes; the last one is the largest.
	photo := msg.Photo[len(msg.Photo)-1]
	data, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		log.Printf("bot: download photo %s: %v", photo.FileID, err)
		b.reply(chatID, "❌ I couldn't fetch that photo. Please try sending it again.")
		return
	}

	// Platform file ids are not assumed to stay resolvable, so archive a
	// copy when a bucket is configured and reference that instead.
	inputRef := photo.FileID
	if b.archive != nil {
		if key, err := b.archive.ArchivePhoto(ctx, userID, data); err != nil {
			log.Printf("bot: archive photo for %s: %v", userID, err)
		} else {
			inputRef = key
		}
	}

	rec, err := b.meals.LogPhoto(ctx, userID, data, inputRef, mealRecordID(chatID, msg.MessageID))
	b.finishLog(ctx, chatID, userID, rec, err)
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, userID string) {
	chatID := msg.Chat.ID
	b.reply(chatID, "💬 Analyzing your meal description...")

	rec, err := b.meals.LogText(ctx, userID, msg.Text, mealRecordID(chatID, msg.MessageID))
	b.finishLog(ctx, chatID, userID, rec, err)
}

func (b *Bot) finishLog(ctx context.Context, chatID int64, userID string, rec *models.MealRecord, err error) {
	if err != nil {
		b.reply(chatID, userMessageFor(err))
		return
	}
	// Best effort: the confirmation still goes out if the read-back fails.
	today, err := b.meals.DailySummary(ctx, userID, utils.DateKey(rec.Timestamp))
	if err != nil {
		log.Printf("bot: read back summary for %s: %v", userID, err)
		today = nil
	}
	b.reply(chatID, FormatMealConfirmation(rec, today))
}

func (b *Bot) sendHistory(ctx context.Context, chatID int64, userID, dateKey string, editMessageID int) {
	day, err := utils.ParseDateKey(dateKey)
	if err != nil {
		b.reply(chatID, userMessageFor(err))
		return
	}
	meals, err := b.meals.MealHistory(ctx, userID, day)
	if err != nil {
		b.reply(chatID, userMessageFor(err))
		return
	}

	now := time.Now()
	text := FormatMealHistory(utils.DisplayDate(dateKey, now), meals)
	markup := historyKeyboard(dateKey, now)
	if editMessageID != 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, editMessageID, text, markup))
		return
	}
	out := tgbotapi.NewMessage(chatID, text)
	out.ReplyMarkup = markup
	b.send(out)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	userID := strconv.FormatInt(cb.From.ID, 10)
	data := cb.Data

	if data == callbackRequestAccess {
		b.ack(cb)
		b.handleAccessRequest(ctx, cb, userID)
		return
	}

	if !b.access.IsAuthorized(userID) {
		if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(cb.ID, "❌ Access denied. Please request access first.")); err != nil {
			log.Printf("bot: callback alert: %v", err)
		}
		return
	}
	b.ack(cb)

	if key, ok := parseHistoryCallback(data); ok && cb.Message != nil {
		b.sendHistory(ctx, cb.Message.Chat.ID, userID, key, cb.Message.MessageID)
	}
}

func (b *Bot) handleAccessRequest(ctx context.Context, cb *tgbotapi.CallbackQuery, userID string) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	if b.access.IsAuthorized(userID) {
		b.send(tgbotapi.NewEditMessageText(chatID, messageID, "✅ You already have access! Try /start to begin."))
		return
	}
	created, err := b.access.RequestAccess(ctx, userID, cb.From.UserName, displayName(cb.From))
	if err != nil {
		log.Printf("bot: access request for %s: %v", userID, err)
		b.send(tgbotapi.NewEditMessageText(chatID, messageID, "❌ Couldn't record your request right now. Please try again later."))
		return
	}
	b.send(tgbotapi.NewEditMessageText(chatID, messageID, FormatAccessRequestResult(created)))
}

func (b *Bot) sendAccessDenied(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, FormatAccessDenied())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 Request Access", callbackRequestAccess),
		),
	)
	b.send(msg)
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("bot: callback ack: %v", err)
	}
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}

// mealRecordID derives the idempotency key for a meal from the inbound
// message, so a redelivered message maps to the same record.
func mealRecordID(chatID int64, messageID int) string {
	return fmt.Sprintf("m%d-%d", chatID, messageID)
}

func historyCallbackData(dateKey string) string {
	return historyCallbackPrefix + dateKey
}

func parseHistoryCallback(data string) (string, bool) {
	if !strings.HasPrefix(data, historyCallbackPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(data, historyCallbackPrefix)
	if _, err := utils.ParseDateKey(key); err != nil {
		return "", false
	}
	return key, true
}

// historyKeyboard offers day navigation; the forward button disappears at
// today.
func historyKeyboard(dateKey string, now time.Time) tgbotapi.InlineKeyboardMarkup {
	day, _ := utils.ParseDateKey(dateKey)
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Previous day", historyCallbackData(utils.DateKey(day.AddDate(0, 0, -1)))),
	}
	if dateKey < utils.DateKey(now) {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next day ➡️", historyCallbackData(utils.DateKey(day.AddDate(0, 0, 1)))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// userMessageFor maps pipeline failures to user-facing replies. Every
// failure path ends in a visible message; nothing is silently dropped.
func userMessageFor(err error) string {
	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		return FormatAccessDenied()
	case errors.Is(err, services.ErrNoFoodDetected):
		return "🔍 I couldn't find any food in that photo. Try a closer shot of the meal itself, without just plates or packaging."
	case errors.Is(err, services.ErrImageUnclear):
		return "📷 That photo is too blurry or dark to analyze. Please try again with better lighting."
	case errors.Is(err, services.ErrNoFoodDescribed):
		return "💬 That doesn't look like a meal description. Tell me what you ate, e.g. 'chicken rice' or '2 eggs and toast'."
	case errors.Is(err, services.ErrRecognitionFailed):
		return "❌ Sorry, I had trouble analyzing that. Please try again."
	case errors.Is(err, services.ErrResolutionFailed):
		return "❌ I couldn't look up nutrition data right now. Please try again."
	case errors.Is(err, services.ErrDuplicateMeal):
		return "ℹ️ This meal was already logged — your summary is unchanged."
	case errors.Is(err, services.ErrStoreUnavailable):
		return "⚠️ I couldn't save your meal just now. Please resend it in a moment."
	case errors.Is(err, services.ErrStoreRead):
		return "⚠️ Your data is temporarily unavailable. Please try again shortly."
	default:
		return "❌ Something went wrong. Please try again."
	}
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = "Unknown"
	}
	return name
}
