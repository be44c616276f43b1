package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"autocaption/internal/model"
	"autocaption/internal/service"
	"autocaption/internal/storage"
	"autocaption/internal/telegram"
	"autocaption/pkg/logger"
	"autocaption/pkg/validator"

	"go.uber.org/zap"
)

// captionLimit is Telegram's hard cap on media captions.
const captionLimit = 1024

// BotAPI is the slice of the Telegram client the bot handler uses.
type BotAPI interface {
	GetUpdates(offset int64, timeoutSec int) ([]telegram.Update, error)
	SendMessage(chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	SendPhoto(chatID int64, photo, caption string, markup *telegram.InlineKeyboardMarkup) error
	EditMessageCaption(chatID, messageID int64, caption string, markup *telegram.InlineKeyboardMarkup) error
	EditMessageText(chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	DeleteMessage(chatID, messageID int64) error
	AnswerCallbackQuery(callbackID, text string, showAlert bool) error
}

// BotHandler dispatches Telegram updates: configuration commands, the
// auto-caption media path, and start-menu callbacks.
type BotHandler struct {
	api      BotAPI
	store    *storage.Manager
	captions *service.CaptionService
	rules    *service.TextRulesService
	buttons  *service.ButtonService
	cfg      *model.Config
}

// NewBotHandler creates a new bot handler
func NewBotHandler(api BotAPI, store *storage.Manager, cs *service.CaptionService, rs *service.TextRulesService, bs *service.ButtonService, cfg *model.Config) *BotHandler {
	return &BotHandler{
		api:      api,
		store:    store,
		captions: cs,
		rules:    rs,
		buttons:  bs,
		cfg:      cfg,
	}
}

// Run long-polls getUpdates until the process exits.
func (h *BotHandler) Run() {
	var offset int64
	for {
		updates, err := h.api.GetUpdates(offset, h.cfg.Bot.PollTimeout)
		if err != nil {
			logger.Logger.Error("getUpdates failed", zap.Error(err))
			time.Sleep(3 * time.Second)
			continue
		}

		for _, upd := range updates {
			offset = upd.UpdateID + 1
			h.HandleUpdate(upd)
		}
	}
}

// HandleUpdate routes one update. Also the entry point for webhook mode.
func (h *BotHandler) HandleUpdate(upd telegram.Update) {
	switch {
	case upd.CallbackQuery != nil:
		h.handleCallback(upd.CallbackQuery)
	case upd.ChannelPost != nil:
		h.handleMessage(upd.ChannelPost)
	case upd.Message != nil:
		h.handleMessage(upd.Message)
	}
}

func (h *BotHandler) handleMessage(msg *telegram.Message) {
	if filename, size, ok := mediaInfo(msg); ok {
		h.handleMedia(msg, filename, size)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	cmd, args := splitCommand(text)
	h.handleCommand(msg, cmd, args)
}

// mediaInfo pulls the filename and size out of whichever media kind is
// attached, mirroring document > video > audio precedence.
func mediaInfo(msg *telegram.Message) (string, int64, bool) {
	switch {
	case msg.Document != nil:
		return msg.Document.FileName, msg.Document.FileSize, true
	case msg.Video != nil:
		return msg.Video.FileName, msg.Video.FileSize, true
	case msg.Audio != nil:
		return msg.Audio.FileName, msg.Audio.FileSize, true
	}
	return "", 0, false
}

// splitCommand separates "/cmd args", dropping an @botname suffix.
func splitCommand(text string) (string, string) {
	parts := strings.SplitN(text, " ", 2)
	cmd := parts[0]
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	args := ""
	if len(parts) == 2 {
		args = strings.TrimSpace(parts[1])
	}
	return cmd, args
}

// userInfo identifies the acting user: a real sender, or the chat itself
// when posting anonymously as a channel.
func userInfo(msg *telegram.Message) (int64, string, bool) {
	if msg.From != nil {
		return msg.From.ID, msg.From.FirstName, true
	}
	if msg.SenderChat != nil {
		return msg.SenderChat.ID, msg.SenderChat.Title, true
	}
	return 0, "", false
}

// handleMedia is the auto-caption path. It is fail-open: any panic inside
// the pipeline is logged and the original message is left untouched, so a
// captioning bug can never block media delivery.
func (h *BotHandler) handleMedia(msg *telegram.Message, filename string, size int64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error("Caption pipeline panic, leaving message unchanged",
				zap.Int64("chat_id", msg.Chat.ID),
				zap.Int64("message_id", msg.MessageID),
				zap.Any("panic", r))
		}
	}()

	caption, buttons, err := h.captions.BuildForChat(msg.Chat.ID, filename, size)
	if errors.Is(err, model.ErrNotFound) {
		return // no caption configured for this chat
	}
	if err != nil {
		logger.Logger.Error("Caption build failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		return
	}

	caption = validator.TruncateCaption(caption, captionLimit)
	if err := h.api.EditMessageCaption(msg.Chat.ID, msg.MessageID, caption, keyboardFor(buttons)); err != nil {
		logger.Logger.Error("editMessageCaption failed",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Int64("message_id", msg.MessageID),
			zap.Error(err))
		return
	}

	logger.Logger.Info("Caption applied",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("filename", filename),
		zap.Int("buttons", len(buttons)))
}

// keyboardFor lays parsed buttons out one per row, in source order.
func keyboardFor(buttons []model.Button) *telegram.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]telegram.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []telegram.InlineKeyboardButton{{Text: b.Label, URL: b.URL}})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (h *BotHandler) handleCommand(msg *telegram.Message, cmd, args string) {
	userID, username, ok := userInfo(msg)
	if !ok {
		h.reply(msg, "Could not identify user. Please try again.")
		return
	}

	switch cmd {
	case "/start":
		h.store.SaveUser(model.KnownUser{UserID: userID, Username: username})
		greeting := fmt.Sprintf("Hi %s! I auto-caption media posted in your channels.\nUse /help to see commands and placeholders.", username)
		if h.cfg.Bot.StartPic != "" {
			_ = h.api.SendPhoto(msg.Chat.ID, h.cfg.Bot.StartPic, greeting, startMenu())
		} else {
			_ = h.api.SendMessage(msg.Chat.ID, greeting, startMenu())
		}
	case "/help":
		h.reply(msg, helpText)
	case "/setcaption":
		h.cmdSetCaption(msg, args, userID, username)
	case "/removecaption":
		h.replyResult(msg, h.captions.RemoveCaption(msg.Chat.ID, userID),
			"Auto-caption removed successfully!",
			"No caption found or you don't have permission to remove it!")
	case "/showcaption":
		h.cmdShowCaption(msg)
	case "/mycaptions":
		h.cmdMyCaptions(msg, userID)
	case "/removetext":
		h.cmdRemoveText(msg, args, userID, username)
	case "/replacetext":
		h.cmdReplaceText(msg, args, userID, username)
	case "/showtextsettings":
		h.cmdShowTextSettings(msg)
	case "/cleartextsettings":
		h.replyResult(msg, h.rules.ClearRules(msg.Chat.ID, userID),
			"All text settings cleared successfully!",
			"No text settings found or you don't have permission to clear them!")
	case "/setbutton":
		h.cmdSetButton(msg, args, userID, username)
	case "/showbutton":
		h.cmdShowButton(msg)
	case "/removebutton":
		h.replyResult(msg, h.buttons.RemoveButtons(msg.Chat.ID, userID),
			"Custom button removed successfully!",
			"No custom button found or you don't have permission to remove it!")
	case "/stats":
		h.cmdStats(msg)
	case "/broadcast":
		h.cmdBroadcast(msg, args, userID)
	case "/users":
		if userID == h.cfg.Bot.OwnerID {
			h.reply(msg, fmt.Sprintf("Total users: %d", h.store.Counts().Users))
		}
	}
}

func (h *BotHandler) cmdSetCaption(msg *telegram.Message, args string, userID int64, username string) {
	if args == "" {
		h.reply(msg, "Usage: /setcaption Your caption text\n\n"+
			"Available placeholders:\n"+
			"{filename} - original filename\n"+
			"{episode} - extracted episode number\n"+
			"{season} - extracted season number\n"+
			"{language} - detected language\n"+
			"{quality} - video quality\n"+
			"{filesize} - formatted file size\n\n"+
			"Example:\n/setcaption {filename}\nEpisode: {episode}\n{quality} | {language} | {filesize}")
		return
	}

	chatTitle := msg.Chat.Title
	if chatTitle == "" {
		chatTitle = "Private Chat"
	}
	h.captions.SetCaption(msg.Chat.ID, args, chatTitle, userID, username)
	h.reply(msg, "Auto-caption set successfully!")
}

func (h *BotHandler) cmdShowCaption(msg *telegram.Message) {
	rec := h.captions.Caption(msg.Chat.ID)
	if rec == nil {
		h.reply(msg, "No caption set for this chat!")
		return
	}
	h.reply(msg, fmt.Sprintf("Caption for %s:\n\n%s\n\nSet by: %s", rec.ChatTitle, rec.Template, rec.OwnerName))
}

func (h *BotHandler) cmdMyCaptions(msg *telegram.Message, userID int64) {
	records := h.captions.CaptionsByOwner(userID)
	if len(records) == 0 {
		h.reply(msg, "You haven't set any auto-captions yet!\nUse /setcaption to create one.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your auto-captions:\n\n")
	for i, rec := range records {
		preview := rec.Template
		if len(preview) > 50 {
			preview = preview[:50] + "..."
		}
		fmt.Fprintf(&sb, "%d. %s\n%s\n\n", i+1, rec.ChatTitle, preview)
	}
	h.reply(msg, sb.String())
}

func (h *BotHandler) cmdRemoveText(msg *telegram.Message, args string, userID int64, username string) {
	if args == "" {
		h.reply(msg, "Usage: /removetext text_to_remove\n\n"+
			"Example:\n/removetext Telegram - removes the word 'Telegram' from all captions")
		return
	}
	h.rules.AddRemoval(msg.Chat.ID, args, userID, username)
	h.reply(msg, fmt.Sprintf("Text %q will be removed from all captions!", args))
}

func (h *BotHandler) cmdReplaceText(msg *telegram.Message, args string, userID int64, username string) {
	parts := strings.SplitN(args, " ", 2)
	if args == "" || len(parts) < 2 {
		h.reply(msg, "Usage: /replacetext old_text new_text\n\n"+
			"Example:\n/replacetext Telegram WhatsApp - replaces 'Telegram' with 'WhatsApp'")
		return
	}
	h.rules.AddReplacement(msg.Chat.ID, parts[0], parts[1], userID, username)
	h.reply(msg, fmt.Sprintf("Text %q will be replaced with %q in all captions!", parts[0], parts[1]))
}

func (h *BotHandler) cmdShowTextSettings(msg *telegram.Message) {
	rules := h.rules.Rules(msg.Chat.ID)
	if rules == nil {
		h.reply(msg, "No text settings configured for this chat.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Current text settings:\n\n")
	if len(rules.Removals) > 0 {
		sb.WriteString("Texts to remove:\n")
		for _, t := range rules.Removals {
			fmt.Fprintf(&sb, "- %q\n", t)
		}
		sb.WriteString("\n")
	}
	if len(rules.Replacements) > 0 {
		sb.WriteString("Text replacements:\n")
		for _, r := range rules.Replacements {
			fmt.Fprintf(&sb, "- %q -> %q\n", r.Old, r.New)
		}
	}
	h.reply(msg, sb.String())
}

func (h *BotHandler) cmdSetButton(msg *telegram.Message, args string, userID int64, username string) {
	if args == "" {
		h.reply(msg, "Usage: /setbutton [Button Text][buttonurl:https://example.com]\n\n"+
			"Multiple buttons, one per line:\n"+
			"/setbutton [Join Channel][buttonurl:https://t.me/Channel1]\n"+
			"[Download][buttonurl:https://t.me/Channel2]\n\n"+
			"URLs must start with http://, https://, or t.me/")
		return
	}

	if err := h.buttons.SetButtons(msg.Chat.ID, args, userID, username); err != nil {
		h.reply(msg, "Invalid button format!\n\n"+
			"Correct format:\n[Button Text][buttonurl:https://example.com]")
		return
	}
	h.reply(msg, "Custom button set successfully!")
}

func (h *BotHandler) cmdShowButton(msg *telegram.Message) {
	rec := h.buttons.Buttons(msg.Chat.ID)
	if rec == nil {
		h.reply(msg, "No custom button set for this chat.")
		return
	}

	preview := fmt.Sprintf("Current custom button:\n\n%s\n\nSet by: %s\n\nPreview:", rec.Markup, rec.OwnerName)
	_ = h.api.SendMessage(msg.Chat.ID, preview, keyboardFor(h.buttons.ParseButtons(rec.Markup)))
}

func (h *BotHandler) cmdStats(msg *telegram.Message) {
	counts := h.store.Counts()
	h.reply(msg, fmt.Sprintf("Bot statistics\n\n"+
		"Total users: %d\n"+
		"Active captions: %d\n"+
		"Text settings: %d\n"+
		"Custom buttons: %d",
		counts.Users, counts.Captions, counts.Rules, counts.Buttons))
}

// cmdBroadcast fans a message out to every known user, owner only, with a
// fixed delay between sends to avoid flooding.
func (h *BotHandler) cmdBroadcast(msg *telegram.Message, args string, userID int64) {
	if userID != h.cfg.Bot.OwnerID {
		return
	}
	if args == "" {
		h.reply(msg, "Usage: /broadcast Your message here")
		return
	}

	count := 0
	for _, user := range h.store.Users() {
		if err := h.api.SendMessage(user.UserID, args, nil); err != nil {
			logger.Logger.Warn("Broadcast send failed", zap.Int64("user_id", user.UserID), zap.Error(err))
			continue
		}
		count++
		time.Sleep(time.Duration(h.cfg.Broadcast.DelayMS) * time.Millisecond)
	}
	h.reply(msg, fmt.Sprintf("Broadcast sent to %d users.", count))
}

// handleCallback serves the static start-menu navigation.
func (h *BotHandler) handleCallback(q *telegram.CallbackQuery) {
	if q.Message == nil {
		_ = h.api.AnswerCallbackQuery(q.ID, "", false)
		return
	}

	switch q.Data {
	case "help":
		_ = h.api.EditMessageText(q.Message.Chat.ID, q.Message.MessageID, helpText, startMenu())
		_ = h.api.AnswerCallbackQuery(q.ID, "", false)
	case "close":
		_ = h.api.DeleteMessage(q.Message.Chat.ID, q.Message.MessageID)
		_ = h.api.AnswerCallbackQuery(q.ID, "", false)
	default:
		_ = h.api.AnswerCallbackQuery(q.ID, "Use the commands from /help to configure this chat.", false)
	}
}

func (h *BotHandler) reply(msg *telegram.Message, text string) {
	if err := h.api.SendMessage(msg.Chat.ID, text, nil); err != nil {
		logger.Logger.Warn("sendMessage failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
	}
}

// replyResult maps a mutation outcome to a success or failure reply. Both
// not-found and not-owner surface the same user-facing text.
func (h *BotHandler) replyResult(msg *telegram.Message, err error, success, failure string) {
	if err != nil {
		h.reply(msg, failure)
		return
	}
	h.reply(msg, success)
}

func startMenu() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "Help", CallbackData: "help"}},
		{{Text: "Close", CallbackData: "close"}},
	}}
}

const helpText = "Command manual\n\n" +
	"Available commands:\n" +
	"/start - start the bot\n" +
	"/help - show this help message\n" +
	"/setcaption - set auto-caption for this chat\n" +
	"/removecaption - remove auto-caption from this chat\n" +
	"/showcaption - show current caption\n" +
	"/mycaptions - show all your captions\n" +
	"/removetext - remove specific text from captions\n" +
	"/replacetext - replace text in captions\n" +
	"/showtextsettings - view text settings\n" +
	"/cleartextsettings - clear all text settings\n" +
	"/setbutton - set custom inline buttons\n" +
	"/showbutton - show current buttons\n" +
	"/removebutton - remove custom buttons\n" +
	"/stats - show bot statistics\n\n" +
	"Placeholders:\n" +
	"{filename} {episode} {season} {language} {quality} {filesize}"
