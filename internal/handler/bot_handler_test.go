package handler

import (
	"path/filepath"
	"testing"

	"autocaption/internal/model"
	"autocaption/internal/service"
	"autocaption/internal/storage"
	"autocaption/internal/telegram"
	"autocaption/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.Logger = zap.NewNop()
}

// fakeAPI records outbound Bot API calls.
type fakeAPI struct {
	sent          []string
	sentChats     []int64
	editedCaption string
	editedMarkup  *telegram.InlineKeyboardMarkup
	editedChat    int64
	editedMsg     int64
	edits         int
}

func (f *fakeAPI) GetUpdates(offset int64, timeoutSec int) ([]telegram.Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	f.sent = append(f.sent, text)
	f.sentChats = append(f.sentChats, chatID)
	return nil
}

func (f *fakeAPI) SendPhoto(chatID int64, photo, caption string, markup *telegram.InlineKeyboardMarkup) error {
	f.sent = append(f.sent, caption)
	f.sentChats = append(f.sentChats, chatID)
	return nil
}

func (f *fakeAPI) EditMessageCaption(chatID, messageID int64, caption string, markup *telegram.InlineKeyboardMarkup) error {
	f.edits++
	f.editedChat = chatID
	f.editedMsg = messageID
	f.editedCaption = caption
	f.editedMarkup = markup
	return nil
}

func (f *fakeAPI) EditMessageText(chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	return nil
}

func (f *fakeAPI) DeleteMessage(chatID, messageID int64) error { return nil }

func (f *fakeAPI) AnswerCallbackQuery(callbackID, text string, showAlert bool) error { return nil }

func newBotHandler(t *testing.T) (*BotHandler, *fakeAPI, *storage.Manager) {
	t.Helper()
	store := storage.NewManager(&model.StoreConfig{
		SnapshotPath:  filepath.Join(t.TempDir(), "store.json"),
		FlushInterval: 60,
	})
	es := service.NewExtractService()
	ts := service.NewTemplateService()
	rs := service.NewTextRulesService(store)
	bs := service.NewButtonService(store)
	cs := service.NewCaptionService(store, es, ts, rs, bs)

	api := &fakeAPI{}
	cfg := &model.Config{
		Bot:       model.BotConfig{OwnerID: 900},
		Broadcast: model.BroadcastConfig{DelayMS: 0},
	}
	return NewBotHandler(api, store, cs, rs, bs, cfg), api, store
}

func channelPost(chatID int64, doc *telegram.Document) telegram.Update {
	return telegram.Update{ChannelPost: &telegram.Message{
		MessageID: 7,
		Chat:      telegram.Chat{ID: chatID, Title: "My Channel", Type: "channel"},
		Document:  doc,
	}}
}

func command(chatID, userID int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		MessageID: 1,
		Chat:      telegram.Chat{ID: chatID, Title: "My Channel", Type: "channel"},
		From:      &telegram.User{ID: userID, FirstName: "alice"},
		Text:      text,
	}}
}

func TestMediaPostEditsCaption(t *testing.T) {
	t.Parallel()
	h, api, _ := newBotHandler(t)

	h.HandleUpdate(command(-100, 100, "/setcaption {filename} | {quality} | {filesize}"))
	h.HandleUpdate(command(-100, 100, "/removetext .mkv"))
	h.HandleUpdate(command(-100, 100, "/setbutton [Join][buttonurl:t.me/x]"))

	h.HandleUpdate(channelPost(-100, &telegram.Document{
		FileName: "Show.S02E05.1080p.mkv",
		FileSize: 1073741824,
	}))

	require.Equal(t, 1, api.edits)
	assert.Equal(t, int64(-100), api.editedChat)
	assert.Equal(t, int64(7), api.editedMsg)
	assert.Equal(t, "Show.S02E05.1080p | 1080p | 1.00 GB", api.editedCaption)
	require.NotNil(t, api.editedMarkup)
	require.Len(t, api.editedMarkup.InlineKeyboard, 1)
	assert.Equal(t, "Join", api.editedMarkup.InlineKeyboard[0][0].Text)
}

func TestMediaPostWithoutCaptionConfigIsIgnored(t *testing.T) {
	t.Parallel()
	h, api, _ := newBotHandler(t)

	h.HandleUpdate(channelPost(-100, &telegram.Document{FileName: "a.mkv", FileSize: 1}))
	assert.Zero(t, api.edits)
}

func TestRemoveCaptionByNonOwnerFails(t *testing.T) {
	t.Parallel()
	h, api, _ := newBotHandler(t)

	h.HandleUpdate(command(-100, 100, "/setcaption hello"))
	h.HandleUpdate(command(-100, 200, "/removecaption"))

	require.NotEmpty(t, api.sent)
	assert.Contains(t, api.sent[len(api.sent)-1], "don't have permission")

	// record survives, media still captioned
	h.HandleUpdate(channelPost(-100, &telegram.Document{FileName: "a.mkv", FileSize: 1}))
	assert.Equal(t, 1, api.edits)
}

func TestLongCaptionIsTruncated(t *testing.T) {
	t.Parallel()
	h, api, _ := newBotHandler(t)

	long := make([]byte, 0, 2048)
	for i := 0; i < 2048; i++ {
		long = append(long, 'x')
	}
	h.HandleUpdate(command(-100, 100, "/setcaption "+string(long)))
	h.HandleUpdate(channelPost(-100, &telegram.Document{FileName: "a.mkv", FileSize: 1}))

	require.Equal(t, 1, api.edits)
	assert.Len(t, api.editedCaption, captionLimit)
}

func TestBroadcastIsOwnerOnly(t *testing.T) {
	t.Parallel()
	h, api, store := newBotHandler(t)

	store.SaveUser(model.KnownUser{UserID: 1, Username: "a"})
	store.SaveUser(model.KnownUser{UserID: 2, Username: "b"})

	h.HandleUpdate(command(5, 100, "/broadcast hi"))
	assert.Empty(t, api.sent)

	h.HandleUpdate(command(5, 900, "/broadcast hi"))
	// two fan-out sends plus the summary reply
	assert.Len(t, api.sent, 3)
}

func TestSplitCommand(t *testing.T) {
	t.Parallel()

	cmd, args := splitCommand("/setcaption@MyBot some template")
	assert.Equal(t, "/setcaption", cmd)
	assert.Equal(t, "some template", args)

	cmd, args = splitCommand("/stats")
	assert.Equal(t, "/stats", cmd)
	assert.Empty(t, args)
}
