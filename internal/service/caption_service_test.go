package service

import (
	"testing"

	"autocaption/internal/model"
	"autocaption/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptionService(t *testing.T) (*CaptionService, *storage.Manager) {
	t.Helper()
	store := newTestStore(t)
	es := NewExtractService()
	ts := NewTemplateService()
	rs := NewTextRulesService(store)
	bs := NewButtonService(store)
	return NewCaptionService(store, es, ts, rs, bs), store
}

func TestBuildCaptionPipeline(t *testing.T) {
	t.Parallel()
	s, _ := newCaptionService(t)

	meta := model.FileMetadata{
		Filename:  "Show.S02E05.1080p.mkv",
		Episode:   intPtr(5),
		Season:    intPtr(2),
		Quality:   "1080p",
		Language:  "Multi",
		SizeLabel: "1.00 GB",
	}
	rules := &model.TextRules{
		Removals:     []string{".mkv"},
		Replacements: []model.Replacement{{Old: "Multi", New: "Dual Audio"}},
	}

	caption, buttons := s.BuildCaption(
		"{filename}\n\n\nE{episode} S{season} {quality} {language} {filesize}",
		meta, rules, "[Join][buttonurl:t.me/x]")

	assert.Equal(t, "Show.S02E05.1080p\n\nE5 S2 1080p Dual Audio 1.00 GB", caption)
	require.Len(t, buttons, 1)
	assert.Equal(t, model.Button{Label: "Join", URL: "t.me/x"}, buttons[0])
}

func TestBuildForChatWithoutTemplate(t *testing.T) {
	t.Parallel()
	s, _ := newCaptionService(t)

	_, _, err := s.BuildForChat(1, "a.mkv", 10)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBuildForChatResolvesStoredConfig(t *testing.T) {
	t.Parallel()
	s, store := newCaptionService(t)

	s.SetCaption(1, "{filename} | {quality} | {filesize}", "My Channel", 100, "alice")
	NewTextRulesService(store).AddRemoval(1, ".mkv", 100, "alice")
	require.NoError(t, NewButtonService(store).SetButtons(1, "[DL][buttonurl:https://e.com]", 100, "alice"))

	caption, buttons, err := s.BuildForChat(1, "Show.720p.mkv", 1536)
	require.NoError(t, err)
	assert.Equal(t, "Show.720p | 720p | 1.50 KB", caption)
	require.Len(t, buttons, 1)
	assert.Equal(t, "DL", buttons[0].Label)
}

func TestBuildForChatWithOnlyTemplate(t *testing.T) {
	t.Parallel()
	s, _ := newCaptionService(t)

	s.SetCaption(1, "ep {episode}", "c", 100, "alice")

	caption, buttons, err := s.BuildForChat(1, "nodigits.bin", 0)
	require.NoError(t, err)
	assert.Equal(t, "ep N/A", caption)
	assert.Nil(t, buttons)
}

func TestCaptionOwnership(t *testing.T) {
	t.Parallel()
	s, _ := newCaptionService(t)

	s.SetCaption(1, "first", "chat", 100, "alice")
	// overwrite by another user keeps the original owner
	s.SetCaption(1, "second", "chat", 200, "bob")

	rec := s.Caption(1)
	require.NotNil(t, rec)
	assert.Equal(t, "second", rec.Template)
	assert.Equal(t, int64(100), rec.OwnerID)

	err := s.RemoveCaption(1, 200)
	assert.ErrorIs(t, err, model.ErrNotOwner)
	require.NotNil(t, s.Caption(1))

	require.NoError(t, s.RemoveCaption(1, 100))
	assert.Nil(t, s.Caption(1))

	err = s.RemoveCaption(1, 100)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCaptionsByOwner(t *testing.T) {
	t.Parallel()
	s, _ := newCaptionService(t)

	s.SetCaption(1, "a", "chat one", 100, "alice")
	s.SetCaption(2, "b", "chat two", 100, "alice")
	s.SetCaption(3, "c", "chat three", 200, "bob")

	assert.Len(t, s.CaptionsByOwner(100), 2)
	assert.Len(t, s.CaptionsByOwner(200), 1)
	assert.Empty(t, s.CaptionsByOwner(300))
}
