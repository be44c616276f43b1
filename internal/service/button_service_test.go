package service

import (
	"testing"

	"autocaption/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseButtons(t *testing.T) {
	t.Parallel()
	s := NewButtonService(newTestStore(t))

	tests := []struct {
		name   string
		markup string
		want   []model.Button
	}{
		{
			name:   "single valid button",
			markup: "[Join][buttonurl:https://t.me/x]",
			want:   []model.Button{{Label: "Join", URL: "https://t.me/x"}},
		},
		{
			name:   "rejected scheme yields no buttons",
			markup: "[Bad][buttonurl:ftp://x]",
			want:   nil,
		},
		{
			name:   "two buttons on separate lines keep source order",
			markup: "[One][buttonurl:https://example.com/1]\n[Two][buttonurl:t.me/two]",
			want: []model.Button{
				{Label: "One", URL: "https://example.com/1"},
				{Label: "Two", URL: "t.me/two"},
			},
		},
		{
			name:   "invalid pair dropped silently among valid ones",
			markup: "[Ok][buttonurl:http://a]\n[Nope][buttonurl:gopher://b]",
			want:   []model.Button{{Label: "Ok", URL: "http://a"}},
		},
		{
			name:   "label and url trimmed before validation",
			markup: "[ Join Now ][buttonurl: https://t.me/x ]",
			want:   []model.Button{{Label: "Join Now", URL: "https://t.me/x"}},
		},
		{
			name:   "uppercase scheme rejected",
			markup: "[X][buttonurl:HTTPS://x]",
			want:   nil,
		},
		{
			name:   "plain text yields no buttons",
			markup: "not markup at all",
			want:   nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, s.ParseButtons(tc.markup))
		})
	}
}

func TestSetButtonsRejectsInvalidMarkup(t *testing.T) {
	t.Parallel()
	s := NewButtonService(newTestStore(t))

	err := s.SetButtons(1, "[Bad][buttonurl:ftp://x]", 100, "alice")
	assert.ErrorIs(t, err, model.ErrInvalidMarkup)
	assert.Nil(t, s.Buttons(1))
}

func TestButtonOwnership(t *testing.T) {
	t.Parallel()
	s := NewButtonService(newTestStore(t))

	require.NoError(t, s.SetButtons(1, "[Join][buttonurl:t.me/x]", 100, "alice"))

	// later setters do not take over ownership
	require.NoError(t, s.SetButtons(1, "[Other][buttonurl:t.me/y]", 200, "bob"))

	err := s.RemoveButtons(1, 200)
	assert.ErrorIs(t, err, model.ErrNotOwner)
	require.NotNil(t, s.Buttons(1))

	require.NoError(t, s.RemoveButtons(1, 100))
	assert.Nil(t, s.Buttons(1))

	err = s.RemoveButtons(1, 100)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestButtonsForChat(t *testing.T) {
	t.Parallel()
	s := NewButtonService(newTestStore(t))

	assert.Nil(t, s.ButtonsFor(1))

	require.NoError(t, s.SetButtons(1, "[Join][buttonurl:t.me/x]", 100, "alice"))
	got := s.ButtonsFor(1)
	require.Len(t, got, 1)
	assert.Equal(t, "Join", got[0].Label)
}
