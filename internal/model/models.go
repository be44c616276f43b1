package model

import "errors"

// Mutation failure reasons, surfaced to callers instead of crashes.
var (
	ErrNotFound      = errors.New("no record configured for this chat")
	ErrNotOwner      = errors.New("acting user does not own this record")
	ErrInvalidMarkup = errors.New("markup contains no valid buttons")
)

// FileMetadata holds the fields extracted from a media filename.
// A nil Episode/Season means no pattern matched, not zero.
type FileMetadata struct {
	Filename  string
	Episode   *int
	Season    *int
	Quality   string
	Language  string
	SizeLabel string
}

// Button is one parsed inline button.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// CaptionRecord is the per-chat caption template configuration.
type CaptionRecord struct {
	ChatID    int64  `json:"chat_id"`
	Template  string `json:"template"`
	ChatTitle string `json:"chat_title"`
	OwnerID   int64  `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

// Replacement is one old-to-new text substitution rule.
type Replacement struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// TextRules is the per-chat text editing configuration. Removals keep
// insertion order with duplicates collapsed; replacements keep insertion
// order because later rules may match the output of earlier ones.
type TextRules struct {
	ChatID       int64         `json:"chat_id"`
	Removals     []string      `json:"removals"`
	Replacements []Replacement `json:"replacements"`
	OwnerID      int64         `json:"owner_id"`
	OwnerName    string        `json:"owner_name"`
}

// ButtonRecord stores the raw button markup for a chat. The markup string is
// the source of truth; parsed buttons are derived on demand.
type ButtonRecord struct {
	ChatID    int64  `json:"chat_id"`
	Markup    string `json:"markup"`
	OwnerID   int64  `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

// KnownUser is a user who started the bot, tracked for broadcast and stats.
type KnownUser struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// StoreCounts summarizes configured records for /stats.
type StoreCounts struct {
	Captions int `json:"captions"`
	Rules    int `json:"text_rules"`
	Buttons  int `json:"buttons"`
	Users    int `json:"users"`
}

// PreviewRequest asks the admin API to run the caption pipeline once.
type PreviewRequest struct {
	Filename  string `json:"filename" binding:"required"`
	SizeBytes int64  `json:"size_bytes"`
	Template  string `json:"template" binding:"required"`
	ChatID    int64  `json:"chat_id"` // optional: apply this chat's stored rules and buttons
}

// PreviewResponse is the rendered result of a preview request.
type PreviewResponse struct {
	Caption string   `json:"caption"`
	Buttons []Button `json:"buttons,omitempty"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
