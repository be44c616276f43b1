package telegram

// Update is one entry from getUpdates or a webhook delivery.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	ChannelPost   *Message       `json:"channel_post"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// Message is an incoming Telegram message or channel post.
type Message struct {
	MessageID  int64     `json:"message_id"`
	Chat       Chat      `json:"chat"`
	From       *User     `json:"from"`
	SenderChat *Chat     `json:"sender_chat"`
	Text       string    `json:"text"`
	Caption    string    `json:"caption"`
	Document   *Document `json:"document"`
	Video      *Video    `json:"video"`
	Audio      *Audio    `json:"audio"`
}

// Chat identifies a channel, group, or private conversation.
type Chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// User is a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Document is an attached file.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// Video is an attached video.
type Video struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// Audio is an attached audio track.
type Audio struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// CallbackQuery is a button press on an inline keyboard.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// InlineKeyboardButton is one button of an inline keyboard.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineKeyboardMarkup is the reply_markup payload for inline keyboards.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}
