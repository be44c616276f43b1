package service

import (
	"regexp"
	"strings"

	"autocaption/internal/model"
	"autocaption/internal/storage"
	"autocaption/pkg/logger"
	"autocaption/pkg/validator"

	"go.uber.org/zap"
)

// buttonPattern matches one [Label][buttonurl:URL] token, non-greedy so
// several tokens on one line parse independently.
var buttonPattern = regexp.MustCompile(`\[(.*?)\]\[buttonurl:(.*?)\]`)

// ButtonService parses button markup and manages per-chat button records.
type ButtonService struct {
	store *storage.Manager
}

// NewButtonService creates a new button service
func NewButtonService(store *storage.Manager) *ButtonService {
	return &ButtonService{store: store}
}

// ParseButtons parses button markup into an ordered button list. Pairs whose
// URL does not use an accepted prefix are silently dropped. Returns nil when
// nothing valid was found; callers treat nil as "no buttons to attach"
// whether the markup was empty or entirely malformed.
func (s *ButtonService) ParseButtons(markup string) []model.Button {
	var buttons []model.Button
	for _, m := range buttonPattern.FindAllStringSubmatch(markup, -1) {
		label := strings.TrimSpace(m[1])
		url := strings.TrimSpace(m[2])
		if !validator.AllowedButtonURL(url) {
			continue
		}
		buttons = append(buttons, model.Button{Label: label, URL: url})
	}
	return buttons
}

// SetButtons stores button markup for a chat after validating that it yields
// at least one button. The first setter becomes the record owner.
func (s *ButtonService) SetButtons(chatID int64, markup string, userID int64, username string) error {
	if s.ParseButtons(markup) == nil {
		return model.ErrInvalidMarkup
	}

	owner, ownerName := userID, username
	if existing := s.store.Buttons(chatID); existing != nil {
		owner, ownerName = existing.OwnerID, existing.OwnerName
	}
	s.store.PutButtons(&model.ButtonRecord{
		ChatID:    chatID,
		Markup:    markup,
		OwnerID:   owner,
		OwnerName: ownerName,
	})

	logger.Logger.Info("Custom buttons set", zap.Int64("chat_id", chatID), zap.Int64("user_id", userID))
	return nil
}

// Buttons returns the stored button record for a chat, or nil.
func (s *ButtonService) Buttons(chatID int64) *model.ButtonRecord {
	return s.store.Buttons(chatID)
}

// ButtonsFor parses a chat's stored markup, or nil when none is configured.
func (s *ButtonService) ButtonsFor(chatID int64) []model.Button {
	rec := s.store.Buttons(chatID)
	if rec == nil {
		return nil
	}
	return s.ParseButtons(rec.Markup)
}

// RemoveButtons deletes the button record for a chat, owner only.
func (s *ButtonService) RemoveButtons(chatID int64, userID int64) error {
	rec := s.store.Buttons(chatID)
	if rec == nil {
		return model.ErrNotFound
	}
	if rec.OwnerID != userID {
		return model.ErrNotOwner
	}

	s.store.DeleteButtons(chatID)
	logger.Logger.Info("Custom buttons removed", zap.Int64("chat_id", chatID), zap.Int64("user_id", userID))
	return nil
}
