package service

import (
	"autocaption/internal/model"
	"autocaption/internal/storage"
	"autocaption/pkg/logger"

	"go.uber.org/zap"
)

// CaptionService owns per-chat caption templates and runs the caption
// pipeline: extract fields, render the template, apply text rules, parse
// buttons. The pipeline is pure with respect to its inputs; all store reads
// happen before it runs.
type CaptionService struct {
	store    *storage.Manager
	extract  *ExtractService
	template *TemplateService
	rules    *TextRulesService
	buttons  *ButtonService
}

// NewCaptionService creates a new caption service
func NewCaptionService(store *storage.Manager, es *ExtractService, ts *TemplateService, rs *TextRulesService, bs *ButtonService) *CaptionService {
	return &CaptionService{
		store:    store,
		extract:  es,
		template: ts,
		rules:    rs,
		buttons:  bs,
	}
}

// BuildCaption runs the full pipeline for one media event. Buttons are
// parsed from the markup independently of the caption text. A nil rules
// pointer or empty markup skips the corresponding stage.
func (s *CaptionService) BuildCaption(template string, meta model.FileMetadata, rules *model.TextRules, markup string) (string, []model.Button) {
	caption := s.template.Render(template, meta)
	caption = s.rules.Apply(caption, rules)
	buttons := s.buttons.ParseButtons(markup)
	return caption, buttons
}

// BuildForChat resolves a chat's stored configuration and runs the pipeline
// for a filename/size pair. Returns ErrNotFound when the chat has no caption
// template configured.
func (s *CaptionService) BuildForChat(chatID int64, filename string, sizeBytes int64) (string, []model.Button, error) {
	rec := s.store.Caption(chatID)
	if rec == nil {
		return "", nil, model.ErrNotFound
	}

	meta := s.extract.Extract(filename, sizeBytes)
	rules := s.store.Rules(chatID)

	markup := ""
	if btn := s.store.Buttons(chatID); btn != nil {
		markup = btn.Markup
	}

	caption, buttons := s.BuildCaption(rec.Template, meta, rules, markup)
	return caption, buttons, nil
}

// Caption returns the stored caption record for a chat, or nil.
func (s *CaptionService) Caption(chatID int64) *model.CaptionRecord {
	return s.store.Caption(chatID)
}

// CaptionsByOwner returns every caption record a user has set.
func (s *CaptionService) CaptionsByOwner(userID int64) []model.CaptionRecord {
	return s.store.CaptionsByOwner(userID)
}

// SetCaption upserts the caption template for a chat. The first setter
// becomes the record owner; later updates keep the original owner.
func (s *CaptionService) SetCaption(chatID int64, template, chatTitle string, userID int64, username string) {
	owner, ownerName := userID, username
	if existing := s.store.Caption(chatID); existing != nil {
		owner, ownerName = existing.OwnerID, existing.OwnerName
	}
	s.store.PutCaption(&model.CaptionRecord{
		ChatID:    chatID,
		Template:  template,
		ChatTitle: chatTitle,
		OwnerID:   owner,
		OwnerName: ownerName,
	})

	logger.Logger.Info("Caption set", zap.Int64("chat_id", chatID), zap.Int64("user_id", userID))
}

// RemoveCaption deletes the caption record for a chat, owner only.
func (s *CaptionService) RemoveCaption(chatID int64, userID int64) error {
	rec := s.store.Caption(chatID)
	if rec == nil {
		return model.ErrNotFound
	}
	if rec.OwnerID != userID {
		return model.ErrNotOwner
	}

	s.store.DeleteCaption(chatID)
	logger.Logger.Info("Caption removed", zap.Int64("chat_id", chatID), zap.Int64("user_id", userID))
	return nil
}
