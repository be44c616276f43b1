package service

import (
	"regexp"
	"strings"

	"autocaption/internal/model"
	"autocaption/internal/storage"
	"autocaption/pkg/logger"

	"go.uber.org/zap"
)

// blankLineRun matches two newlines with only whitespace between them.
// Replacing with "\n\n" collapses any run of blank lines to a single one.
var blankLineRun = regexp.MustCompile(`\n\s*\n`)

// Rule kinds accepted by RemoveRule.
const (
	RuleKindRemove  = "remove"
	RuleKindReplace = "replace"
)

// TextRulesService applies and manages per-chat text editing rules.
type TextRulesService struct {
	store *storage.Manager
}

// NewTextRulesService creates a new text rules service
func NewTextRulesService(store *storage.Manager) *TextRulesService {
	return &TextRulesService{store: store}
}

// Apply runs the rule chain over a caption: removals in stored order, then
// replacements in insertion order, then blank-line cleanup. Replacements are
// sequential, so a later rule can match the output of an earlier one; that
// chaining is intentional. When rules overlap (one target a substring of
// another) the result is order-dependent and no stronger guarantee is made.
func (s *TextRulesService) Apply(text string, rules *model.TextRules) string {
	if rules == nil {
		return text
	}

	for _, target := range rules.Removals {
		text = strings.ReplaceAll(text, target, "")
	}

	for _, r := range rules.Replacements {
		text = strings.ReplaceAll(text, r.Old, r.New)
	}

	// Clean up extra blank lines and surrounding whitespace
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Rules returns the stored rules for a chat, or nil when none are configured.
func (s *TextRulesService) Rules(chatID int64) *model.TextRules {
	return s.store.Rules(chatID)
}

// AddRemoval adds a removal target to a chat's rule set. Adding the same
// target twice is a no-op. The first setter becomes the record owner.
func (s *TextRulesService) AddRemoval(chatID int64, target string, userID int64, username string) {
	rules := s.store.Rules(chatID)
	if rules == nil {
		rules = &model.TextRules{ChatID: chatID, OwnerID: userID, OwnerName: username}
	}

	for _, existing := range rules.Removals {
		if existing == target {
			return
		}
	}
	rules.Removals = append(rules.Removals, target)
	s.store.PutRules(rules)

	logger.Logger.Info("Removal rule added",
		zap.Int64("chat_id", chatID),
		zap.String("target", target),
		zap.Int64("user_id", userID))
}

// AddReplacement upserts a replacement rule keyed by its old text. Insertion
// order is preserved; updating an existing rule keeps its position.
func (s *TextRulesService) AddReplacement(chatID int64, oldText, newText string, userID int64, username string) {
	rules := s.store.Rules(chatID)
	if rules == nil {
		rules = &model.TextRules{ChatID: chatID, OwnerID: userID, OwnerName: username}
	}

	updated := false
	for i, r := range rules.Replacements {
		if r.Old == oldText {
			rules.Replacements[i].New = newText
			updated = true
			break
		}
	}
	if !updated {
		rules.Replacements = append(rules.Replacements, model.Replacement{Old: oldText, New: newText})
	}
	s.store.PutRules(rules)

	logger.Logger.Info("Replacement rule added",
		zap.Int64("chat_id", chatID),
		zap.String("old", oldText),
		zap.String("new", newText),
		zap.Int64("user_id", userID))
}

// RemoveRule deletes a single rule of the given kind. It fails with
// ErrNotFound when no record or no such rule exists, and ErrNotOwner when
// the acting user did not create the record.
func (s *TextRulesService) RemoveRule(chatID int64, kind, value string, userID int64) error {
	rules := s.store.Rules(chatID)
	if rules == nil {
		return model.ErrNotFound
	}
	if rules.OwnerID != userID {
		return model.ErrNotOwner
	}

	switch kind {
	case RuleKindRemove:
		for i, target := range rules.Removals {
			if target == value {
				rules.Removals = append(rules.Removals[:i], rules.Removals[i+1:]...)
				s.store.PutRules(rules)
				return nil
			}
		}
	case RuleKindReplace:
		for i, r := range rules.Replacements {
			if r.Old == value {
				rules.Replacements = append(rules.Replacements[:i], rules.Replacements[i+1:]...)
				s.store.PutRules(rules)
				return nil
			}
		}
	}
	return model.ErrNotFound
}

// ClearRules deletes the whole rule record for a chat, owner only.
func (s *TextRulesService) ClearRules(chatID int64, userID int64) error {
	rules := s.store.Rules(chatID)
	if rules == nil {
		return model.ErrNotFound
	}
	if rules.OwnerID != userID {
		return model.ErrNotOwner
	}

	s.store.DeleteRules(chatID)
	logger.Logger.Info("Text rules cleared", zap.Int64("chat_id", chatID), zap.Int64("user_id", userID))
	return nil
}
