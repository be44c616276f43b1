package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"autocaption/internal/model"
	"autocaption/pkg/logger"

	"go.uber.org/zap"
)

// Manager is the per-chat configuration store: caption templates, text
// rules, button markup, and the known-user registry, each keyed by chat or
// user id. All access goes through the mutex; getters hand out copies so
// callers can never mutate shared state. A background routine flushes a JSON
// snapshot to disk whenever the store is dirty.
type Manager struct {
	cfg      *model.StoreConfig
	captions map[int64]*model.CaptionRecord
	rules    map[int64]*model.TextRules
	buttons  map[int64]*model.ButtonRecord
	users    map[int64]*model.KnownUser
	mu       sync.RWMutex
	dirty    bool
	quitChan chan bool
}

// snapshot is the on-disk shape of the store.
type snapshot struct {
	Captions []model.CaptionRecord `json:"captions"`
	Rules    []model.TextRules     `json:"text_rules"`
	Buttons  []model.ButtonRecord  `json:"buttons"`
	Users    []model.KnownUser     `json:"users"`
}

// NewManager creates a new store manager
func NewManager(cfg *model.StoreConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		captions: make(map[int64]*model.CaptionRecord),
		rules:    make(map[int64]*model.TextRules),
		buttons:  make(map[int64]*model.ButtonRecord),
		users:    make(map[int64]*model.KnownUser),
		quitChan: make(chan bool),
	}
}

// Load reads the snapshot file, if one exists, into the store.
func (m *Manager) Load() error {
	raw, err := os.ReadFile(m.cfg.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range snap.Captions {
		rec := snap.Captions[i]
		m.captions[rec.ChatID] = &rec
	}
	for i := range snap.Rules {
		rec := snap.Rules[i]
		m.rules[rec.ChatID] = &rec
	}
	for i := range snap.Buttons {
		rec := snap.Buttons[i]
		m.buttons[rec.ChatID] = &rec
	}
	for i := range snap.Users {
		rec := snap.Users[i]
		m.users[rec.UserID] = &rec
	}

	if logger.Logger == nil {
		return nil
	}
	logger.Logger.Info("Store snapshot loaded",
		zap.String("path", m.cfg.SnapshotPath),
		zap.Int("captions", len(m.captions)),
		zap.Int("text_rules", len(m.rules)),
		zap.Int("buttons", len(m.buttons)),
		zap.Int("users", len(m.users)))
	return nil
}

// Start starts the snapshot flush routine
func (m *Manager) Start() {
	go m.flushRoutine()
}

// Stop stops the flush routine and writes a final snapshot.
func (m *Manager) Stop() {
	select {
	case m.quitChan <- true:
	default:
		if logger.Logger != nil {
			logger.Logger.Warn("Could not send stop signal to flush routine")
		}
	}
	if err := m.Flush(); err != nil && logger.Logger != nil {
		logger.Logger.Error("Final store flush failed", zap.Error(err))
	}
}

// flushRoutine periodically writes the snapshot when the store is dirty.
func (m *Manager) flushRoutine() {
	ticker := time.NewTicker(time.Duration(m.cfg.FlushInterval) * time.Second)
	defer ticker.Stop()

	if logger.Logger != nil {
		logger.Logger.Info("Store flush routine started",
			zap.Int("flush_interval_seconds", m.cfg.FlushInterval),
			zap.String("snapshot_path", m.cfg.SnapshotPath))
	}

	for {
		select {
		case <-m.quitChan:
			if logger.Logger != nil {
				logger.Logger.Info("Store flush routine stopped")
			}
			return
		case <-ticker.C:
			m.mu.RLock()
			dirty := m.dirty
			m.mu.RUnlock()
			if !dirty {
				continue
			}
			if err := m.Flush(); err != nil && logger.Logger != nil {
				logger.Logger.Error("Store flush failed", zap.Error(err))
			}
		}
	}
}

// Flush writes the current snapshot to disk.
func (m *Manager) Flush() error {
	m.mu.Lock()
	snap := snapshot{}
	for _, rec := range m.captions {
		snap.Captions = append(snap.Captions, *rec)
	}
	for _, rec := range m.rules {
		snap.Rules = append(snap.Rules, *copyRules(rec))
	}
	for _, rec := range m.buttons {
		snap.Buttons = append(snap.Buttons, *rec)
	}
	for _, rec := range m.users {
		snap.Users = append(snap.Users, *rec)
	}
	m.dirty = false
	m.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.cfg.SnapshotPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(m.cfg.SnapshotPath, data, 0o644)
}

// Caption returns a copy of the caption record for a chat, or nil.
func (m *Manager) Caption(chatID int64) *model.CaptionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.captions[chatID]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// PutCaption upserts the caption record for a chat.
func (m *Manager) PutCaption(rec *model.CaptionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.captions[rec.ChatID] = &cp
	m.dirty = true
}

// DeleteCaption removes the caption record for a chat.
func (m *Manager) DeleteCaption(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.captions, chatID)
	m.dirty = true
}

// CaptionsByOwner returns all caption records set by a user.
func (m *Manager) CaptionsByOwner(userID int64) []model.CaptionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.CaptionRecord
	for _, rec := range m.captions {
		if rec.OwnerID == userID {
			out = append(out, *rec)
		}
	}
	return out
}

// Rules returns a deep copy of the text rules for a chat, or nil.
func (m *Manager) Rules(chatID int64) *model.TextRules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.rules[chatID]
	if !ok {
		return nil
	}
	return copyRules(rec)
}

// PutRules upserts the text rules for a chat.
func (m *Manager) PutRules(rec *model.TextRules) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rec.ChatID] = copyRules(rec)
	m.dirty = true
}

// DeleteRules removes the text rules for a chat.
func (m *Manager) DeleteRules(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, chatID)
	m.dirty = true
}

// Buttons returns a copy of the button record for a chat, or nil.
func (m *Manager) Buttons(chatID int64) *model.ButtonRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.buttons[chatID]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// PutButtons upserts the button record for a chat.
func (m *Manager) PutButtons(rec *model.ButtonRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.buttons[rec.ChatID] = &cp
	m.dirty = true
}

// DeleteButtons removes the button record for a chat.
func (m *Manager) DeleteButtons(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buttons, chatID)
	m.dirty = true
}

// SaveUser upserts a known user for broadcast and stats.
func (m *Manager) SaveUser(user model.KnownUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := user
	m.users[user.UserID] = &cp
	m.dirty = true
}

// Users returns all known users.
func (m *Manager) Users() []model.KnownUser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.KnownUser, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out
}

// Counts returns record counts for stats reporting.
func (m *Manager) Counts() model.StoreCounts {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.StoreCounts{
		Captions: len(m.captions),
		Rules:    len(m.rules),
		Buttons:  len(m.buttons),
		Users:    len(m.users),
	}
}

// copyRules deep-copies a rules record so slice mutations never leak.
func copyRules(rec *model.TextRules) *model.TextRules {
	cp := *rec
	cp.Removals = append([]string(nil), rec.Removals...)
	cp.Replacements = append([]model.Replacement(nil), rec.Replacements...)
	return &cp
}
