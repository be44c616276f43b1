package service

import (
	"sync"
	"time"

	"autocaption/internal/model"
	"autocaption/pkg/logger"

	"go.uber.org/zap"
)

// rateWindow tracks requests for one client IP within a one-minute window.
type rateWindow struct {
	Requests int
	ResetAt  time.Time
}

// RateLimitService throttles the admin API per client IP.
type RateLimitService struct {
	cfg      *model.RateLimitConfig
	windows  map[string]*rateWindow
	mu       sync.Mutex
	quitChan chan bool
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(cfg *model.RateLimitConfig) *RateLimitService {
	service := &RateLimitService{
		cfg:      cfg,
		windows:  make(map[string]*rateWindow),
		quitChan: make(chan bool),
	}

	if cfg.Enabled {
		go service.cleanupRoutine()
	}

	return service
}

// IsAllowed checks if an IP is allowed to make a request
func (rls *RateLimitService) IsAllowed(ip string) bool {
	if !rls.cfg.Enabled {
		return true
	}

	rls.mu.Lock()
	defer rls.mu.Unlock()

	now := time.Now()
	win, exists := rls.windows[ip]
	if !exists || now.After(win.ResetAt) {
		rls.windows[ip] = &rateWindow{Requests: 1, ResetAt: now.Add(time.Minute)}
		return true
	}

	win.Requests++
	if win.Requests > rls.cfg.RequestsPerMinute {
		logger.Logger.Warn("Rate limit exceeded",
			zap.String("ip", ip),
			zap.Int("requests", win.Requests),
			zap.Int("limit", rls.cfg.RequestsPerMinute))
		return false
	}
	return true
}

// GetRemaining returns remaining requests for IP in current window
func (rls *RateLimitService) GetRemaining(ip string) int {
	if !rls.cfg.Enabled {
		return -1 // Unlimited
	}

	rls.mu.Lock()
	defer rls.mu.Unlock()

	win, exists := rls.windows[ip]
	if !exists || time.Now().After(win.ResetAt) {
		return rls.cfg.RequestsPerMinute
	}

	remaining := rls.cfg.RequestsPerMinute - win.Requests
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// cleanupRoutine periodically drops windows that expired long ago.
func (rls *RateLimitService) cleanupRoutine() {
	ticker := time.NewTicker(time.Duration(rls.cfg.CleanupInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-rls.quitChan:
			logger.Logger.Info("Rate limit service stopped")
			return
		case <-ticker.C:
			rls.cleanup()
		}
	}
}

func (rls *RateLimitService) cleanup() {
	rls.mu.Lock()
	defer rls.mu.Unlock()

	now := time.Now()
	removed := 0
	for ip, win := range rls.windows {
		if now.Sub(win.ResetAt) > 2*time.Hour {
			delete(rls.windows, ip)
			removed++
		}
	}
	if removed > 0 {
		logger.Logger.Debug("Rate limit entries cleaned up", zap.Int("removed", removed), zap.Int("remaining", len(rls.windows)))
	}
}

// Stop stops the rate limit service
func (rls *RateLimitService) Stop() {
	if rls.cfg.Enabled {
		rls.quitChan <- true
	}
}
