package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/docinsight/internal/common"
	"github.com/ternarybob/docinsight/internal/interfaces"
	"github.com/ternarybob/docinsight/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// exchangePurger is implemented by audit stores that support retention
type exchangePurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) error
}

// Manager is the registry of live conversations, one per browser session
type Manager struct {
	deps      Dependencies
	idleTTL   time.Duration // 0 disables expiry
	retention time.Duration // 0 keeps audit records forever
	schedule  string
	logger    arbor.ILogger

	mu       sync.RWMutex
	sessions map[string]*Controller

	cron    *cron.Cron
	running bool
}

// NewManager creates a session registry
func NewManager(deps Dependencies, sessionConfig common.SessionConfig, auditConfig common.AuditConfig, logger arbor.ILogger) *Manager {
	return &Manager{
		deps:      deps,
		idleTTL:   common.ParseDurationOr(sessionConfig.IdleTTL, 0),
		retention: common.ParseDurationOr(auditConfig.Retention, 0),
		schedule:  sessionConfig.SweepSchedule,
		logger:    logger,
		sessions:  make(map[string]*Controller),
		cron:      cron.New(),
	}
}

// Create registers a new empty session
func (m *Manager) Create(ctx context.Context) *Controller {
	ctrl := NewController(common.NewSessionID(), m.deps, m.logger)

	m.mu.Lock()
	m.sessions[ctrl.ID()] = ctrl
	total := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info().Str("session_id", ctrl.ID()).Int("sessions", total).Msg("Session created")
	ctrl.publish(ctx, interfaces.EventSessionCreated, ctrl.Snapshot())
	return ctrl
}

// Get returns the session with the given ID
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ctrl, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return ctrl, nil
}

// Delete drops a session. An in-flight request finishes against the orphaned controller.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)

	m.logger.Info().Str("session_id", id).Msg("Session deleted")
	return nil
}

// List returns snapshots of every live session, oldest first
func (m *Manager) List() []models.SessionSnapshot {
	m.mu.RLock()
	ctrls := make([]*Controller, 0, len(m.sessions))
	for _, ctrl := range m.sessions {
		ctrls = append(ctrls, ctrl)
	}
	m.mu.RUnlock()

	snaps := make([]models.SessionSnapshot, 0, len(ctrls))
	for _, ctrl := range ctrls {
		snaps = append(snaps, ctrl.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL and purges expired audit records.
// Sessions waiting on an answer are never dropped. Returns the number of sessions removed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.deps.Clock.Now()
	var expired []*Controller

	if m.idleTTL > 0 {
		m.mu.Lock()
		for id, ctrl := range m.sessions {
			updatedAt, pending := ctrl.idleSince()
			if pending || now.Sub(updatedAt) < m.idleTTL {
				continue
			}
			delete(m.sessions, id)
			expired = append(expired, ctrl)
		}
		m.mu.Unlock()
	}

	for _, ctrl := range expired {
		m.logger.Info().Str("session_id", ctrl.ID()).Msg("Session expired")
		ctrl.publish(ctx, interfaces.EventSessionExpired, ctrl.Snapshot())
	}

	if m.retention > 0 {
		if purger, ok := m.deps.Audit.(exchangePurger); ok {
			if err := purger.PurgeOlderThan(ctx, now.Add(-m.retention)); err != nil {
				m.logger.Warn().Err(err).Msg("Failed to purge audit records")
			}
		}
	}

	if len(expired) > 0 {
		m.logger.Debug().Int("expired", len(expired)).Int("remaining", m.Count()).Msg("Session sweep complete")
	}
	return len(expired)
}

// Start schedules the sweeper. An empty schedule leaves it disabled.
func (m *Manager) Start() error {
	if m.schedule == "" {
		m.logger.Debug().Msg("Session sweeper disabled")
		return nil
	}

	if _, err := m.cron.AddFunc(m.schedule, func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Session sweep panicked")
			}
		}()
		m.Sweep(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule session sweeper: %w", err)
	}

	m.cron.Start()
	m.running = true
	m.logger.Info().Str("schedule", m.schedule).Dur("idle_ttl", m.idleTTL).Msg("Session sweeper started")
	return nil
}

// Stop halts the sweeper and waits for a running sweep to finish
func (m *Manager) Stop() {
	if !m.running {
		return
	}
	<-m.cron.Stop().Done()
	m.running = false
	m.logger.Debug().Msg("Session sweeper stopped")
}
