// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic housekeeping: pruning the audit log and
// removing stale CSV exports.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
)

// DefaultSchedule runs housekeeping once an hour.
const DefaultSchedule = "@hourly"

// Config controls what housekeeping removes. A zero retention disables
// that job.
type Config struct {
	Schedule        string
	EventRetention  time.Duration
	ExportRetention time.Duration
	ExportsDir      string
}

// Scheduler runs housekeeping jobs on a cron schedule.
type Scheduler struct {
	queries *store.Queries
	cron    *cron.Cron
	logger  *slog.Logger
	cfg     Config
	now     func() time.Time
}

// New creates a new scheduler instance.
func New(db *sql.DB, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queries: store.New(db),
		cron:    cron.New(),
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the housekeeping job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.cfg.Schedule, "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	events, err := s.PruneEvents(ctx)
	if err != nil {
		s.logger.Error("failed to prune events", "error", err)
	}
	exports, err := s.PruneExports()
	if err != nil {
		s.logger.Error("failed to prune exports", "error", err)
	}

	if events == 0 && exports == 0 {
		return
	}
	s.logger.Info("housekeeping finished", "events_removed", events, "exports_removed", exports)
	s.record(ctx, events, exports)
}

// PruneEvents deletes audit events older than the event retention.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	if s.cfg.EventRetention <= 0 {
		return 0, nil
	}
	n, err := s.queries.DeleteEventsBefore(ctx, s.now().Add(-s.cfg.EventRetention))
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	return n, nil
}

// PruneExports removes export files older than the export retention. Files
// that do not look like exports are left alone.
func (s *Scheduler) PruneExports() (int, error) {
	if s.cfg.ExportRetention <= 0 || s.cfg.ExportsDir == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(s.cfg.ExportsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading exports directory: %w", err)
	}

	cutoff := s.now().Add(-s.cfg.ExportRetention)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !isExportFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.ExportsDir, e.Name())); err != nil {
			s.logger.Warn("failed to remove export", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func isExportFile(name string) bool {
	return strings.HasPrefix(name, "form_submissions_") && strings.HasSuffix(name, ".csv")
}

// record writes a system event summarizing a housekeeping run.
func (s *Scheduler) record(ctx context.Context, events int64, exports int) {
	metadata, _ := json.Marshal(map[string]any{
		"events_removed":  events,
		"exports_removed": exports,
	})
	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategorySystem,
		Message:   "Housekeeping removed expired data",
		Metadata:  string(metadata),
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to log housekeeping event", "error", err)
	}
}
