// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify delivers operator notifications.
package notify

import (
	"context"
	"log/slog"
)

// Notifier sends a plain-text message to one recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogNotifier writes messages to the log instead of sending them. It is
// used when no SMTP server is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// Send logs the message.
func (n LogNotifier) Send(_ context.Context, to, subject, body string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "to", to, "subject", subject, "body", body)
	return nil
}
