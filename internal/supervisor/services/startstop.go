// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package services

import (
	"context"
	"fmt"
)

// StartStopManager is the Start/Stop lifecycle implemented by the scheduler
// and similar long-running components.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// StartStopService adapts a Start/Stop component to suture's Serve pattern:
// Start on entry, block until the context ends, Stop on the way out.
type StartStopService struct {
	manager StartStopManager
	name    string
}

// NewStartStopService wraps a Start/Stop component for supervision. name
// identifies the service in supervision logs.
func NewStartStopService(manager StartStopManager, name string) *StartStopService {
	return &StartStopService{manager: manager, name: name}
}

// Serve implements suture.Service. A Start failure returns immediately so
// suture can apply its restart policy.
func (s *StartStopService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervision logs.
func (s *StartStopService) String() string { return s.name }
