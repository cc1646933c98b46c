// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

type fakeHTTPServer struct {
	started   atomic.Bool
	shutdown  atomic.Bool
	listenErr error
	closeCh   chan struct{}
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{closeCh: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	f.started.Store(true)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.closeCh
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdown.Store(true)
	close(f.closeCh)
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newFakeHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for !server.started.Load() {
		select {
		case <-deadline:
			t.Fatal("server never started")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
	if !server.shutdown.Load() {
		t.Error("Shutdown was not called")
	}
}

func TestHTTPServerServiceStartupFailure(t *testing.T) {
	server := newFakeHTTPServer()
	server.listenErr = errors.New("port in use")
	svc := NewHTTPServerService(server, time.Second)

	if err := svc.Serve(context.Background()); err == nil {
		t.Error("Serve() should surface listen errors")
	}
}

type fakeManager struct {
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
}

func (m *fakeManager) Start(context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started.Store(true)
	return nil
}

func (m *fakeManager) Stop() error {
	m.stopped.Store(true)
	return nil
}

func TestStartStopService(t *testing.T) {
	mgr := &fakeManager{}
	svc := NewStartStopService(mgr, "scheduler")

	if got := svc.String(); got != "scheduler" {
		t.Errorf("String() = %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for !mgr.started.Load() {
		select {
		case <-deadline:
			t.Fatal("manager never started")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return")
	}
	if !mgr.stopped.Load() {
		t.Error("Stop was not called")
	}
}

func TestStartStopServiceStartFailure(t *testing.T) {
	mgr := &fakeManager{startErr: errors.New("boom")}
	svc := NewStartStopService(mgr, "scheduler")

	if err := svc.Serve(context.Background()); err == nil {
		t.Error("Serve() should surface start errors")
	}
	if mgr.stopped.Load() {
		t.Error("Stop should not run when Start failed")
	}
}
