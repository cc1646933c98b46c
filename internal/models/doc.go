// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package models defines the domain entities shared across Managarr:
// synced media snapshots, deletion rules, pending deletions and their
// lifecycle, execution history, bus events, and the API response envelope.
//
// The package holds data and derivation helpers only. Persistence lives in
// internal/database, matching logic in internal/rules, state transitions in
// internal/lifecycle.
package models
