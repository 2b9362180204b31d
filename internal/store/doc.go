// Package store provides SQLite-backed durable storage for szerviz state.
//
// The store keeps three logical collections as JSON blobs in one table:
//   - settings:  ShopSettings (row absent until onboarding completes)
//   - records:   []ClientRecord
//   - templates: []string quick-text phrases
//
// # Critical Patterns
//
// Atomic snapshot writes
//   - Save rewrites all three rows in a single transaction
//   - A crash can never leave records and settings from different saves
//
// Per-collection recovery
//   - Load decodes each row independently
//   - A corrupt row falls back to its default and is reported, never fatal
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
