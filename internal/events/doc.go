// Package events provides types and interfaces for an event-driven architecture.
//
// Services emit events after their writes commit, without knowing which
// handlers will process them. The review service emits ProgressChangedEvent
// whenever a learning progress record changes; the read cache listens for it
// to drop stale queues and statistics.
package events
