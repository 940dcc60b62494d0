// Package events publishes task lifecycle events (created, updated, deleted)
// to in-process handlers. Emission happens after the change is committed;
// a failing handler is logged and never undoes the change.
package events
