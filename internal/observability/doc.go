// Package observability provides logging and the dispatch event log for
// docup. Events are persisted as JSON Lines (JSONL) and usage metrics are
// derived on demand from the log.
package observability
