// Package export writes call logs as csv or xlsx (optionally xz-compressed)
// and reads gym rosters for bulk assignment.
package export
