// Package ingest decides, for each incoming event submission, whether it
// describes an event already on record and which venue row it belongs to.
// Deduplication is keyed on a deterministic content fingerprint; venue
// resolution falls back from exact name match to fuzzy similarity.
package ingest
