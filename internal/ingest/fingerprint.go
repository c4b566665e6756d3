package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	apperrors "github.com/sabyjs3-beep/tctp/internal/errors"
)

const calendarDateLayout = "2006-01-02"

// Fingerprint computes the deduplication key for an event: the SHA-256 hex
// digest of the pipe-joined triple of normalized title, normalized venue name,
// and the calendar-date prefix of isoDate. Two submissions with the same
// fingerprint denote the same real-world event regardless of casing,
// punctuation, or submission order.
//
// The date must open with a parseable YYYY-MM-DD; anything else is a
// validation error, never coerced to today.
func Fingerprint(title, venueName, isoDate string) (string, error) {
	if len(isoDate) < len(calendarDateLayout) {
		return "", apperrors.ValidationError("date must be an ISO-8601 date").WithField("date", isoDate)
	}
	day := isoDate[:len(calendarDateLayout)]
	if _, err := time.Parse(calendarDateLayout, day); err != nil {
		return "", apperrors.ValidationError("date must be an ISO-8601 date").WithField("date", isoDate)
	}

	raw := Normalize(title) + "|" + Normalize(venueName) + "|" + day
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:]), nil
}
