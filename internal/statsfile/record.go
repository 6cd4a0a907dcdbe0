// Package statsfile writes completed-session records to disk as CSV or JSON
// and reads them back.
package statsfile

import (
	"errors"
	"path/filepath"
	"time"

	"aimy/internal/config"
	"aimy/internal/stats"

	"github.com/google/uuid"
)

var ErrUnknownFormat = errors.New("unknown stats format")

type Format string

const (
	FormatJSON = Format("json")
	FormatCSV  = Format("csv")
)

const (
	csvName    = "aimy-stats.csv"
	jsonPrefix = "aimy-stats-"
)

// isoMillis matches the ISO-8601 UTC form with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Record is one completed session plus the settings it was played with.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	stats.Summary
	Settings config.Settings `json:"settings"`
}

func NewRecord(s stats.Summary, settings config.Settings, at time.Time) Record {
	return Record{
		ID:        uuid.New().String(),
		Timestamp: at.UTC().Truncate(time.Millisecond),
		Summary:   s,
		Settings:  settings,
	}
}

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	}
	return "", ErrUnknownFormat
}

// ResolveDir picks the output directory: an absolute configured path as is,
// a relative one under workDir, and home/.aimy when nothing is configured.
func ResolveDir(configured, workDir, home string) string {
	switch {
	case configured == "":
		return filepath.Join(home, ".aimy")
	case filepath.IsAbs(configured):
		return configured
	default:
		return filepath.Join(workDir, configured)
	}
}
