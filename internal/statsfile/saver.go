package statsfile

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

var csvHeader = []string{
	"timestamp",
	"score",
	"time",
	"accuracy",
	"bestStreak",
	"gameMode",

	"difficulty",
	"targetGoals",
	"targetMove",
	"targetSpeed",
	"targetSize",
	"targetTimeExists",

	"configuredGameMode",
	"timeFrenzyDuration",
	"hydraMode",
	"hydraTargetCount",
	"hydraTotalTime",

	"enableSoundEffects",
	"soundVolume",
	"enableEffects",

	"idleTimer",
	"closeWorkspaceOnGameStart",
}

// Saver persists records under one directory. Save is safe for concurrent use.
type Saver struct {
	mu     sync.Mutex
	dir    string
	format Format
}

func NewSaver(dir string, format Format) (*Saver, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, fmt.Errorf("%w: %q", err, format)
	}
	return &Saver{dir: dir, format: format}, nil
}

func (s *Saver) Dir() string {
	return s.dir
}

// Save writes rec and returns the path written to.
func (s *Saver) Save(rec Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create stats dir: %w", err)
	}
	if s.format == FormatCSV {
		return s.appendCSV(rec)
	}
	return s.writeJSON(rec)
}

func (s *Saver) appendCSV(rec Record) (string, error) {
	path := filepath.Join(s.dir, csvName)
	_, err := os.Stat(path)
	fresh := errors.Is(err, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(csvHeader); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(csvRow(rec)); err != nil {
		return "", fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	return path, nil
}

func (s *Saver) writeJSON(rec Record) (string, error) {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(rec.Timestamp.UTC().Format(isoMillis))
	path := filepath.Join(s.dir, jsonPrefix+stamp+".json")

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func csvRow(rec Record) []string {
	st := rec.Settings
	return []string{
		rec.Timestamp.UTC().Format(isoMillis),
		strconv.Itoa(rec.Score),
		strconv.Itoa(rec.Time),
		strconv.Itoa(rec.Accuracy),
		strconv.Itoa(rec.BestStreak),
		rec.GameMode,

		st.Difficulty,
		strconv.Itoa(st.TargetGoals),
		strconv.FormatBool(st.TargetMove),
		strconv.Itoa(st.TargetSpeed),
		strconv.Itoa(st.TargetSize),
		strconv.Itoa(st.TargetTimeExists),

		st.GameMode,
		strconv.Itoa(st.TimeFrenzyDuration),
		st.HydraMode,
		strconv.Itoa(st.HydraTargetCount),
		strconv.Itoa(st.HydraTotalTime),

		strconv.FormatBool(st.EnableSoundEffects),
		strconv.Itoa(st.SoundVolume),
		strconv.FormatBool(st.EnableEffects),

		strconv.Itoa(st.IdleTimer),
		strconv.FormatBool(st.CloseWorkspaceOnGameStart),
	}
}
