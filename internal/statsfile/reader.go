package statsfile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ReadJSON loads a record written in the JSON format.
func ReadJSON(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}

// ReadCSV loads every row of a CSV stats file. Columns are matched by
// header name, so files with extra columns still load. The CSV format does
// not carry record ids.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	out := make([]Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rec, err := parseRow(col, row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, n+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

type rowReader struct {
	col map[string]int
	row []string
	err error
}

func (r *rowReader) str(name string) string {
	i, ok := r.col[name]
	if !ok || i >= len(r.row) {
		return ""
	}
	return r.row[i]
}

func (r *rowReader) intCol(name string) int {
	s := r.str(name)
	if s == "" || r.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func (r *rowReader) boolCol(name string) bool {
	s := r.str(name)
	if s == "" || r.err != nil {
		return false
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return v
}

func parseRow(col map[string]int, row []string) (Record, error) {
	r := &rowReader{col: col, row: row}
	var rec Record

	ts, err := time.Parse(isoMillis, r.str("timestamp"))
	if err != nil {
		return Record{}, fmt.Errorf("timestamp: %w", err)
	}
	rec.Timestamp = ts
	rec.Score = r.intCol("score")
	rec.Time = r.intCol("time")
	rec.Accuracy = r.intCol("accuracy")
	rec.BestStreak = r.intCol("bestStreak")
	rec.GameMode = r.str("gameMode")

	st := &rec.Settings
	st.Difficulty = r.str("difficulty")
	st.TargetGoals = r.intCol("targetGoals")
	st.TargetMove = r.boolCol("targetMove")
	st.TargetSpeed = r.intCol("targetSpeed")
	st.TargetSize = r.intCol("targetSize")
	st.TargetTimeExists = r.intCol("targetTimeExists")
	st.GameMode = r.str("configuredGameMode")
	st.TimeFrenzyDuration = r.intCol("timeFrenzyDuration")
	st.HydraMode = r.str("hydraMode")
	st.HydraTargetCount = r.intCol("hydraTargetCount")
	st.HydraTotalTime = r.intCol("hydraTotalTime")
	st.EnableSoundEffects = r.boolCol("enableSoundEffects")
	st.SoundVolume = r.intCol("soundVolume")
	st.EnableEffects = r.boolCol("enableEffects")
	st.IdleTimer = r.intCol("idleTimer")
	st.CloseWorkspaceOnGameStart = r.boolCol("closeWorkspaceOnGameStart")

	if r.err != nil {
		return Record{}, r.err
	}
	return rec, nil
}
