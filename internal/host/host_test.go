package host

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"aimy/internal/analytics"
	"aimy/internal/clock"
	"aimy/internal/config"
	"aimy/internal/db"
	"aimy/internal/events"
	"aimy/internal/gamedata"
	"aimy/internal/modes"
	"aimy/internal/stats"
	"aimy/internal/statsfile"
	"aimy/internal/targets"
)

var epoch = time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

type award struct {
	player  string
	badge   string
	session *string
}

type fakeStore struct {
	mu       sync.Mutex
	sessions []db.SessionRecord
	awards   []award
	err      error
}

func (f *fakeStore) RecordSession(_ context.Context, rec db.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sessions = append(f.sessions, rec)
	return nil
}

func (f *fakeStore) AwardBadge(_ context.Context, playerID, badgeID string, sessionID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awards = append(f.awards, award{playerID, badgeID, sessionID})
	return nil
}

type fakeAnalytics struct {
	bullseyes int
	sessions  int
}

func (f fakeAnalytics) FillShotStats(_ context.Context, s *analytics.SessionStats) error {
	s.Bullseyes = f.bullseyes
	return nil
}

func (f fakeAnalytics) GetPlayerLifetimeStats(_ context.Context, id string) (*analytics.PlayerLifetimeStats, error) {
	return &analytics.PlayerLifetimeStats{PlayerID: id, SessionsPlayed: f.sessions}, nil
}

type countingErrors struct {
	mu    sync.Mutex
	sinks []string
}

func (c *countingErrors) PersistError(sink string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, sink)
}

func saveSettings() config.Settings {
	s := config.DefaultSettings()
	s.EnableStatsSave = true
	return s
}

func TestPersist_File(t *testing.T) {
	dir := t.TempDir()
	saver, err := statsfile.NewSaver(dir, statsfile.FormatJSON)
	if err != nil {
		t.Fatalf("NewSaver: %v", err)
	}
	h := New(WithSaver(saver), WithClock(clock.NewManual(epoch)))

	sum := stats.Summary{Score: 7, Time: 12, Accuracy: 70, BestStreak: 4, GameMode: "target_rush"}
	n := h.Persist(context.Background(), Session{ID: "sess-1", Settings: saveSettings()}, sum)

	if len(n.Errors) != 0 {
		t.Fatalf("errors = %v", n.Errors)
	}
	if n.Stored {
		t.Error("Stored = true without a database")
	}
	if filepath.Dir(n.Path) != dir {
		t.Errorf("path = %s, want under %s", n.Path, dir)
	}
	rec, err := statsfile.ReadJSON(n.Path)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if rec.ID != "sess-1" || rec.Summary != sum || !rec.Timestamp.Equal(epoch) {
		t.Errorf("record = %+v", rec)
	}
}

func TestPersist_SaveDisabled(t *testing.T) {
	saver, _ := statsfile.NewSaver(t.TempDir(), statsfile.FormatCSV)
	h := New(WithSaver(saver))

	settings := saveSettings()
	settings.EnableStatsSave = false
	n := h.Persist(context.Background(), Session{ID: "s"}, stats.Summary{})
	if n.Path != "" {
		t.Errorf("path = %q, want none", n.Path)
	}
	n = h.Persist(context.Background(), Session{ID: "s", Settings: settings}, stats.Summary{})
	if n.Path != "" {
		t.Errorf("path = %q, want none", n.Path)
	}
}

func TestPersist_StoreAndBadges(t *testing.T) {
	store := &fakeStore{}
	h := New(WithStore(store, fakeAnalytics{bullseyes: 3, sessions: 10}), WithClock(clock.NewManual(epoch)))

	sum := stats.Summary{Score: 100, Time: 40, Accuracy: 100, BestStreak: 100, GameMode: "target_rush"}
	sess := Session{ID: "sess-2", PlayerID: "p1", RoomCode: "ABCD", Settings: config.DefaultSettings()}
	n := h.Persist(context.Background(), sess, sum)

	if !n.Stored || len(n.Errors) != 0 {
		t.Fatalf("notice = %+v", n)
	}
	if len(store.sessions) != 1 {
		t.Fatalf("sessions recorded = %d, want 1", len(store.sessions))
	}
	rec := store.sessions[0]
	if rec.ID != "sess-2" || rec.PlayerID != "p1" || rec.RoomCode != "ABCD" || rec.Score != 100 ||
		rec.Difficulty != "Normal" || !rec.EndedAt.Equal(epoch) || len(rec.Settings) == 0 {
		t.Errorf("record = %+v", rec)
	}

	want := map[string]bool{
		string(analytics.BadgeFlawless):    true,
		string(analytics.BadgeUnstoppable): true,
		string(analytics.BadgeCenturion):   true,
		string(analytics.BadgeVeteran):     false,
	}
	if len(store.awards) != len(want) {
		t.Fatalf("awards = %+v, want %d", store.awards, len(want))
	}
	for _, a := range store.awards {
		perSession, ok := want[a.badge]
		if !ok {
			t.Errorf("unexpected badge %s", a.badge)
			continue
		}
		if perSession != (a.session != nil) {
			t.Errorf("badge %s session = %v", a.badge, a.session)
		}
		if a.player != "p1" {
			t.Errorf("badge %s player = %s", a.badge, a.player)
		}
	}
	if len(n.Badges) != len(want) {
		t.Errorf("notice badges = %d, want %d", len(n.Badges), len(want))
	}
}

func TestPersist_AnonymousSessionAwardsNothing(t *testing.T) {
	store := &fakeStore{}
	h := New(WithStore(store, fakeAnalytics{sessions: 50}))

	n := h.Persist(context.Background(), Session{ID: "s"}, stats.Summary{Score: 150})
	if len(store.awards) != 0 {
		t.Errorf("awards = %+v, want none", store.awards)
	}
	if len(n.Badges) != 1 || n.Badges[0].ID != analytics.BadgeCenturion {
		t.Errorf("badges = %+v, want centurion", n.Badges)
	}
}

func TestPersist_StoreErrorIsReported(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	errs := &countingErrors{}
	saver, _ := statsfile.NewSaver(t.TempDir(), statsfile.FormatCSV)
	h := New(WithSaver(saver), WithStore(store, nil), WithErrorRecorder(errs))

	n := h.Persist(context.Background(), Session{ID: "s", Settings: saveSettings()}, stats.Summary{})
	if n.Stored {
		t.Error("Stored = true after a failed insert")
	}
	if n.Path == "" {
		t.Error("file sink should still write")
	}
	if len(n.Errors) != 1 {
		t.Errorf("errors = %v, want 1", n.Errors)
	}
	if len(errs.sinks) != 1 || errs.sinks[0] != "db" {
		t.Errorf("persist errors = %v, want [db]", errs.sinks)
	}
}

func TestCompletion_Notifies(t *testing.T) {
	saver, _ := statsfile.NewSaver(t.TempDir(), statsfile.FormatJSON)
	h := New(WithSaver(saver))

	got := make(chan Notice, 1)
	handler := h.Completion(Session{RoomCode: "WXYZ", Settings: saveSettings()}, func(n Notice) { got <- n })
	handler("sess-3", stats.Summary{Score: 1, GameMode: "target_rush"})
	h.Wait()

	select {
	case n := <-got:
		if n.Session != "sess-3" || n.Path == "" {
			t.Errorf("notice = %+v", n)
		}
	default:
		t.Fatal("no notice after Wait")
	}
}

func TestCompletion_SilentWithoutSinks(t *testing.T) {
	h := New()
	called := false
	h.Completion(Session{}, func(Notice) { called = true })("s", stats.Summary{})
	h.Wait()
	if called {
		t.Error("notify called with nothing persisted")
	}
}

func startRunner(t *testing.T) *gamedata.Runner {
	t.Helper()
	c := clock.NewManual(epoch)
	g := gamedata.NewGame(c, targets.Arena{Width: 800, Height: 600}, nil)
	r := gamedata.NewRunner(g, c, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})
	return r
}

func TestStartSession(t *testing.T) {
	r := startRunner(t)
	h := New()
	ctx := context.Background()

	if err := h.StartSession(ctx, r, config.DefaultSettings()); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	v, err := r.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Scene != modes.StateRunning || v.Mode != string(modes.TargetRush) {
		t.Errorf("view = %+v", v)
	}

	bad := config.DefaultSettings()
	bad.GameMode = "Pinball"
	if err := h.StartSession(ctx, r, bad); err == nil {
		t.Error("StartSession with unknown mode succeeded")
	}
}

func TestIdleWatcher(t *testing.T) {
	h := New()
	r := startRunner(t)
	ctx := context.Background()

	s := config.DefaultSettings()
	s.EnableExtension = false
	if w := h.IdleWatcher(ctx, r, s); w != nil {
		t.Fatal("IdleWatcher enabled with extension off")
	}

	s.EnableExtension = true
	s.IdleTimer = 10
	w := h.IdleWatcher(ctx, r, s)
	if w == nil {
		t.Fatal("IdleWatcher = nil")
	}
	defer w.Stop()
	w.Activity()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, err := r.View(ctx)
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		if v.Scene == modes.StateRunning {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("idle watcher never started a session")
}

type fakeShotWriter struct {
	mu      sync.Mutex
	batches [][]db.ShotEvent
}

func (f *fakeShotWriter) BatchRecordShots(_ context.Context, evs []db.ShotEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]db.ShotEvent(nil), evs...))
	return nil
}

func (f *fakeShotWriter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func TestShotRecorder_Flush(t *testing.T) {
	w := &fakeShotWriter{}
	r := NewShotRecorder(w, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		r.Add(db.ShotEvent{SessionID: "s", TargetID: i, Hit: true})
	}
	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := w.total(); got != 3 {
		t.Errorf("written = %d, want 3", got)
	}

	r.Add(db.ShotEvent{SessionID: "s"})
	cancel()
	<-done
	if got := w.total(); got != 4 {
		t.Errorf("written after stop = %d, want 4", got)
	}
}

func TestShotFromEvent(t *testing.T) {
	if _, ok := ShotFromEvent(events.Event{Kind: events.KindTick}, epoch); ok {
		t.Error("tick converted to a shot")
	}
	shot, ok := ShotFromEvent(events.Event{Kind: events.KindHit, Session: "s", TargetID: 4, Band: 5, X: 1, Y: 2}, epoch)
	want := db.ShotEvent{SessionID: "s", TargetID: 4, Hit: true, Band: 5, X: 1, Y: 2, ShotAt: epoch}
	if !ok || shot != want {
		t.Errorf("ShotFromEvent(hit) = %+v, %v", shot, ok)
	}
	shot, ok = ShotFromEvent(events.Event{Kind: events.KindMiss, Session: "s", Band: -1}, epoch)
	if !ok || shot.Hit || shot.Band != -1 {
		t.Errorf("ShotFromEvent(miss) = %+v, %v", shot, ok)
	}
}
