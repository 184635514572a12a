package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	logx "mastbot/pkg/logx"
)

func newTestService(t *testing.T, opts Options) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := Open(Config{Driver: "file", Dir: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	return NewService(backend, opts), dir
}

func TestLoadMissingYieldsDefaults(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t, Options{DefaultChannel: "@home"})

	if n := s.UserCount(); n != 0 {
		t.Fatalf("UserCount = %d, want 0", n)
	}
	st := s.StatsSnapshot()
	if st.TotalMessages != 0 {
		t.Fatalf("TotalMessages = %d, want 0", st.TotalMessages)
	}
	if st.StartedAt == 0 {
		t.Fatal("StartedAt not initialized")
	}
	for _, c := range []string{"start", "quote", "joke", "fact", "daily", "help", "ping"} {
		if v, ok := st.Commands[c]; !ok || v != 0 {
			t.Fatalf("Commands[%q] = %d,%v, want 0,true", c, v, ok)
		}
	}
	set := s.Settings()
	if set.Maintenance || set.ForceJoin {
		t.Fatalf("toggles should default false, got %+v", set)
	}
	if set.Channel != "@home" {
		t.Fatalf("Channel = %q, want @home", set.Channel)
	}
}

func TestLoadCorruptYieldsDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{"users.json", "stats.json", "settings.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	backend, err := Open(Config{Driver: "file", Dir: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer backend.Close()

	s := NewService(backend, Options{})
	if n := s.UserCount(); n != 0 {
		t.Fatalf("UserCount = %d, want 0", n)
	}
	if st := s.StatsSnapshot(); st.TotalMessages != 0 {
		t.Fatalf("TotalMessages = %d, want 0", st.TotalMessages)
	}
	if set := s.Settings(); set.Maintenance {
		t.Fatal("Maintenance should default false")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	backend, err := Open(Config{Driver: "file", Dir: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer backend.Close()

	s := NewService(backend, Options{})
	s.TrackUser(UserInfo{ID: 42, FirstName: "Ada", Username: "ada"})
	s.RecordMessage()
	s.RecordMessage()
	s.RecordCommand("quote")
	s.MutateSettings(func(set *Settings) {
		set.Maintenance = true
		set.Channel = "@somewhere"
	})

	// A fresh service over the same backend must see identical state.
	s2 := NewService(backend, Options{})
	if n := s2.UserCount(); n != 1 {
		t.Fatalf("UserCount = %d, want 1", n)
	}
	st := s2.StatsSnapshot()
	if st.TotalMessages != 2 {
		t.Fatalf("TotalMessages = %d, want 2", st.TotalMessages)
	}
	if st.Commands["quote"] != 1 {
		t.Fatalf("Commands[quote] = %d, want 1", st.Commands["quote"])
	}
	set := s2.Settings()
	if !set.Maintenance || set.Channel != "@somewhere" {
		t.Fatalf("settings round-trip mismatch: %+v", set)
	}
}

func TestStatsBackfillMissingCounters(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// Stale record written before "daily" and "ping" existed.
	stale := map[string]any{
		"started_at":     1700000000,
		"total_messages": 7,
		"commands":       map[string]int64{"start": 3},
	}
	b, _ := json.Marshal(stale)
	if err := os.WriteFile(filepath.Join(dir, "stats.json"), b, 0o600); err != nil {
		t.Fatal(err)
	}
	backend, err := Open(Config{Driver: "file", Dir: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer backend.Close()

	s := NewService(backend, Options{})
	st := s.StatsSnapshot()
	if st.TotalMessages != 7 {
		t.Fatalf("TotalMessages = %d, want 7", st.TotalMessages)
	}
	if st.Commands["start"] != 3 {
		t.Fatalf("Commands[start] = %d, want 3", st.Commands["start"])
	}
	for _, c := range []string{"quote", "joke", "fact", "daily", "help", "ping"} {
		if v, ok := st.Commands[c]; !ok || v != 0 {
			t.Fatalf("Commands[%q] not backfilled: %d,%v", c, v, ok)
		}
	}
}

func TestRecordMessageCountsExactly(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t, Options{})

	const n = 50
	for i := 0; i < n; i++ {
		s.RecordMessage()
	}
	if got := s.StatsSnapshot().TotalMessages; got != n {
		t.Fatalf("TotalMessages = %d, want %d", got, n)
	}
}

func TestRecordMessageConcurrent(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t, Options{})

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s.RecordMessage()
			}
		}()
	}
	wg.Wait()
	if got := s.StatsSnapshot().TotalMessages; got != workers*perWorker {
		t.Fatalf("TotalMessages = %d, want %d", got, workers*perWorker)
	}
}

func TestTrackUserFirstSeenOnly(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t, Options{})

	if created := s.TrackUser(UserInfo{ID: 1, FirstName: "Old", Username: "old"}); !created {
		t.Fatal("first TrackUser should create")
	}
	if created := s.TrackUser(UserInfo{ID: 1, FirstName: "New", Username: "new"}); created {
		t.Fatal("second TrackUser should not create")
	}

	u := s.UsersSnapshot()["1"]
	if u.FirstName != "Old" || u.Username != "old" {
		t.Fatalf("first-seen snapshot was overwritten: %+v", u)
	}
}

func TestTrackUserRefreshOption(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t, Options{RefreshUsers: true})

	s.TrackUser(UserInfo{ID: 1, FirstName: "Old", Username: "old"})
	s.TrackUser(UserInfo{ID: 1, FirstName: "New", Username: "new"})

	u := s.UsersSnapshot()["1"]
	if u.FirstName != "New" || u.Username != "new" {
		t.Fatalf("refresh option did not update snapshot: %+v", u)
	}
}

func TestRecipientsSorted(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t, Options{})
	for _, id := range []int64{30, 10, 20} {
		s.TrackUser(UserInfo{ID: id})
	}
	got := s.Recipients()
	want := []int64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("Recipients = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Recipients = %v, want %v", got, want)
		}
	}
}

func TestPersistedFilesMatchSchema(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, dir := newTestService(t, Options{Now: func() time.Time { return now }})

	s.TrackUser(UserInfo{ID: 42, FirstName: "Ada", Username: "ada"})

	b, err := os.ReadFile(filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatalf("users.json not written: %v", err)
	}
	var users map[string]map[string]any
	if err := json.Unmarshal(b, &users); err != nil {
		t.Fatalf("users.json invalid: %v", err)
	}
	u, ok := users["42"]
	if !ok {
		t.Fatalf("users.json missing key 42: %v", users)
	}
	if u["user_id"].(float64) != 42 || u["first_name"] != "Ada" || u["username"] != "ada" {
		t.Fatalf("unexpected user document: %v", u)
	}
	if u["joined_at"] != "2024-05-01T12:00:00" {
		t.Fatalf("joined_at = %v", u["joined_at"])
	}
}

func TestBackendSaveFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	s := NewService(failingBackend{}, Options{})

	// Mutations must not panic or lose in-memory state when persistence fails.
	s.TrackUser(UserInfo{ID: 7})
	s.RecordMessage()
	s.RecordCommand("ping")

	if n := s.UserCount(); n != 1 {
		t.Fatalf("UserCount = %d, want 1", n)
	}
	if got := s.StatsSnapshot().TotalMessages; got != 1 {
		t.Fatalf("TotalMessages = %d, want 1", got)
	}
}

type failingBackend struct{}

func (failingBackend) Load(Kind) ([]byte, error) { return nil, os.ErrPermission }
func (failingBackend) Save(Kind, []byte) error   { return os.ErrPermission }
func (failingBackend) Close() error              { return nil }
