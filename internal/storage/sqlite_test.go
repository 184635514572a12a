package storage

import (
	"errors"
	"testing"

	logx "mastbot/pkg/logx"
)

func TestSQLiteBackendRoundTrip(t *testing.T) {
	t.Parallel()
	backend, err := Open(Config{Driver: "sqlite", Dir: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer backend.Close()

	if _, err := backend.Load(KindStats); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load before Save: err = %v, want ErrNotFound", err)
	}

	want := []byte(`{"started_at":1,"total_messages":2}`)
	if err := backend.Save(KindStats, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := backend.Load(KindStats)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Load = %s, want %s", got, want)
	}

	// Overwrite replaces the full record.
	want2 := []byte(`{"started_at":1,"total_messages":3}`)
	if err := backend.Save(KindStats, want2); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = backend.Load(KindStats)
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if string(got) != string(want2) {
		t.Fatalf("Load = %s, want %s", got, want2)
	}
}

func TestSQLiteServiceRoundTrip(t *testing.T) {
	t.Parallel()
	backend, err := Open(Config{Driver: "sqlite", Dir: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer backend.Close()

	s := NewService(backend, Options{})
	s.TrackUser(UserInfo{ID: 9, FirstName: "Bea"})
	s.RecordMessage()

	s2 := NewService(backend, Options{})
	if n := s2.UserCount(); n != 1 {
		t.Fatalf("UserCount = %d, want 1", n)
	}
	if got := s2.StatsSnapshot().TotalMessages; got != 1 {
		t.Fatalf("TotalMessages = %d, want 1", got)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "bolt", Dir: t.TempDir()}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
