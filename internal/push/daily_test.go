package push

import (
	"context"
	"strings"
	"testing"
	"time"

	"mastbot/internal/broadcast"
	"mastbot/internal/storage"
	kit "mastbot/internal/transport"
	logx "mastbot/pkg/logx"
)

type fakeAdapter struct {
	sent []sentMessage
}

type sentMessage struct {
	chatID int64
	text   string
}

func (f *fakeAdapter) Start(ctx context.Context, out chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(ctx context.Context) error                         { return nil }

func (f *fakeAdapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID: to.ChatID, text: text})
	return nil
}

func (f *fakeAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return nil
}

func newPushFixture(t *testing.T, spec string) (*Daily, *fakeAdapter, *storage.Service) {
	t.Helper()
	store := storage.NewService(nil, storage.Options{Log: logx.Nop()})
	fa := &fakeAdapter{}
	engine := broadcast.New(broadcast.Config{ParseMode: "HTML"}, fa, logx.Nop())
	d, err := NewDaily(spec, store, engine, logx.Nop())
	if err != nil {
		t.Fatalf("NewDaily(%q): %v", spec, err)
	}
	d.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	return d, fa, store
}

func TestNewDailySpecValidation(t *testing.T) {
	t.Parallel()
	store := storage.NewService(nil, storage.Options{Log: logx.Nop()})
	engine := broadcast.New(broadcast.Config{}, &fakeAdapter{}, logx.Nop())

	if _, err := NewDaily("not a cron", store, engine, logx.Nop()); err == nil {
		t.Fatal("NewDaily accepted a bad cron spec")
	}

	d, err := NewDaily("", store, engine, logx.Nop())
	if err != nil {
		t.Fatalf("NewDaily(empty): %v", err)
	}
	if d.Enabled() {
		t.Fatal("empty spec reported enabled")
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start on disabled push: %v", err)
	}
	d.Stop()

	d2, err := NewDaily("0 9 * * *", store, engine, logx.Nop())
	if err != nil {
		t.Fatalf("NewDaily(valid): %v", err)
	}
	if !d2.Enabled() {
		t.Fatal("valid spec reported disabled")
	}
}

func TestDailyRunSendsPack(t *testing.T) {
	t.Parallel()
	d, fa, store := newPushFixture(t, "0 9 * * *")
	store.TrackUser(storage.UserInfo{ID: 10, FirstName: "A"})
	store.TrackUser(storage.UserInfo{ID: 20, FirstName: "B"})

	d.run(context.Background())

	if len(fa.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(fa.sent))
	}
	if fa.sent[0].chatID != 10 || fa.sent[1].chatID != 20 {
		t.Fatalf("recipients %v, want [10 20]", fa.sent)
	}
	if !strings.Contains(fa.sent[0].text, "Daily Pack") {
		t.Fatalf("push body = %q, want daily pack", fa.sent[0].text)
	}
	if !strings.Contains(fa.sent[0].text, "15-03-2024") {
		t.Fatalf("push body missing date: %q", fa.sent[0].text)
	}
}

func TestDailyRunSkipsDuringMaintenance(t *testing.T) {
	t.Parallel()
	d, fa, store := newPushFixture(t, "0 9 * * *")
	store.TrackUser(storage.UserInfo{ID: 10, FirstName: "A"})
	store.MutateSettings(func(s *storage.Settings) { s.Maintenance = true })

	d.run(context.Background())

	if len(fa.sent) != 0 {
		t.Fatalf("sent %d messages during maintenance, want 0", len(fa.sent))
	}
}

func TestDailyRunSkipsWithoutUsers(t *testing.T) {
	t.Parallel()
	d, fa, _ := newPushFixture(t, "0 9 * * *")

	d.run(context.Background())

	if len(fa.sent) != 0 {
		t.Fatalf("sent %d messages with no users, want 0", len(fa.sent))
	}
}

func TestDailyStartStop(t *testing.T) {
	t.Parallel()
	d, _, _ := newPushFixture(t, "0 9 * * *")

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()
	// Stop is idempotent.
	d.Stop()
}
