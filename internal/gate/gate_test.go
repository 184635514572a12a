package gate

import (
	"context"
	"errors"
	"testing"

	logx "mastbot/pkg/logx"
)

type fakeSettings struct {
	maintenance bool
	forceJoin   bool
	channel     string
}

func (f *fakeSettings) Maintenance() bool         { return f.maintenance }
func (f *fakeSettings) ForceJoin() (bool, string) { return f.forceJoin, f.channel }

type fakeChecker struct {
	member bool
	err    error
	calls  int
}

func (f *fakeChecker) IsMember(ctx context.Context, userID int64, channel string) (bool, error) {
	f.calls++
	return f.member, f.err
}

func TestAllow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		settings fakeSettings
		checker  fakeChecker
		isAdmin  bool
		allowed  bool
		reason   Reason
	}{
		{name: "all off", allowed: true},
		{name: "maintenance blocks user", settings: fakeSettings{maintenance: true}, reason: ReasonMaintenance},
		{name: "maintenance spares admin", settings: fakeSettings{maintenance: true}, isAdmin: true, allowed: true},
		{
			name:     "forcejoin blocks non-member",
			settings: fakeSettings{forceJoin: true, channel: "@ch"},
			checker:  fakeChecker{member: false},
			reason:   ReasonNotMember,
		},
		{
			name:     "forcejoin passes member",
			settings: fakeSettings{forceJoin: true, channel: "@ch"},
			checker:  fakeChecker{member: true},
			allowed:  true,
		},
		{
			name:     "forcejoin spares admin",
			settings: fakeSettings{forceJoin: true, channel: "@ch"},
			checker:  fakeChecker{member: false},
			isAdmin:  true,
			allowed:  true,
		},
		{
			name:     "forcejoin without channel is inert",
			settings: fakeSettings{forceJoin: true},
			checker:  fakeChecker{member: false},
			allowed:  true,
		},
		{
			name:     "checker error fails open",
			settings: fakeSettings{forceJoin: true, channel: "@ch"},
			checker:  fakeChecker{err: errors.New("api down")},
			allowed:  true,
		},
		{
			name:     "maintenance wins over forcejoin",
			settings: fakeSettings{maintenance: true, forceJoin: true, channel: "@ch"},
			checker:  fakeChecker{member: false},
			reason:   ReasonMaintenance,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			k := New(&tt.settings, &tt.checker, logx.Nop())
			dec := k.Allow(context.Background(), 123, tt.isAdmin)
			if dec.Allowed != tt.allowed {
				t.Fatalf("Allowed = %v, want %v", dec.Allowed, tt.allowed)
			}
			if !tt.allowed && dec.Reason != tt.reason {
				t.Fatalf("Reason = %q, want %q", dec.Reason, tt.reason)
			}
			if dec.Reason == ReasonNotMember && dec.Channel != tt.settings.channel {
				t.Fatalf("Channel = %q, want %q", dec.Channel, tt.settings.channel)
			}
		})
	}
}

func TestMaintenanceShortCircuitsMembership(t *testing.T) {
	t.Parallel()
	checker := &fakeChecker{member: false}
	k := New(&fakeSettings{maintenance: true, forceJoin: true, channel: "@ch"}, checker, logx.Nop())

	_ = k.Allow(context.Background(), 1, false)
	if checker.calls != 0 {
		t.Fatalf("membership checker called %d times during maintenance, want 0", checker.calls)
	}
}

func TestCheckMembershipSkipsMaintenance(t *testing.T) {
	t.Parallel()
	k := New(&fakeSettings{maintenance: true}, &fakeChecker{}, logx.Nop())

	// Callbacks re-check membership only; maintenance is not re-applied here.
	if dec := k.CheckMembership(context.Background(), 1); !dec.Allowed {
		t.Fatalf("CheckMembership blocked: %+v", dec)
	}
}

func TestMembershipFlipUnblocks(t *testing.T) {
	t.Parallel()
	checker := &fakeChecker{member: false}
	k := New(&fakeSettings{forceJoin: true, channel: "@ch"}, checker, logx.Nop())

	if dec := k.Allow(context.Background(), 1, false); dec.Allowed {
		t.Fatal("expected block before joining")
	}
	checker.member = true
	if dec := k.Allow(context.Background(), 1, false); !dec.Allowed {
		t.Fatalf("expected allow after joining, got %+v", dec)
	}
}
