// Package gate implements the admission policy applied before user-facing
// actions: maintenance mode and channel force-join.
package gate

import (
	"context"
	"strings"

	kit "mastbot/internal/transport"
	logx "mastbot/pkg/logx"
)

// Reason names why a request was blocked.
type Reason string

const (
	ReasonMaintenance Reason = "maintenance"
	ReasonNotMember   Reason = "not_member"
)

// Decision is the outcome of an admission check. Channel carries the
// force-join channel when Reason is ReasonNotMember, so the caller can
// render a join prompt.
type Decision struct {
	Allowed bool
	Reason  Reason
	Channel string
}

var allowed = Decision{Allowed: true}

// SettingsSource provides the current runtime toggles.
type SettingsSource interface {
	Maintenance() bool
	ForceJoin() (enabled bool, channel string)
}

// Keeper evaluates the admission policy. Admins bypass every check; the
// admin set is fixed configuration, not runtime settings.
type Keeper struct {
	settings SettingsSource
	checker  kit.MembershipChecker
	log      logx.Logger
}

func New(settings SettingsSource, checker kit.MembershipChecker, log logx.Logger) *Keeper {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Keeper{settings: settings, checker: checker, log: log}
}

// Allow runs the checks in order: maintenance first, then force-join.
func (k *Keeper) Allow(ctx context.Context, userID int64, isAdmin bool) Decision {
	if isAdmin {
		return allowed
	}
	if k.settings.Maintenance() {
		return Decision{Reason: ReasonMaintenance}
	}
	return k.CheckMembership(ctx, userID)
}

// CheckMembership applies only the force-join half of the policy. Callback
// buttons use this directly: a button can arrive long after the initiating
// command validated state, so membership is re-checked, but maintenance is
// not.
func (k *Keeper) CheckMembership(ctx context.Context, userID int64) Decision {
	enabled, channel := k.settings.ForceJoin()
	channel = strings.TrimSpace(channel)
	if !enabled || channel == "" {
		return allowed
	}
	if k.checker == nil {
		return allowed
	}

	member, err := k.checker.IsMember(ctx, userID, channel)
	if err != nil {
		// Fail-open: a verification outage must not lock out legitimate
		// users.
		k.log.Warn("membership check failed, allowing",
			logx.Int64("user_id", userID), logx.String("channel", channel), logx.Err(err))
		return allowed
	}
	if !member {
		return Decision{Reason: ReasonNotMember, Channel: channel}
	}
	return allowed
}
