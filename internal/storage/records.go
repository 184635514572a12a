package storage

import "time"

// Kind names one of the persisted records.
type Kind string

const (
	KindUsers    Kind = "users"
	KindStats    Kind = "stats"
	KindSettings Kind = "settings"
)

const joinedAtFormat = "2006-01-02T15:04:05"

// User is the first-seen snapshot of a bot user. It is created exactly once
// and never updated afterwards unless the refresh option is enabled.
type User struct {
	ID        int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
	JoinedAt  string `json:"joined_at"`
}

// Users maps stringified user id to the user snapshot.
type Users map[string]User

// Stats is the aggregate usage record.
type Stats struct {
	StartedAt     int64            `json:"started_at"`
	TotalMessages int64            `json:"total_messages"`
	Commands      map[string]int64 `json:"commands"`
}

// Settings holds the runtime toggles mutated by admin operations.
type Settings struct {
	Maintenance bool   `json:"maintenance"`
	ForceJoin   bool   `json:"forcejoin"`
	Channel     string `json:"channel"`
}

// countedCommands is the default command-counter schema. Keys added here
// after initial deployment are backfilled into already-persisted stats.
var countedCommands = []string{"start", "quote", "joke", "fact", "daily", "help", "ping"}

func defaultUsers() Users { return Users{} }

func defaultStats(now time.Time) Stats {
	cmds := make(map[string]int64, len(countedCommands))
	for _, c := range countedCommands {
		cmds[c] = 0
	}
	return Stats{StartedAt: now.Unix(), Commands: cmds}
}

func defaultSettings(channel string) Settings {
	return Settings{Channel: channel}
}

// normalize backfills schema keys into a loaded stats record so reading
// stale state never yields missing counters.
func (st *Stats) normalize(now time.Time) {
	if st.StartedAt == 0 {
		st.StartedAt = now.Unix()
	}
	if st.TotalMessages < 0 {
		st.TotalMessages = 0
	}
	if st.Commands == nil {
		st.Commands = make(map[string]int64, len(countedCommands))
	}
	for _, c := range countedCommands {
		if _, ok := st.Commands[c]; !ok {
			st.Commands[c] = 0
		}
	}
}

func (u Users) clone() Users {
	cp := make(Users, len(u))
	for k, v := range u {
		cp[k] = v
	}
	return cp
}

func (st Stats) clone() Stats {
	cp := st
	cp.Commands = make(map[string]int64, len(st.Commands))
	for k, v := range st.Commands {
		cp.Commands[k] = v
	}
	return cp
}
