package storage

import (
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	logx "mastbot/pkg/logx"
)

// UserInfo is the identity attached to an inbound event.
type UserInfo struct {
	ID        int64
	FirstName string
	Username  string
}

// Options tunes the record service.
type Options struct {
	Log logx.Logger

	// DefaultChannel seeds the settings record's channel when none was
	// persisted yet.
	DefaultChannel string

	// RefreshUsers updates a user's name/handle on every message. Default
	// false keeps the first-seen snapshot forever.
	RefreshUsers bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service owns the in-memory records and serializes every
// load-mutate-save sequence behind a per-record lock.
type Service struct {
	log     logx.Logger
	backend Backend

	refreshUsers   bool
	defaultChannel string
	now            func() time.Time

	usersMu sync.Mutex
	users   Users

	statsMu sync.Mutex
	stats   Stats

	settingsMu sync.Mutex
	settings   Settings
}

func NewService(backend Backend, opts Options) *Service {
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Service{
		log:            log,
		backend:        backend,
		refreshUsers:   opts.RefreshUsers,
		defaultChannel: opts.DefaultChannel,
		now:            now,
	}
	s.loadAll()
	return s
}

// loadAll pulls the three records from the backend. Any failure degrades to
// the record default; startup is never blocked by bad state.
func (s *Service) loadAll() {
	s.users = defaultUsers()
	if data, ok := s.loadRaw(KindUsers); ok {
		var u Users
		if err := json.Unmarshal(data, &u); err != nil {
			s.log.Warn("users record corrupt, using default", logx.Err(err))
		} else if u != nil {
			s.users = u
		}
	}

	now := s.now()
	s.stats = defaultStats(now)
	if data, ok := s.loadRaw(KindStats); ok {
		var st Stats
		if err := json.Unmarshal(data, &st); err != nil {
			s.log.Warn("stats record corrupt, using default", logx.Err(err))
		} else {
			st.normalize(now)
			s.stats = st
		}
	}

	s.settings = defaultSettings(s.defaultChannel)
	if data, ok := s.loadRaw(KindSettings); ok {
		var set Settings
		if err := json.Unmarshal(data, &set); err != nil {
			s.log.Warn("settings record corrupt, using default", logx.Err(err))
		} else {
			if set.Channel == "" {
				set.Channel = s.defaultChannel
			}
			s.settings = set
		}
	}
}

func (s *Service) loadRaw(kind Kind) ([]byte, bool) {
	if s.backend == nil {
		return nil, false
	}
	data, err := s.backend.Load(kind)
	if err != nil {
		if err != ErrNotFound {
			s.log.Warn("record load failed, using default",
				logx.String("kind", string(kind)), logx.Err(err))
		}
		return nil, false
	}
	return data, true
}

// persist writes a full-record overwrite. Failures are logged and swallowed;
// the in-memory record stays authoritative.
func (s *Service) persist(kind Kind, v any) {
	if s.backend == nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.log.Warn("record encode failed", logx.String("kind", string(kind)), logx.Err(err))
		return
	}
	if err := s.backend.Save(kind, data); err != nil {
		s.log.Warn("record save failed", logx.String("kind", string(kind)), logx.Err(err))
	}
}

// ---- Users ----

// TrackUser upserts the user record on first contact. It reports whether a
// new user was created.
func (s *Service) TrackUser(info UserInfo) bool {
	if info.ID == 0 {
		return false
	}
	key := strconv.FormatInt(info.ID, 10)

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if existing, ok := s.users[key]; ok {
		if !s.refreshUsers {
			return false
		}
		if existing.FirstName == info.FirstName && existing.Username == info.Username {
			return false
		}
		existing.FirstName = info.FirstName
		existing.Username = info.Username
		s.users[key] = existing
		s.persist(KindUsers, s.users)
		return false
	}

	s.users[key] = User{
		ID:        info.ID,
		FirstName: info.FirstName,
		Username:  info.Username,
		JoinedAt:  s.now().Format(joinedAtFormat),
	}
	s.persist(KindUsers, s.users)
	return true
}

func (s *Service) UserCount() int {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return len(s.users)
}

func (s *Service) UsersSnapshot() Users {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return s.users.clone()
}

// Recipients returns every known user id in ascending order, for a
// deterministic broadcast fan-out.
func (s *Service) Recipients() []int64 {
	s.usersMu.Lock()
	ids := make([]int64, 0, len(s.users))
	for _, u := range s.users {
		ids = append(ids, u.ID)
	}
	s.usersMu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---- Stats ----

// RecordMessage increments the total message counter. Called once per
// inbound event, before any gating decision.
func (s *Service) RecordMessage() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.TotalMessages++
	s.persist(KindStats, s.stats)
}

// RecordCommand increments the per-command counter. Only recognized named
// commands are counted; callbacks and the fallback handler are not.
func (s *Service) RecordCommand(name string) {
	if name == "" {
		return
	}
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	if s.stats.Commands == nil {
		s.stats.Commands = map[string]int64{}
	}
	s.stats.Commands[name]++
	s.persist(KindStats, s.stats)
}

func (s *Service) StatsSnapshot() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats.clone()
}

// ---- Settings ----

func (s *Service) Settings() Settings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settings
}

// Maintenance reports whether maintenance mode is on.
func (s *Service) Maintenance() bool {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settings.Maintenance
}

// ForceJoin reports the force-join toggle and its channel.
func (s *Service) ForceJoin() (bool, string) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settings.ForceJoin, s.settings.Channel
}

// MutateSettings applies fn under the settings lock and persists the result.
// It returns the settings after the mutation.
func (s *Service) MutateSettings(fn func(*Settings)) Settings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	fn(&s.settings)
	s.persist(KindSettings, s.settings)
	return s.settings
}

// Flush rewrites all three records. Used on shutdown as a best-effort
// durability pass; individual mutations already persist eagerly.
func (s *Service) Flush() {
	s.usersMu.Lock()
	s.persist(KindUsers, s.users)
	s.usersMu.Unlock()

	s.statsMu.Lock()
	s.persist(KindStats, s.stats)
	s.statsMu.Unlock()

	s.settingsMu.Lock()
	s.persist(KindSettings, s.settings)
	s.settingsMu.Unlock()
}
