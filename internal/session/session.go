// Package session wires the rule stores, matcher, scanner and loot queue of
// one logged-in character and drives them from a single tick goroutine.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/config"
	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/events"
	"github.com/tazuo/autoloot/internal/journal"
	"github.com/tazuo/autoloot/internal/lootqueue"
	"github.com/tazuo/autoloot/internal/matcher"
	"github.com/tazuo/autoloot/internal/metrics"
	"github.com/tazuo/autoloot/internal/scanner"
	"github.com/tazuo/autoloot/internal/settings"
	"github.com/tazuo/autoloot/internal/storage"
)

var (
	ErrNotStarted = errors.New("session: not started")
	ErrStopped    = errors.New("session: stopped")
)

// Status is a point-in-time view of the pipeline, safe to read from any
// goroutine.
type Status struct {
	Started         bool      `json:"started"`
	Queued          int       `json:"queued"`
	Progress        float64   `json:"progress"`
	Highlighted     int       `json:"highlighted"`
	PendingScans    bool      `json:"pending_scans"`
	HighlightRules  int       `json:"highlight_rules"`
	LootEntries     int       `json:"loot_entries"`
	HighlightLoaded bool      `json:"highlight_loaded"`
	LootLoaded      bool      `json:"loot_loaded"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Session owns every per-character component. Rule stores, the bus, the
// status snapshot and the persistent stores may be used from any goroutine;
// the scanner and queue are only touched by Update.
type Session struct {
	cfg   *config.Config
	world domain.World

	profile    *LiveProfile
	bus        *events.Bus
	highlights *storage.RuleStore[domain.HighlightRule]
	loot       *storage.RuleStore[domain.LootEntry]
	matcher    *matcher.Matcher
	scanner    *scanner.Scanner
	queue      *lootqueue.Queue
	journal    atomic.Pointer[journal.Journal]
	journalW   atomic.Pointer[journal.Writer]
	metrics    *metrics.Metrics

	status  atomic.Pointer[Status]
	started atomic.Bool

	opsMu sync.Mutex
	ops   []func()

	storesMu sync.Mutex
	settings *settings.Settings
	friends  *settings.Friends
}

// New builds a session for cfg's active profile. Nothing is read from disk
// until Start.
func New(cfg *config.Config, world domain.World, mover domain.Mover) *Session {
	s := &Session{
		cfg:     cfg,
		world:   world,
		profile: NewLiveProfile(cfg.Profile()),
		bus:     events.NewBus(),
		highlights: storage.NewRuleStore[domain.HighlightRule](storage.StoreConfig{
			Kind:    "highlight",
			Path:    cfg.HighlightRulesPath(),
			Backups: cfg.Storage.Backups,
		}),
		loot: storage.NewRuleStore[domain.LootEntry](storage.StoreConfig{
			Kind:    "autoloot",
			Path:    cfg.AutoLootPath(),
			Backups: cfg.Storage.Backups,
		}),
		matcher: matcher.New(cfg.Cache.NormalizeSize),
		metrics: metrics.New(time.Now()),
	}
	s.queue = lootqueue.New(world, mover, s.profile,
		lootqueue.WithMetrics(s.metrics),
		lootqueue.WithJournal(journalSink{&s.journalW}),
	)
	s.scanner = scanner.New(world, s.profile, s.matcher, s.highlights, s.loot, s.queue,
		scanner.WithBatchSize(cfg.Loot.BatchSize),
		scanner.WithMetrics(s.metrics),
	)
	s.status.Store(&Status{})
	return s
}

// Start loads both rule stores, opens the loot journal and subscribes the
// scanner to the bus. A journal that cannot be opened is logged and skipped.
func (s *Session) Start(ctx context.Context) error {
	if s.started.Load() {
		return nil
	}
	if s.scanner.Closed() {
		return ErrStopped
	}
	if err := s.cfg.EnsureDirectories(); err != nil {
		return err
	}
	if err := s.highlights.Load(ctx); err != nil {
		return err
	}
	if err := s.loot.Load(ctx); err != nil {
		return err
	}

	j, err := journal.Open(s.cfg.JournalPath(), journal.DefaultMaxEntries)
	if err != nil {
		log.Warn().Err(err).Str("path", s.cfg.JournalPath()).Msg("Loot journal unavailable")
	} else {
		s.journal.Store(j)
		s.journalW.Store(journal.NewWriter(j, journal.DefaultBuffer))
	}

	s.bus.Subscribe(s.scanner)
	s.started.Store(true)
	s.publish(time.Now())

	log.Info().
		Str("profile", s.cfg.Storage.Profile).
		Int("highlight_rules", s.highlights.Len()).
		Int("loot_entries", s.loot.Len()).
		Msg("Session started")
	return nil
}

// Update runs one tick: queued events are delivered, a scanner batch is
// evaluated, at most one loot move is issued and the status is republished.
func (s *Session) Update(now time.Time) {
	if !s.started.Load() {
		return
	}
	for _, op := range s.takeOps() {
		op()
	}
	s.bus.Dispatch()
	s.scanner.Drain()
	s.queue.Tick(now)
	s.publish(now)
}

// Run calls Update every interval until ctx is done.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Update(now)
		}
	}
}

// Stop unsubscribes the scanner, clears pending work, flushes loaded rule
// stores and closes every store. The session cannot be restarted.
func (s *Session) Stop() error {
	var errs []error
	if s.started.Swap(false) {
		s.bus.Unsubscribe(s.scanner)
		s.scanner.Close()
		s.scanner.Clear()
		s.queue.Clear()

		if err := s.highlights.Flush(); err != nil {
			errs = append(errs, err)
		}
		if err := s.loot.Flush(); err != nil {
			errs = append(errs, err)
		}
		if w := s.journalW.Swap(nil); w != nil {
			w.Close()
		}
		if j := s.journal.Swap(nil); j != nil {
			if err := j.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	s.storesMu.Lock()
	if s.settings != nil {
		errs = append(errs, s.settings.Close())
	}
	if s.friends != nil {
		errs = append(errs, s.friends.Close())
	}
	s.storesMu.Unlock()

	s.publish(time.Now())
	log.Info().Str("profile", s.cfg.Storage.Profile).Msg("Session stopped")
	return errors.Join(errs...)
}

// Post hands an event to the tick goroutine.
func (s *Session) Post(ev events.Event) {
	s.bus.Post(ev)
}

// RecheckAll re-queues every non-ground item on the next tick.
func (s *Session) RecheckAll() {
	s.schedule(func() {
		n := s.scanner.RecheckAll()
		log.Debug().Int("count", n).Msg("Recheck scheduled")
	})
}

// ForceLoot runs the auto-loot check over a container's contents on the
// next tick.
func (s *Session) ForceLoot(serial uint32) {
	s.schedule(func() {
		if !s.scanner.ForceLootContainer(serial) {
			log.Debug().Uint32("serial", serial).Msg("Force loot skipped")
		}
	})
}

// Highlight asks the tick goroutine for the current match of serial and
// waits for the answer.
func (s *Session) Highlight(ctx context.Context, serial uint32) (domain.MatchResult, bool, error) {
	if !s.started.Load() {
		return domain.MatchResult{}, false, ErrNotStarted
	}
	type answer struct {
		result domain.MatchResult
		ok     bool
	}
	ch := make(chan answer, 1)
	s.schedule(func() {
		r, ok := s.scanner.Highlight(serial)
		ch <- answer{r, ok}
	})
	select {
	case a := <-ch:
		return a.result, a.ok, nil
	case <-ctx.Done():
		return domain.MatchResult{}, false, ctx.Err()
	}
}

func (s *Session) schedule(op func()) {
	s.opsMu.Lock()
	s.ops = append(s.ops, op)
	s.opsMu.Unlock()
}

func (s *Session) takeOps() []func() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()
	ops := s.ops
	s.ops = nil
	return ops
}

func (s *Session) publish(now time.Time) {
	st := &Status{
		Started:         s.started.Load(),
		Queued:          s.queue.Len(),
		Progress:        s.queue.Progress(),
		Highlighted:     s.scanner.Highlighted(),
		PendingScans:    s.scanner.HasPending(),
		HighlightRules:  s.highlights.Len(),
		LootEntries:     s.loot.Len(),
		HighlightLoaded: s.highlights.Loaded(),
		LootLoaded:      s.loot.Loaded(),
		UpdatedAt:       now,
	}
	s.status.Store(st)
	s.metrics.RulesLoaded("highlight", st.HighlightRules)
	s.metrics.RulesLoaded("autoloot", st.LootEntries)
}

// Status returns the snapshot published by the last Update.
func (s *Session) Status() Status {
	return *s.status.Load()
}

// Settings opens the settings database on first use.
func (s *Session) Settings(ctx context.Context) (*settings.Settings, error) {
	s.storesMu.Lock()
	defer s.storesMu.Unlock()
	if s.settings == nil {
		st, err := settings.OpenSettings(ctx, s.cfg.SettingsDBPath(), s.cfg.Storage.Backups)
		if err != nil {
			return nil, err
		}
		s.settings = st
	}
	return s.settings, nil
}

// Friends opens the friends database on first use.
func (s *Session) Friends(ctx context.Context) (*settings.Friends, error) {
	s.storesMu.Lock()
	defer s.storesMu.Unlock()
	if s.friends == nil {
		f, err := settings.OpenFriends(ctx, s.cfg.FriendsDBPath(), s.cfg.Storage.Backups)
		if err != nil {
			return nil, err
		}
		s.friends = f
	}
	return s.friends, nil
}

func (s *Session) Bus() *events.Bus {
	return s.bus
}

func (s *Session) HighlightRules() *storage.RuleStore[domain.HighlightRule] {
	return s.highlights
}

func (s *Session) LootEntries() *storage.RuleStore[domain.LootEntry] {
	return s.loot
}

func (s *Session) Matcher() *matcher.Matcher {
	return s.matcher
}

func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}

// Journal is nil before Start, after Stop, or when the file could not be opened.
func (s *Session) Journal() *journal.Journal {
	return s.journal.Load()
}

func (s *Session) Profile() *LiveProfile {
	return s.profile
}

func (s *Session) Config() *config.Config {
	return s.cfg
}

// journalSink hands entries to the journal writer once it is open.
type journalSink struct {
	w *atomic.Pointer[journal.Writer]
}

func (s journalSink) Record(entry domain.JournalEntry) error {
	if w := s.w.Load(); w != nil {
		return w.Record(entry)
	}
	return nil
}
