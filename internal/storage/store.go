package storage

import (
	"context"
	"errors"
	"io/fs"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/loader"
)

// StoreConfig holds configuration for a RuleStore
type StoreConfig struct {
	// Kind names the rule kind in logs, e.g. "autoloot".
	Kind    string
	Path    string
	Backups int
}

// RuleStore is an ordered, file-backed rule set. Mutations are serialized;
// readers get an immutable snapshot that is rebuilt on every change.
type RuleStore[T domain.Rule[T]] struct {
	mu     sync.Mutex
	rules  []T
	config StoreConfig

	snapshot  atomic.Pointer[[]T]
	loaded    atomic.Bool
	validator *domain.RuleValidator
}

// NewRuleStore creates an empty, not yet loaded store.
func NewRuleStore[T domain.Rule[T]](config StoreConfig) *RuleStore[T] {
	s := &RuleStore[T]{
		config:    config,
		validator: domain.NewRuleValidator(),
	}
	s.publish()
	return s
}

// Path is the file the store persists to.
func (s *RuleStore[T]) Path() string {
	return s.config.Path
}

// Loaded reports whether the rule set reflects a successful load or save.
// Matching must not run while it is false.
func (s *RuleStore[T]) Loaded() bool {
	return s.loaded.Load()
}

// Load reads the rule file. A missing file is an empty, loaded rule set. A
// malformed file is logged and leaves the store empty and not loaded.
func (s *RuleStore[T]) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.NewAppErrorWithCause(domain.ErrInternal, "Load cancelled", 500, err, nil).WithOperation("load")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := loader.ParseFile[T](s.config.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.rules = nil
		s.publish()
		s.loaded.Store(true)
		return nil
	case err != nil:
		log.Error().Err(err).Str("kind", s.config.Kind).Str("path", s.config.Path).Msg("Rule file is unreadable, starting with an empty rule set")
		s.rules = nil
		s.publish()
		s.loaded.Store(false)
		return nil
	}

	s.rules = s.rules[:0]
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if rule.RuleID() == "" || seen[rule.RuleID()] {
			rule = rule.WithID(uuid.New().String())
		}
		seen[rule.RuleID()] = true
		s.rules = append(s.rules, rule)
	}
	s.publish()
	s.loaded.Store(true)

	log.Debug().Str("kind", s.config.Kind).Int("count", len(s.rules)).Str("path", s.config.Path).Msg("Rules loaded")
	return nil
}

// All returns the current snapshot in display order. The slice is shared
// and must not be modified.
func (s *RuleStore[T]) All() []T {
	return *s.snapshot.Load()
}

func (s *RuleStore[T]) Len() int {
	return len(s.All())
}

// Get returns the rule with the given id.
func (s *RuleStore[T]) Get(id string) (T, bool) {
	for _, rule := range s.All() {
		if rule.RuleID() == id {
			return rule, true
		}
	}
	var zero T
	return zero, false
}

// Add appends rule unless an equivalent rule exists, in which case the
// existing rule is returned and created is false.
func (s *RuleStore[T]) Add(rule T) (stored T, created bool, err error) {
	if err := s.validator.Validate(rule); err != nil {
		return stored, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findEquivalent(rule); ok {
		return existing, false, nil
	}
	rule = s.withFreshID(rule)
	s.rules = append(s.rules, rule)
	s.publish()
	return rule, true, nil
}

// Update replaces the rule with the same id.
func (s *RuleStore[T]) Update(rule T) error {
	if err := s.validator.Validate(rule); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(rule.RuleID())
	if i < 0 {
		return domain.NewAppError(domain.ErrNotFound, "Rule not found", 404, map[string]any{"id": rule.RuleID()})
	}
	s.rules[i] = rule
	s.publish()
	return nil
}

// Remove deletes the rule with the given id. Unknown ids are ignored.
func (s *RuleStore[T]) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.rules = slices.Delete(s.rules, i, i+1)
	s.publish()
	return true
}

// Move swaps the rule with its neighbour. It is a no-op at either end.
func (s *RuleStore[T]) Move(id string, up bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	j := i + 1
	if up {
		j = i - 1
	}
	if j < 0 || j >= len(s.rules) {
		return false
	}
	s.rules[i], s.rules[j] = s.rules[j], s.rules[i]
	s.publish()
	return true
}

// Import merges rules, skipping any equivalent to a rule already present
// (including earlier rules of the same batch) and any that fail validation.
func (s *RuleStore[T]) Import(rules []T, source string) domain.ImportReport {
	report := domain.ImportReport{Source: source}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rule := range rules {
		if err := s.validator.Validate(rule); err != nil {
			log.Warn().Err(err).Str("kind", s.config.Kind).Str("source", source).Msg("Skipping invalid rule on import")
			report.Invalid++
			continue
		}
		if _, ok := s.findEquivalent(rule); ok {
			report.Skipped++
			continue
		}
		s.rules = append(s.rules, s.withFreshID(rule))
		report.Imported++
	}
	if report.Imported > 0 {
		s.publish()
	}

	log.Info().
		Str("kind", s.config.Kind).
		Str("source", source).
		Int("imported", report.Imported).
		Int("skipped", report.Skipped).
		Int("invalid", report.Invalid).
		Msg("Rules imported")
	return report
}

// ImportFile merges the rules of a JSON, YAML or TOML file.
func (s *RuleStore[T]) ImportFile(path string) (domain.ImportReport, error) {
	rules, err := loader.ParseFile[T](path)
	if err != nil {
		return domain.ImportReport{Source: path}, domain.NewAppErrorWithCause(domain.ErrImportFailed, "Failed to read rule file", 500, err, map[string]any{"path": path})
	}
	return s.Import(rules, path), nil
}

// Export writes the full rule set to path, in the format of its extension.
func (s *RuleStore[T]) Export(path string) error {
	if err := loader.WriteRules(path, s.All(), 0); err != nil {
		return domain.NewAppErrorWithCause(domain.ErrExportFailed, "Failed to export rules", 500, err, map[string]any{"path": path})
	}
	return nil
}

// Save persists the rule set, rotating backups first. A successful save
// marks the store loaded.
func (s *RuleStore[T]) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := loader.WriteRules(s.config.Path, s.rules, s.config.Backups); err != nil {
		log.Error().Err(err).Str("kind", s.config.Kind).Str("path", s.config.Path).Msg("Failed to save rules")
		return domain.NewAppErrorWithCause(domain.ErrInternal, "Failed to save rules", 500, err, map[string]any{"path": s.config.Path})
	}
	s.loaded.Store(true)
	return nil
}

// Flush saves only when the store is loaded, so a store that failed to load
// never overwrites the file it could not read.
func (s *RuleStore[T]) Flush() error {
	if !s.Loaded() {
		return nil
	}
	return s.Save()
}

// HealthCheck reports unhealthy while the rule file is not loaded.
func (s *RuleStore[T]) HealthCheck() domain.HealthStatus {
	details := map[string]any{"count": s.Len(), "path": s.config.Path}
	if !s.Loaded() {
		return domain.HealthStatus{Status: domain.HealthStatusUnhealthy, Message: "Rule file not loaded", Details: details}
	}
	return domain.HealthStatus{Status: domain.HealthStatusHealthy, Details: details}
}

func (s *RuleStore[T]) findEquivalent(rule T) (T, bool) {
	key := rule.EquivalenceKey()
	for _, existing := range s.rules {
		if existing.EquivalenceKey() == key {
			return existing, true
		}
	}
	var zero T
	return zero, false
}

func (s *RuleStore[T]) withFreshID(rule T) T {
	if rule.RuleID() == "" || s.indexOf(rule.RuleID()) >= 0 {
		return rule.WithID(uuid.New().String())
	}
	return rule
}

func (s *RuleStore[T]) indexOf(id string) int {
	return slices.IndexFunc(s.rules, func(r T) bool { return r.RuleID() == id })
}

// publish must be called with mu held.
func (s *RuleStore[T]) publish() {
	snap := slices.Clone(s.rules)
	if snap == nil {
		snap = []T{}
	}
	s.snapshot.Store(&snap)
}
