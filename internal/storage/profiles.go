package storage

import (
	"context"

	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/loader"
)

// DiscoverProfiles loads the rule file named filename of every character
// profile under root (root/<account>/<shard>/<character>/filename).
// Unreadable profile files are skipped.
func DiscoverProfiles[T any](ctx context.Context, root, filename string) ([]loader.ProfileRules[T], error) {
	files, err := loader.ScanProfiles(ctx, root, filename)
	if err != nil {
		return nil, domain.NewAppErrorWithCause(domain.ErrImportFailed, "Failed to scan profiles", 500, err, map[string]any{"root": root})
	}
	profiles, _, err := loader.LoadProfiles[T](ctx, files)
	if err != nil {
		return nil, domain.NewAppErrorWithCause(domain.ErrImportFailed, "Failed to load profiles", 500, err, map[string]any{"root": root})
	}
	return profiles, nil
}

// ImportFromProfile merges another character's rules.
func (s *RuleStore[T]) ImportFromProfile(profile loader.ProfileRules[T]) domain.ImportReport {
	return s.Import(profile.Rules, profile.Profile.Label())
}
