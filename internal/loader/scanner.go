package loader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
)

// ProfileFile is a rule file belonging to one character profile laid out
// as root/<account>/<shard>/<character>/<file>.
type ProfileFile struct {
	Path      string `json:"path"`
	Account   string `json:"account"`
	Shard     string `json:"shard"`
	Character string `json:"character"`
}

// Label is the "account/shard/character" form used in import reports.
func (p ProfileFile) Label() string {
	return p.Account + "/" + p.Shard + "/" + p.Character
}

// ScanProfiles lists every character directory under root that holds a
// file named filename. Unreadable directories are skipped.
func ScanProfiles(ctx context.Context, root, filename string) ([]ProfileFile, error) {
	accounts, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var files []ProfileFile
	for _, account := range accounts {
		if !account.IsDir() {
			continue
		}
		shards, err := os.ReadDir(filepath.Join(root, account.Name()))
		if err != nil {
			continue
		}
		for _, shard := range shards {
			if !shard.IsDir() {
				continue
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			shardDir := filepath.Join(root, account.Name(), shard.Name())
			characters, err := os.ReadDir(shardDir)
			if err != nil {
				continue
			}
			for _, character := range characters {
				if !character.IsDir() {
					continue
				}
				path := filepath.Join(shardDir, character.Name(), filename)
				if info, err := os.Stat(path); err != nil || info.IsDir() {
					continue
				}
				files = append(files, ProfileFile{
					Path:      path,
					Account:   account.Name(),
					Shard:     shard.Name(),
					Character: character.Name(),
				})
			}
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
