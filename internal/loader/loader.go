package loader

import (
	"context"
	"runtime"
	"sync"

	"github.com/remeh/sizedwaitgroup"
	"github.com/rs/zerolog/log"
)

// ProfileRules is the parsed rule file of one character profile.
type ProfileRules[T any] struct {
	Profile ProfileFile `json:"profile"`
	Rules   []T         `json:"rules"`
}

// LoadProfiles parses every profile file concurrently, bounded by the CPU
// count. Results keep the order of files; unparseable files are reported
// as LoadErrors and left out.
func LoadProfiles[T any](ctx context.Context, files []ProfileFile) ([]ProfileRules[T], []LoadError, error) {
	results := make([]*ProfileRules[T], len(files))
	var (
		mu         sync.Mutex
		loadErrors []LoadError
	)

	swg := sizedwaitgroup.New(runtime.NumCPU())
	for i, file := range files {
		if err := swg.AddWithContext(ctx); err != nil {
			swg.Wait()
			return nil, nil, err
		}
		go func(i int, file ProfileFile) {
			defer swg.Done()
			rules, err := ParseFile[T](file.Path)
			if err != nil {
				log.Warn().Err(err).Str("path", file.Path).Msg("Skipping unreadable profile rule file")
				mu.Lock()
				loadErrors = append(loadErrors, LoadError{FilePath: file.Path, Error: err.Error()})
				mu.Unlock()
				return
			}
			results[i] = &ProfileRules[T]{Profile: file, Rules: rules}
		}(i, file)
	}
	swg.Wait()

	out := make([]ProfileRules[T], 0, len(files))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, loadErrors, nil
}
