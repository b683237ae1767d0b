package session

import (
	"sync/atomic"
	"time"

	"github.com/tazuo/autoloot/internal/config"
)

// LiveProfile is a domain.Profile whose switches can be changed while the
// session runs. The scanner and queue read it on every tick.
type LiveProfile struct {
	p atomic.Pointer[config.Profile]
}

func NewLiveProfile(p config.Profile) *LiveProfile {
	lp := &LiveProfile{}
	lp.Set(p)
	return lp
}

// Get returns the current switches.
func (lp *LiveProfile) Get() config.Profile {
	return *lp.p.Load()
}

// Set replaces every switch at once.
func (lp *LiveProfile) Set(p config.Profile) {
	lp.p.Store(&p)
}

func (lp *LiveProfile) AutoLootEnabled() bool      { return lp.Get().AutoLoot }
func (lp *LiveProfile) ScavengerEnabled() bool     { return lp.Get().Scavenger }
func (lp *LiveProfile) LootHumanCorpses() bool     { return lp.Get().HumanCorpses }
func (lp *LiveProfile) AutoOpenRange() int         { return lp.Get().OpenRange }
func (lp *LiveProfile) ActionDelay() time.Duration { return lp.Get().Delay }
