package circuit

import (
	"sync"
	"time"

	"github.com/zalando/failrate/metrics"
)

const DefaultIdleTTL = time.Hour

// Options are the initialization options of the registry.
type Options struct {
	// Defaults contain the settings used for every host, unless
	// overridden by the host settings or by the settings passed to Get.
	Defaults BreakerSettings

	// HostSettings contain the settings of individual hosts. Settings
	// with the same host are merged, the first one wins. Settings without
	// a host are merged into the defaults, taking precedence over them.
	HostSettings []BreakerSettings

	// Metrics receives the breaker measurements. Defaults to
	// metrics.Default.
	Metrics metrics.Metrics
}

// Registry objects hold the active circuit breakers, ensure synchronized access to them, apply default settings
// and recycle the idle breakers.
type Registry struct {
	defaults     BreakerSettings
	hostSettings map[string]BreakerSettings
	lookup       map[BreakerSettings]*Breaker
	access       *accessList
	metrics      metrics.Metrics
	mx           *sync.Mutex
}

// NewRegistry initializes a registry with the provided default settings. Settings with the same Host field are
// merged together.
func NewRegistry(o Options) *Registry {
	var (
		global    BreakerSettings
		hasGlobal bool
	)

	hs := make(map[string]BreakerSettings)
	for _, s := range o.HostSettings {
		if s.Host == "" {
			if hasGlobal {
				global = global.mergeSettings(s)
			} else {
				global, hasGlobal = s, true
			}

			continue
		}

		if sh, ok := hs[s.Host]; ok {
			hs[s.Host] = sh.mergeSettings(s)
		} else {
			hs[s.Host] = s
		}
	}

	defaults := o.Defaults
	defaults.Host = ""
	if hasGlobal {
		defaults = global.mergeSettings(defaults)
	}

	if defaults.IdleTTL <= 0 {
		defaults.IdleTTL = DefaultIdleTTL
	}

	for h, s := range hs {
		hs[h] = s.mergeSettings(defaults)
	}

	m := o.Metrics
	if m == nil {
		m = metrics.Default
	}

	return &Registry{
		defaults:     defaults,
		hostSettings: hs,
		lookup:       make(map[BreakerSettings]*Breaker),
		access:       &accessList{},
		metrics:      m,
		mx:           &sync.Mutex{},
	}
}

func (r *Registry) mergeDefaults(s BreakerSettings) BreakerSettings {
	defaults, ok := r.hostSettings[s.Host]
	if !ok {
		defaults = r.defaults
	}

	return s.mergeSettings(defaults)
}

func (r *Registry) dropIdle(now time.Time) {
	evicted := r.access.evict(func(b *Breaker) bool {
		return b.idle(now)
	})

	for _, b := range evicted {
		delete(r.lookup, b.settings)
	}

	if len(evicted) > 0 {
		r.metrics.IncCounterBy(metrics.KeyBreakerEvicted, int64(len(evicted)))
	}
}

func (r *Registry) get(s BreakerSettings) *Breaker {
	r.mx.Lock()
	defer r.mx.Unlock()

	now := time.Now()

	b, ok := r.lookup[s]
	if !ok || b.idle(now) {
		if ok {
			r.access.unlink(b)
			delete(r.lookup, s)
			r.metrics.IncCounter(metrics.KeyBreakerEvicted)
		}

		// check if there is any other to evict, evict if yes
		r.dropIdle(now)

		// create a new one
		b = newBreaker(s, r.metrics)
		r.lookup[s] = b
	}

	// set the access timestamp
	b.ts = now
	r.access.touch(b)

	return b
}

// Get returns a circuit breaker for the provided settings, or nil, when no breaker or a disabled one is
// configured for the host. The BreakerSettings object is used here as a key,
// but typically it is enough to just set its Host field:
//
//	r.Get(BreakerSettings{Host: backendHost})
//
// The key will be filled up with the defaults and the matching circuit breaker will be returned if it exists,
// or a new one will be created if not.
func (r *Registry) Get(s BreakerSettings) *Breaker {
	// we check for host, because we don't want to use shared global breakers
	if s.Type == BreakerDisabled || s.Host == "" {
		return nil
	}

	s = r.mergeDefaults(s)
	if s.Type == BreakerNone || s.Type == BreakerDisabled {
		return nil
	}

	return r.get(s)
}

// Len returns the number of the active breakers.
func (r *Registry) Len() int {
	r.mx.Lock()
	defer r.mx.Unlock()
	return len(r.lookup)
}
