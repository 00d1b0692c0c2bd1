package config

// Default values applied to a loaded matrix document.
const (
	// DefaultConcurrencyGroup is the shared lock domain used when the
	// document does not name one. All runs contend on it, so at most one
	// execution is active system-wide by default.
	DefaultConcurrencyGroup = "ci"

	// DefaultCacheNamespace is the logical cache namespace used when the
	// document does not configure a cache key.
	DefaultCacheNamespace = "deps"
)

// applyDefaults fills in default values for optional fields.
func applyDefaults(m *Matrix) {
	if m.Name == "" {
		m.Name = "ci"
	}

	if m.Concurrency == "" {
		m.Concurrency = DefaultConcurrencyGroup
	}

	// No trigger section means run on any push.
	if m.On == nil {
		m.On = &TriggerConfig{Push: &EventConfig{}}
	}

	if m.Cache == nil {
		m.Cache = &CacheConfig{}
	}
	if m.Cache.Key == "" {
		m.Cache.Key = DefaultCacheNamespace
	}

	for i := range m.Groups {
		if m.Groups[i].Executor == "" {
			m.Groups[i].Executor = ExecutorNative
		}
	}
}
