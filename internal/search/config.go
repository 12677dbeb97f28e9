package search

// Limits are the stop conditions of spec.md §4.7: any field ≥ 0 is
// active; -1 means unbounded.
type Limits struct {
	Playouts int64
	Visits   int64
	TimeMs   int64
}

// active reports whether any limit is set.
func (l Limits) active() bool {
	return l.Playouts >= 0 || l.Visits >= 0 || l.TimeMs >= 0
}

// Config is the enumerated configuration surface of spec.md §6: a
// fixed-point cpuct (CpuctX100) rather than a log-scaled one, since
// the exploration constant here doesn't need to track a growing
// visit count the way a log-scaled formulation would.
type Config struct {
	MiniBatchSize     int
	PrefetchCap       int
	AggressiveCaching bool
	CpuctX100         int
	MaxNodes          int
	Workers           int
	Limits            Limits
}

// DefaultConfig returns spec.md §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		MiniBatchSize:     16,
		PrefetchCap:       64,
		AggressiveCaching: false,
		CpuctX100:         170,
		MaxNodes:          1 << 20,
		Workers:           1,
		Limits:            Limits{Playouts: -1, Visits: -1, TimeMs: -1},
	}
}

// Cpuct is the exploration constant as a float, derived from CpuctX100.
func (c Config) Cpuct() float64 { return float64(c.CpuctX100) / 100.0 }

// Validate rejects out-of-range configuration up front, rather than
// clamping silently mid-search.
func (c Config) Validate() error {
	if c.MiniBatchSize < 1 || c.MiniBatchSize > 1024 {
		return errConfigRange("mini_batch_size", c.MiniBatchSize, 1, 1024)
	}
	if c.PrefetchCap < 0 || c.PrefetchCap > 1024 {
		return errConfigRange("prefetch_cap", c.PrefetchCap, 0, 1024)
	}
	if c.CpuctX100 < 0 || c.CpuctX100 > 9999 {
		return errConfigRange("cpuct_x100", c.CpuctX100, 0, 9999)
	}
	if c.Workers < 1 {
		return errConfigRange("workers", c.Workers, 1, 1<<20)
	}
	if c.MaxNodes < 1 {
		return errConfigRange("max_nodes", c.MaxNodes, 1, 1<<62)
	}
	return nil
}
