package engine

// Config carries the thresholds the engine applies beyond the per-pool
// automation rules.
type Config struct {
	// MonitorMinAverage is the rolling average under which a health
	// check flags the domain for rotation.
	MonitorMinAverage float64
	// PoolCriticalAverage is the pool-wide average under which an
	// urgent health event fires.
	PoolCriticalAverage float64
	// ReplacementMinScore is the rolling average a ready_waiting domain
	// needs to stand in as a rotation replacement.
	ReplacementMinScore float64
	// TestBatchLimit bounds how many due domains one sweep picks up.
	TestBatchLimit int
}

// DefaultConfig returns the stock engine thresholds.
func DefaultConfig() Config {
	return Config{
		MonitorMinAverage:   65,
		PoolCriticalAverage: 70,
		ReplacementMinScore: 85,
		TestBatchLimit:      200,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MonitorMinAverage <= 0 {
		c.MonitorMinAverage = def.MonitorMinAverage
	}
	if c.PoolCriticalAverage <= 0 {
		c.PoolCriticalAverage = def.PoolCriticalAverage
	}
	if c.ReplacementMinScore <= 0 {
		c.ReplacementMinScore = def.ReplacementMinScore
	}
	if c.TestBatchLimit <= 0 {
		c.TestBatchLimit = def.TestBatchLimit
	}
	return c
}
