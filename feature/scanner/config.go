package scanner

// Config holds configuration for the discovery scanner.
type Config struct {
	// ScanOnStartup enables the background scan loop when the server starts.
	ScanOnStartup bool `mapstructure:"scan_on_startup" default:"true"`
	// IntervalHours is the wait between scheduled scans.
	IntervalHours int `mapstructure:"interval_hours" default:"6"`
	// PrefixCap bounds how many common prefixes a single listing call may
	// return, as a safety net against runaway buckets.
	PrefixCap int `mapstructure:"prefix_cap" default:"1000"`
}
