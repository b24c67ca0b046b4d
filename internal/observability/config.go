package observability

// Config captures opt-in observability toggles.
type Config struct {
	// StatsviewAddr serves live runtime charts at /debug/statsview when set.
	StatsviewAddr string `yaml:"statsview_addr"`
	// EnablePprof mounts the pprof handlers on the diagnostics server.
	EnablePprof bool `yaml:"enable_pprof"`
}

// Enabled reports whether any observability surface is switched on.
func (c Config) Enabled() bool {
	return c.StatsviewAddr != "" || c.EnablePprof
}
