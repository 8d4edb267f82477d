// Agent roster.
//
// Information Hiding:
// - Per-agent logger naming
// - Role descriptions shown by the CLI

package agent

import "log/slog"

// Agent names used as the "agent" log attribute.
const (
	NameConfig     = "Config"
	NameWatchman   = "Watchman"
	NameAnalyst    = "Analyst"
	NameDispatcher = "Dispatcher"
)

// Config describes one agent in the pipeline.
type Config struct {
	// Name is the log attribute value.
	Name string

	// Role is the short functional title.
	Role string

	// Description explains what this agent does.
	Description string
}

// Roster returns the four agents in pipeline order.
func Roster() []Config {
	return []Config{
		{
			Name:        NameConfig,
			Role:        "Dependency Mapper",
			Description: "Turns a business description into the materials it depends on and their dominant export countries",
		},
		{
			Name:        NameWatchman,
			Role:        "Signal Collector",
			Description: "Searches for logistics, weather, and political news from the last 7 days",
		},
		{
			Name:        NameAnalyst,
			Role:        "Risk Scorer",
			Description: "Scores supply risk from 0 to 10 from the collected news",
		},
		{
			Name:        NameDispatcher,
			Role:        "Alert Gate",
			Description: "Raises one alert per dependency per day when the score reaches the threshold",
		},
	}
}

// Logger returns base tagged with the agent name.
func Logger(base *slog.Logger, name string) *slog.Logger {
	return base.With("agent", name)
}
