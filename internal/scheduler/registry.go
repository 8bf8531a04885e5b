package scheduler

// Job is one registry entry: a cron spec bound to an action by name. Inactive
// jobs stay in the registry for visibility but are never scheduled.
type Job struct {
	Name       string
	Spec       string
	ActionName string
	Active     bool
}

// Action names shared between the registry and the action implementations.
const (
	ActionSocialFetch     = "social_fetch"
	ActionNewsFetch       = "news_fetch"
	ActionOfficialFetch   = "official_fetch"
	ActionAnalyticsRollup = "analytics_rollup"
	ActionTrendRollup     = "trend_rollup"
	ActionCollapse        = "cleanup_duplicates"
)

// Registry returns the static job table. Specs are standard five-field cron
// expressions evaluated in the configured scheduler timezone. Social media is
// polled more often during waking hours than overnight.
func Registry() []Job {
	return []Job{
		{
			Name:       "social-monitor-peak",
			Spec:       "*/15 8-22 * * *",
			ActionName: ActionSocialFetch,
			Active:     true,
		},
		{
			Name:       "social-monitor-offpeak",
			Spec:       "0 23,0-7 * * *",
			ActionName: ActionSocialFetch,
			Active:     true,
		},
		{
			Name:       "news-monitor",
			Spec:       "*/20 * * * *",
			ActionName: ActionNewsFetch,
			Active:     true,
		},
		{
			Name:       "official-pages-monitor",
			Spec:       "*/10 * * * *",
			ActionName: ActionOfficialFetch,
			Active:     true,
		},
		{
			Name:       "analytics-rollup",
			Spec:       "30 2 * * *",
			ActionName: ActionAnalyticsRollup,
			Active:     true,
		},
		{
			Name:       "trend-rollup",
			Spec:       "0 3 * * 1",
			ActionName: ActionTrendRollup,
			Active:     true,
		},
		// Duplicate cleanup is normally triggered over HTTP; the registry row
		// exists so operators can flip it on without a code change elsewhere.
		{
			Name:       "duplicate-collapse",
			Spec:       "15 3 * * *",
			ActionName: ActionCollapse,
			Active:     false,
		},
	}
}
