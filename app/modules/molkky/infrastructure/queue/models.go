package molkkyqueue

// StaleLobbySweepArgs cancels waiting games older than OlderThanSeconds.
type StaleLobbySweepArgs struct {
	OlderThanSeconds int64 `json:"older_than_seconds"`
}

// Kind returns the job type identifier for River
func (StaleLobbySweepArgs) Kind() string { return "molkky_stale_lobby_sweep" }
