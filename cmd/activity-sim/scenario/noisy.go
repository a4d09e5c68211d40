package scenario

// NoisyScenario returns a job that polls a cache many times per run.
// The poll operations live on their own source, so excluding the "noisy."
// prefix keeps the job and drops the polling.
func NoisyScenario() *Scenario {
	return &Scenario{
		Name:        "noisy",
		Description: "Scheduled job with a chatty cache poller, for trying source filters",
		Root: Operation{
			Source:   "scheduler.job",
			Name:     "reconcile accounts",
			Kind:     KindInternal,
			Duration: Duration(60_000_000), // 60ms
			Tags:     map[string]string{"job.name": "reconcile"},
			Children: []Operation{
				{
					Source:   "noisy.cache.poll",
					Name:     "GET accounts",
					Kind:     KindClient,
					Duration: Duration(1_000_000), // 1ms
					Tags:     DBTags("redis", "accounts", "GET account:*"),
					Repeat:   20,
				},
				{
					Source:      "scheduler.db",
					Name:        "UPDATE accounts",
					Kind:        KindClient,
					Duration:    Duration(20_000_000), // 20ms
					Tags:        DBTags("postgresql", "accounts", "UPDATE accounts SET ..."),
					ErrorRate:   0.1,
					ErrorStatus: "deadlock detected",
				},
			},
		},
	}
}
