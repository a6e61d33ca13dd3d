package metrics

import "time"

// RecordIngestCycle records the outcome of one ingestion run.
func RecordIngestCycle(success bool, duration time.Duration, newArticles int) {
	status := "success"
	if !success {
		status = "failure"
	}
	IngestCyclesTotal.WithLabelValues(status).Inc()
	IngestDuration.Observe(duration.Seconds())
	if newArticles > 0 {
		ArticlesNewTotal.Add(float64(newArticles))
	}
}

func RecordAdapterFetched(adapter string, count int) {
	AdapterArticlesFetched.WithLabelValues(adapter).Add(float64(count))
}

func RecordAdapterError(adapter string) {
	AdapterErrorsTotal.WithLabelValues(adapter).Inc()
}

func RecordContentFetchSuccess(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordSearchSync records an index rebuild. docs is ignored on failure.
func RecordSearchSync(success bool, docs int) {
	if !success {
		SearchSyncTotal.WithLabelValues("failure").Inc()
		return
	}
	SearchSyncTotal.WithLabelValues("success").Inc()
	SearchSyncDocuments.Set(float64(docs))
}

func SetRealtimeConnections(n int) {
	RealtimeConnections.Set(float64(n))
}

func UpdateArticlesTotal(count int64) {
	ArticlesTotal.Set(float64(count))
}

func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
