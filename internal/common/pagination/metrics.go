package pagination

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_pagination_requests_total",
		Help: "Paged feed requests by response status and page depth",
	}, []string{"status", "page_range"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_pagination_errors_total",
		Help: "Paged feed requests rejected (validation) or failed (database)",
	}, []string{"type"})
)

// pageRanges are the upper bounds of the page depth buckets, shallowest first.
var pageRanges = []struct {
	max   int
	label string
}{
	{10, "1-10"},
	{50, "11-50"},
	{100, "51-100"},
}

func RecordRequest(statusCode, page int) {
	requestsTotal.WithLabelValues(strconv.Itoa(statusCode), pageRangeBucket(page)).Inc()
}

func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}

func pageRangeBucket(page int) string {
	for _, r := range pageRanges {
		if page <= r.max {
			return r.label
		}
	}
	return "100+"
}
