package notify

const (
	StreamName   = "BENCHMARK_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectResultReady(tenant string) string { return "benchmark." + tenant + ".result.ready" }

func SubjectIndustryUpdated(tenant string) string { return "benchmark." + tenant + ".industry.updated" }

func SubjectSyncFailed(tenant string) string { return "benchmark." + tenant + ".sync.failed" }
