// Package health reports whether navkitd can serve navigation.
//
// A Checker reports the Status of one component: a sitemap that must build,
// the Redis instance carrying release broadcasts, or anything wrapped with
// NewCheckerFunc. An Aggregator runs its checkers concurrently under a shared
// timeout and folds their results into one Status, which the HTTP handlers
// expose as Kubernetes-style probes:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewSiteMapChecker("www", l, "sitemap://www.example.com/"))
//	agg.Register(health.NewRedisChecker(client))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg) // /healthz, /readyz, /health, /health/{name}
package health
