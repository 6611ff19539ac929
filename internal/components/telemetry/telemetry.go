package telemetry

import (
	"fmt"
)

// API is what every component reports through, a Recorder stands in for it in tests.
//
// Ids name a component and method (`session.extract-posts`), lowercase with
// dashes inside a method name. Wrap the component in a ScopedAPI for the
// package prefix and put details in params, not in the id.
type API interface {
	// ReportBroken reports a failure that loses data, ex. a thread that could not be fetched.
	ReportBroken(id string, params ...any)
	// ReportWarning reports something worth a look that the crawl recovered from,
	// ex. an unknown nav label or a post without a timestamp.
	ReportWarning(id string, params ...any)
	ReportDebug(msg string, params ...any)
	// ReportCount reports a point in time value, ex. rows written to a csv file.
	ReportCount(id string, count int64)
}

// ScopedAPI is a telemetry API that attaches a namespace for a given API, kind of like creating a
// "sub" logger using things like log.New(), in which you can define the prefix for the logs.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI creates a ScopedAPI out of a given namespace and another api.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
