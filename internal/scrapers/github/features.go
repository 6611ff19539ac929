package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// featureNames maps a navigation label to the flag it enables.
var featureNames = map[string]func(*Features){
	"Code":          func(f *Features) { f.Code = true },
	"Issues":        func(f *Features) { f.Issues = true },
	"Pull requests": func(f *Features) { f.PullRequests = true },
	"Discussions":   func(f *Features) { f.Discussions = true },
	"Actions":       func(f *Features) { f.Actions = true },
	"Projects":      func(f *Features) { f.Projects = true },
	"Wiki":          func(f *Features) { f.Wiki = true },
	"Security":      func(f *Features) { f.Security = true },
	"Insights":      func(f *Features) { f.Insights = true },
}

var ErrUnknownFeature = errors.New("unknown feature")

// UnknownFeatureError is returned by ProcessFeature for a navigation item
// that is not one of the nine known features.
type UnknownFeatureError struct {
	Label []string
	// Closest is the known feature name most similar to the label.
	Closest string
}

func (e UnknownFeatureError) Error() string {
	if e.Closest == "" {
		return fmt.Sprintf("unknown feature %q", e.Label)
	}
	return fmt.Sprintf("unknown feature %q (closest: %q)", e.Label, e.Closest)
}

func (e UnknownFeatureError) Unwrap() error {
	return ErrUnknownFeature
}

// ProcessFeature sets the flag named by a navigation item. The item is one or
// two text nodes, the feature name optionally followed by a counter.
func ProcessFeature(features *Features, label []string) error {
	if len(label) != 1 && len(label) != 2 {
		return UnknownFeatureError{Label: label}
	}
	set, ok := featureNames[label[0]]
	if !ok {
		return UnknownFeatureError{Label: label, Closest: closestFeature(label[0])}
	}
	set(features)
	return nil
}

func closestFeature(name string) string {
	best := ""
	bestScore := 0.0
	for known := range featureNames {
		score := matchr.JaroWinkler(strings.ToLower(name), strings.ToLower(known), false)
		if score > bestScore || (score == bestScore && known < best) {
			best = known
			bestScore = score
		}
	}
	if bestScore < 0.8 {
		return ""
	}
	return best
}

// RetryPolicy bounds how often a page is fetched again when it came back
// empty or failed.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy makes at most 101 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 101}
}

type RetryResult struct {
	Attempts int
	Resolved bool
	// GaveUp is true when the attempts ran out before any feature was found.
	GaveUp bool
}

// ExtractFeatures fetches the landing page of `repo` until at least one
// feature is found or the policy runs out. Github sometimes renders the page
// without its navigation bar, so an empty parse is retried like a failed
// request.
func (s *Session) ExtractFeatures(ctx context.Context, repo *Repository, policy RetryPolicy) RetryResult {
	ctx, span := tracer.Start(ctx, "Session.ExtractFeatures")
	defer span.End()
	span.SetAttributes(attribute.String("repo", repo.FullName))

	uri := s.RepositoryUrl(*repo)
	result := RetryResult{Resolved: repo.Features.Any()}

	for !repo.Features.Any() && result.Attempts < policy.MaxAttempts {
		if ctx.Err() != nil {
			s.tel.ReportWarning(report_session_extract_features, ctx.Err(), repo.FullName)
			break
		}
		result.Attempts++

		res := s.Fetch(ctx, uri)
		if res.Kind != FetchOk {
			s.tel.ReportWarning(
				report_session_extract_features,
				fmt.Errorf("access repository: %s", res.Kind),
				repo.FullName,
				res.Status,
				res.Err,
			)
			continue
		}

		doc, err := res.Document()
		if err != nil {
			s.tel.ReportWarning(report_session_extract_features, fmt.Errorf("parse: %w", err), repo.FullName)
			continue
		}
		for _, label := range s.schema.NavigationLabels(doc) {
			err := ProcessFeature(&repo.Features, label)
			if err != nil {
				s.tel.ReportWarning(report_session_unknown_feature, err, repo.FullName)
			}
		}

		if !repo.Features.Any() {
			s.tel.ReportWarning(
				report_session_extract_features,
				fmt.Errorf("no features found, trying again"),
				repo.FullName,
				result.Attempts,
			)
		}
	}

	result.Resolved = repo.Features.Any()
	result.GaveUp = !result.Resolved && result.Attempts >= policy.MaxAttempts
	span.SetAttributes(attribute.Int("attempts", result.Attempts))
	if result.GaveUp {
		span.SetStatus(codes.Error, "gave up")
		s.tel.ReportBroken(
			report_session_extract_features,
			fmt.Errorf("reached %d attempts, giving up", result.Attempts),
			repo.FullName,
		)
	} else if result.Resolved {
		s.tel.ReportDebug("retrieved features", repo.FullName, result.Attempts)
	}
	return result
}
