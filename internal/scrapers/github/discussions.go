package github

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// CrawlDiscussions walks the discussion listing of `repo` page by page and
// appends every discussion it finds, in the order they are listed. When
// `fetchPosts` is set, each thread is scraped as soon as it is found.
//
// A failed listing request ends the crawl, it is not retried. It returns the
// number of listing pages requested.
func (s *Session) CrawlDiscussions(ctx context.Context, repo *Repository, fetchPosts bool) int {
	ctx, span := tracer.Start(ctx, "Session.CrawlDiscussions")
	defer span.End()
	span.SetAttributes(attribute.String("repo", repo.FullName))

	page := 1
	for {
		if s.opts.MaxDiscussionPages > 0 && page > s.opts.MaxDiscussionPages {
			s.tel.ReportWarning(
				report_session_crawl_discussions,
				fmt.Errorf("stopped at page limit %d", s.opts.MaxDiscussionPages),
				repo.FullName,
			)
			return page - 1
		}

		uri := s.DiscussionPageUrl(*repo, page)
		res := s.Fetch(ctx, uri)
		if res.Kind != FetchOk {
			s.tel.ReportWarning(
				report_session_crawl_discussions,
				fmt.Errorf("access discussions page %d: %s", page, res.Kind),
				repo.FullName,
				res.Status,
				res.Err,
			)
			return page
		}

		doc, err := res.Document()
		if err != nil {
			s.tel.ReportWarning(report_session_crawl_discussions, fmt.Errorf("parse page %d: %w", page, err), repo.FullName)
			return page
		}
		// github serves one empty page past the last one
		if page > 1 && s.schema.IsBlankDiscussionList(doc) {
			s.tel.ReportDebug("reached last discussions page", repo.FullName, page)
			return page
		}

		anchors := s.schema.DiscussionLinks(doc, s.baseUrl)
		// the comment count next to each title links to the same thread
		seen := make(map[string]bool, len(anchors))
		var links []string
		for _, a := range anchors {
			link := a.Url.String()
			if seen[link] {
				continue
			}
			seen[link] = true
			links = append(links, link)
		}
		if len(links) == 0 {
			s.tel.ReportDebug("no discussions found on page", repo.FullName, page)
			return page
		}
		s.tel.ReportDebug("discussions found on page", repo.FullName, page, len(links))

		for _, link := range links {
			repo.Discussions = append(repo.Discussions, Discussion{
				RepoName: repo.FullName,
				Url:      link,
			})
			if fetchPosts {
				s.ExtractPosts(ctx, &repo.Discussions[len(repo.Discussions)-1])
			}
		}
		span.SetAttributes(attribute.Int("discussions", len(repo.Discussions)))

		page++
	}
}
