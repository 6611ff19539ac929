package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ExtractPosts scrapes the thread page of `discussion`, filling in its
// metadata and posts. The page is requested once. If that fails the
// discussion keeps empty metadata and no posts.
//
// Fields are extracted independently, a field that cannot be found is
// reported and left empty without affecting the others.
func (s *Session) ExtractPosts(ctx context.Context, discussion *Discussion) {
	ctx, span := tracer.Start(ctx, "Session.ExtractPosts")
	defer span.End()
	span.SetAttributes(attribute.String("discussion", discussion.Url))

	res := s.Fetch(ctx, discussion.Url)
	if res.Kind != FetchOk {
		span.SetStatus(codes.Error, res.Kind.String())
		s.tel.ReportWarning(
			report_session_extract_posts,
			fmt.Errorf("access discussion: %s", res.Kind),
			discussion.Url,
			res.Status,
			res.Err,
		)
		return
	}
	doc, err := res.Document()
	if err != nil {
		span.SetStatus(codes.Error, "parse")
		s.tel.ReportBroken(report_session_extract_posts, fmt.Errorf("parse: %w", err), discussion.Url)
		return
	}

	s.applyMetadata(discussion, s.schema.DiscussionMetadata(doc))

	raw, err := s.schema.DiscussionPosts(doc)
	if err != nil {
		s.tel.ReportBroken(report_session_extract_posts, err, discussion.Url)
		return
	}
	for _, r := range raw {
		discussion.Posts = append(discussion.Posts, s.buildPost(discussion, r))
	}
	span.SetAttributes(attribute.Int("posts", len(discussion.Posts)))
	s.tel.ReportDebug("retrieved posts", discussion.Url, len(discussion.Posts))
}

func (s *Session) missingField(discussion *Discussion, field string) {
	s.tel.ReportWarning(report_session_discussion_field, fmt.Errorf("could not find %s", field), discussion.Url)
}

func (s *Session) applyMetadata(discussion *Discussion, meta RawMetadata) {
	if meta.Title.Found {
		discussion.Title = meta.Title.Value
	} else {
		s.missingField(discussion, "title")
	}

	if meta.Number.Found {
		number, err := ParseDiscussionNumber(meta.Number.Value)
		if err != nil {
			s.tel.ReportWarning(report_session_discussion_field, err, discussion.Url)
		} else {
			discussion.Number = number
		}
	} else {
		s.missingField(discussion, "number")
	}

	if meta.State.Found {
		discussion.State = meta.State.Value
	} else {
		s.missingField(discussion, "state")
	}

	if meta.AuthorHref.Found {
		discussion.Author = AuthorFromHref(meta.AuthorHref.Value)
	} else {
		s.missingField(discussion, "author")
	}

	if meta.Emoji.Found {
		discussion.Emoji = meta.Emoji.Value
	} else {
		s.missingField(discussion, "emoji")
	}

	if meta.Category.Found {
		discussion.Category = meta.Category.Value
	} else {
		s.missingField(discussion, "category")
	}

	if meta.Timestamp.Found {
		discussion.Timestamp = meta.Timestamp.Value
	} else {
		s.missingField(discussion, "timestamp")
	}

	discussion.ConvertedFromIssue = meta.ConversionRemark.Found &&
		meta.ConversionRemark.Value == ConvertedFromIssueText
}

func (s *Session) buildPost(discussion *Discussion, raw RawPost) Post {
	post := Post{
		Content:                raw.Content,
		IsPartOfSelectedAnswer: raw.SelectedAnswer,
	}

	if raw.AuthorHref.Found {
		post.Author = AuthorFromHref(raw.AuthorHref.Value)
	} else {
		s.tel.ReportWarning(report_session_post_field, fmt.Errorf("could not find author"), discussion.Url)
	}
	if raw.Timestamp.Found {
		post.Timestamp = raw.Timestamp.Value
	} else {
		s.tel.ReportWarning(report_session_post_field, fmt.Errorf("could not find timestamp"), discussion.Url)
	}
	if !raw.HasBody {
		s.tel.ReportWarning(report_session_post_field, fmt.Errorf("could not find content"), discussion.Url)
	}

	reactions, err := ParseReactions(raw.Emojis, raw.Counts)
	if err != nil {
		s.tel.ReportWarning(report_session_post_field, err, discussion.Url)
	}
	post.Reactions = reactions

	return post
}

// ParseDiscussionNumber parses the `#123` token in a thread header.
func ParseDiscussionNumber(text string) (int, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(text), "#")
	number, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse discussion number %q: %w", text, err)
	}
	if number <= 0 {
		return 0, fmt.Errorf("discussion number %q is not positive", text)
	}
	return number, nil
}

// AuthorFromHref turns a profile link (`/octocat`) into a user handle.
func AuthorFromHref(href string) string {
	parsed, err := url.Parse(href)
	if err == nil {
		href = parsed.Path
	}
	return strings.Trim(href, "/")
}

// ParseReactions pairs reaction emojis with their counts. It returns nil when
// either list is empty, and nil with an error when they cannot be paired.
func ParseReactions(emojis []string, counts []string) (*Reactions, error) {
	if len(emojis) == 0 || len(counts) == 0 {
		return nil, nil
	}
	if len(emojis) != len(counts) {
		return nil, fmt.Errorf("%d reaction emojis but %d counts", len(emojis), len(counts))
	}

	parsed := make([]int, len(counts))
	for i, c := range counts {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("parse reaction count %q: %w", c, err)
		}
		parsed[i] = n
	}
	return &Reactions{
		Emojis: append([]string(nil), emojis...),
		Counts: parsed,
	}, nil
}
