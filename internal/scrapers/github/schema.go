package github

import (
	"github-retriever/internal/components/htmlutil"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Text is a value pulled out of a page. Found is false when nothing matched
// the selector, which callers report as a missing field.
type Text struct {
	Value string
	Found bool
}

func found(value string, ok bool) Text {
	return Text{Value: value, Found: ok}
}

// RawMetadata is the header of a discussion thread as it appears in the markup.
type RawMetadata struct {
	Title      Text
	Number     Text
	State      Text
	AuthorHref Text
	Emoji      Text
	Category   Text
	Timestamp  Text
	// ConversionRemark is the text next to the "converted from issue" icon.
	ConversionRemark Text
}

// RawPost is a single comment of a discussion thread as it appears in the markup.
type RawPost struct {
	AuthorHref     Text
	Timestamp      Text
	SelectedAnswer bool
	// HasBody is false when the post has no comment body container at all.
	HasBody bool
	Content string
	Emojis  []string
	Counts  []string
}

// PageSchema knows where things are in one version of github's markup. When
// the markup changes a new implementation is added, the extraction logic in
// Session stays the same.
type PageSchema interface {
	// NavigationLabels returns the text nodes of every item in the repository
	// navigation bar, one slice per item.
	NavigationLabels(doc *goquery.Document) [][]string
	// DiscussionLinks returns the thread links on a discussion listing page,
	// resolved against `base`.
	DiscussionLinks(doc *goquery.Document, base *url.URL) []htmlutil.Anchor
	// IsBlankDiscussionList reports whether a listing page is the
	// "no discussions" placeholder.
	IsBlankDiscussionList(doc *goquery.Document) bool
	DiscussionMetadata(doc *goquery.Document) RawMetadata
	DiscussionPosts(doc *goquery.Document) ([]RawPost, error)
}
