package github

import (
	"fmt"
	"github-retriever/internal/components/htmlutil"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	BlankDiscussionListText = "There aren't any discussions."
	ConvertedFromIssueText  = "Converted from issue"
)

// ClassicLayout is the server rendered markup that uses `UnderlineNav`
// navigation bars and `timeline-comment` threads.
type ClassicLayout struct{}

var _ PageSchema = ClassicLayout{}

func (ClassicLayout) NavigationLabels(doc *goquery.Document) [][]string {
	var labels [][]string
	doc.Find(`ul[class*="UnderlineNav-body"] > li`).Each(func(_ int, item *goquery.Selection) {
		// the name of the feature, optionally followed by a counter badge
		spans := item.ChildrenFiltered("a").ChildrenFiltered("span")
		labels = append(labels, htmlutil.OwnText(spans))
	})
	return labels
}

func (ClassicLayout) DiscussionLinks(doc *goquery.Document, base *url.URL) []htmlutil.Anchor {
	return htmlutil.GetAnchors(base, doc.Find(`a[data-hovercard-type*="discussion"]`))
}

func (ClassicLayout) IsBlankDiscussionList(doc *goquery.Document) bool {
	heading := doc.Find(`div[class*="blankslate"] > h3`).First()
	return strings.TrimSpace(heading.Text()) == BlankDiscussionListText
}

func (ClassicLayout) DiscussionMetadata(doc *goquery.Document) RawMetadata {
	header := doc.Find("div.gh-header-meta")
	emoji := header.Find("g-emoji.f5")
	sidebarIcon := doc.Find("div.discussion-sidebar-item svg.octicon-issue-opened")

	return RawMetadata{
		Title:            found(htmlutil.FirstOwnText(doc.Find("span.js-issue-title"))),
		Number:           found(htmlutil.FirstOwnText(doc.Find("span.gh-header-number"))),
		State:            found(htmlutil.FirstOwnText(header.Find("span.State"))),
		AuthorHref:       found(htmlutil.FirstAttr(header.Find("a.author"), "href")),
		Emoji:            found(htmlutil.FirstOwnText(emoji)),
		Category:         found(htmlutil.FirstOwnText(emoji.Parent())),
		Timestamp:        found(htmlutil.FirstAttr(header.Find("time-ago"), "datetime")),
		ConversionRemark: found(htmlutil.FirstOwnText(sidebarIcon.Parent())),
	}
}

func (ClassicLayout) DiscussionPosts(doc *goquery.Document) ([]RawPost, error) {
	var posts []RawPost
	var renderErr error
	doc.Find("div.discussion div.timeline-comment").EachWithBreak(func(_ int, comment *goquery.Selection) bool {
		post := RawPost{
			AuthorHref: found(htmlutil.FirstAttr(comment.Find("a.author"), "href")),
			Timestamp:  found(htmlutil.FirstAttr(comment.Find("time-ago"), "datetime")),
			// the check mark is either on the answer itself or on the thread
			// container a reply is nested in
			SelectedAnswer: comment.Find("svg.octicon-check").Length() > 0 ||
				comment.ParentsFiltered("div.discussion-comment").Find("svg.octicon-check").Length() > 0,
		}

		body := comment.Find("td.comment-body")
		post.HasBody = body.Length() > 0
		content, err := htmlutil.RenderElementChildren(body)
		if err != nil {
			renderErr = fmt.Errorf("render post body: %w", err)
			return false
		}
		post.Content = content

		// the reaction picker sits at a fixed depth inside the comment
		picker := comment.Children().Children().Children().Children().ChildrenFiltered("form.js-pick-reaction")
		post.Emojis = htmlutil.OwnText(picker.Find("g-emoji"))
		post.Counts = htmlutil.OwnText(picker.Find("span"))

		posts = append(posts, post)
		return true
	})
	if renderErr != nil {
		return nil, renderErr
	}
	return posts, nil
}
