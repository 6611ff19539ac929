package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// OwnText returns the text nodes that are direct children of the nodes in
// `sel`, trimmed, in document order. Whitespace-only nodes are skipped.
func OwnText(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.TextNode {
				continue
			}
			text := strings.TrimSpace(child.Data)
			if text == "" {
				continue
			}
			out = append(out, text)
		}
	}
	return out
}

// FirstOwnText is the first entry of OwnText.
func FirstOwnText(sel *goquery.Selection) (string, bool) {
	texts := OwnText(sel)
	if len(texts) == 0 {
		return "", false
	}
	return texts[0], true
}

// FirstAttr returns the first non-empty (trimmed) value of `attr` among the
// nodes in `sel`.
func FirstAttr(sel *goquery.Selection, attr string) (string, bool) {
	for _, n := range sel.Nodes {
		for _, a := range n.Attr {
			if a.Key != attr {
				continue
			}
			value := strings.TrimSpace(a.Val)
			if value != "" {
				return value, true
			}
		}
	}
	return "", false
}

// RenderElementChildren serializes every element child of the nodes in `sel`
// and joins them with newlines. Text and comment children are dropped.
func RenderElementChildren(sel *goquery.Selection) (string, error) {
	var parts []string
	for _, n := range sel.Nodes {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			var buffer bytes.Buffer
			err := html.Render(&buffer, child)
			if err != nil {
				return "", err
			}
			parts = append(parts, strings.TrimSpace(buffer.String()))
		}
	}
	return strings.Join(parts, "\n"), nil
}

type Anchor struct {
	Name string
	Url  *url.URL
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// GetAnchors collects the href of every node in `sel`, resolved against
// `base` when it is not nil. Anchors without an href or with an unparsable
// one are skipped.
func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = strings.TrimSpace(a.Val)
				break
			}
		}
		if href == "" {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		name := GetText(n)
		name = removeNonPrintable(name)
		name = strings.Trim(name, " \t\n")
		name = innerWhitespace.ReplaceAllString(name, " ")

		anchors = append(anchors, Anchor{
			Name: name,
			Url:  link,
		})
	}

	return anchors
}
