package export

import (
	"fmt"
	"github-retriever/internal/scrapers/github"
	"strconv"
	"strings"
)

// NotAvailable fills the discussion row of a repository without discussions.
const NotAvailable = "n/a"

var RepositoryColumns = []string{
	"repo_name",
	"code",
	"issues",
	"pull_requests",
	"discussions",
	"actions",
	"projects",
	"wiki",
	"security",
	"insights",
}

var DiscussionColumns = []string{
	"repo_name",
	"discussion_uri",
	"title",
	"number",
	"state",
	"author",
	"timestamp",
	"emoji",
	"category",
	"converted_from_issue",
}

var PostColumns = []string{
	"repo_name",
	"discussion_uri",
	"author",
	"timestamp",
	"reactions",
	"is_part_of_selected_answer",
	"content",
}

func RepositoryRow(repo github.Repository) []string {
	f := repo.Features
	return []string{
		repo.FullName,
		strconv.FormatBool(f.Code),
		strconv.FormatBool(f.Issues),
		strconv.FormatBool(f.PullRequests),
		strconv.FormatBool(f.Discussions),
		strconv.FormatBool(f.Actions),
		strconv.FormatBool(f.Projects),
		strconv.FormatBool(f.Wiki),
		strconv.FormatBool(f.Security),
		strconv.FormatBool(f.Insights),
	}
}

// DiscussionRows returns one row per discussion of `repo`. A repository
// without discussions still gets a single placeholder row so that it shows
// up in the output.
func DiscussionRows(repo github.Repository) [][]string {
	if len(repo.Discussions) == 0 {
		row := []string{repo.FullName}
		for i := 1; i < len(DiscussionColumns); i++ {
			row = append(row, NotAvailable)
		}
		return [][]string{row}
	}

	rows := make([][]string, 0, len(repo.Discussions))
	for _, d := range repo.Discussions {
		number := ""
		if d.Number > 0 {
			number = strconv.Itoa(d.Number)
		}
		rows = append(rows, []string{
			d.RepoName,
			d.Url,
			d.Title,
			number,
			d.State,
			d.Author,
			d.Timestamp,
			d.Emoji,
			d.Category,
			strconv.FormatBool(d.ConvertedFromIssue),
		})
	}
	return rows
}

func PostRows(repo github.Repository) [][]string {
	var rows [][]string
	for _, d := range repo.Discussions {
		for _, p := range d.Posts {
			rows = append(rows, []string{
				d.RepoName,
				d.Url,
				p.Author,
				p.Timestamp,
				FormatReactions(p.Reactions),
				strconv.FormatBool(p.IsPartOfSelectedAnswer),
				p.Content,
			})
		}
	}
	return rows
}

// FormatReactions renders reactions as `emoji:count` pairs joined by `;`,
// nil reactions are an empty cell.
func FormatReactions(reactions *github.Reactions) string {
	if reactions == nil {
		return ""
	}
	pairs := make([]string, len(reactions.Emojis))
	for i, emoji := range reactions.Emojis {
		pairs[i] = fmt.Sprintf("%s:%d", emoji, reactions.Counts[i])
	}
	return strings.Join(pairs, ";")
}
