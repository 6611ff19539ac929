package github

// Features are the tabs a repository shows in its navigation bar.
type Features struct {
	Code         bool
	Issues       bool
	PullRequests bool
	Discussions  bool
	Actions      bool
	Projects     bool
	Wiki         bool
	Security     bool
	Insights     bool
}

// Any reports whether at least one feature was found, a repository with
// all features false has not been resolved yet.
func (f Features) Any() bool {
	return f.Code || f.Issues || f.PullRequests || f.Discussions || f.Actions ||
		f.Projects || f.Wiki || f.Security || f.Insights
}

// Repository is a repository named `owner/name` together with everything
// scraped from it.
type Repository struct {
	FullName    string
	Features    Features
	Discussions []Discussion
}

func NewRepository(fullName string) Repository {
	return Repository{FullName: fullName}
}

func (r Repository) String() string {
	return r.FullName
}

// PostCount is the number of posts over all of the repository's discussions.
func (r Repository) PostCount() int {
	n := 0
	for _, d := range r.Discussions {
		n += len(d.Posts)
	}
	return n
}

// Discussion is a discussion thread, identified by its repository and its
// absolute url. Metadata fields are left empty until its thread page has been
// scraped.
type Discussion struct {
	RepoName           string
	Url                string
	Title              string
	Number             int
	State              string
	Author             string
	Timestamp          string
	Emoji              string
	Category           string
	ConvertedFromIssue bool
	Posts              []Post
}

func (d Discussion) String() string {
	return d.Url
}

// Reactions are the emoji reactions under a post. Emojis and Counts always
// have the same, non-zero length.
type Reactions struct {
	Emojis []string
	Counts []int
}

type Post struct {
	Author    string
	Timestamp string
	// Content is the rendered html of the post body, one block element per line.
	Content string
	// IsPartOfSelectedAnswer is true for the accepted answer and for every
	// reply nested under it.
	IsPartOfSelectedAnswer bool
	// Reactions is nil when nobody reacted.
	Reactions *Reactions
}
