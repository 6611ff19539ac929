package db

type Repository struct {
	ID           int64
	Name         string
	Position     int64
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

type Discussion struct {
	ID                 int64
	RepositoryID       int64
	Position           int64
	Url                string
	Title              string
	Number             int64
	State              string
	Author             string
	Timestamp          string
	Emoji              string
	Category           string
	ConvertedFromIssue bool
}

type Post struct {
	ID                     int64
	DiscussionID           int64
	Position               int64
	Author                 string
	Timestamp              string
	Content                string
	IsPartOfSelectedAnswer bool
}

type Reaction struct {
	PostID   int64
	Position int64
	Emoji    string
	Count    int64
}

type Checkpoint struct {
	ID           int64
	Time         int64
	Repositories int64
}
