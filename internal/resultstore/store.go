package resultstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github-retriever/internal/components/assert"
	"github-retriever/internal/components/chrono"
	"github-retriever/internal/components/telemetry"
	"github-retriever/internal/db"
	"github-retriever/internal/scrapers/github"
	"time"
)

const (
	report_db_query = "db.query"
	report_export   = "result-store.export"
)

// Store keeps the latest state of a run in a sqlite (or libsql) database.
// Every export replaces what was stored before.
type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	clock  chrono.API
	tel    telemetry.API
}

func NewStore(database *sql.DB, clock chrono.API, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(clock)
	assert.NotNil(tel)

	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		clock:  clock,
		tel:    telemetry.NewScopedAPI("result_store", tel),
	}
}

// Export replaces the stored repositories with `repos` and records a
// checkpoint, all in one transaction.
func (s Store) Export(ctx context.Context, repos []github.Repository) error {
	if len(repos) == 0 {
		s.tel.ReportDebug("nothing to export")
		return nil
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	err = s.clear(ctx, tx)
	if err != nil {
		return err
	}

	for i, repo := range repos {
		err := s.insertRepository(ctx, tx, int64(i), repo)
		if err != nil {
			s.tel.ReportBroken(report_export, err, repo.FullName)
			return err
		}
	}

	param := db.CreateCheckpointParams{
		Time:         s.clock.Now().Unix(),
		Repositories: int64(len(repos)),
	}
	err = tx.CreateCheckpoint(ctx, param)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateCheckpoint", param)
		return err
	}

	err = commit()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("commit: %w", err))
		return err
	}
	s.tel.ReportDebug("exported repositories", len(repos))
	return nil
}

func (s Store) clear(ctx context.Context, tx *db.Queries) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"DeleteReactions", tx.DeleteReactions},
		{"DeletePosts", tx.DeletePosts},
		{"DeleteDiscussions", tx.DeleteDiscussions},
		{"DeleteRepositories", tx.DeleteRepositories},
	}
	for _, step := range steps {
		err := step.run(ctx)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, step.name)
			return err
		}
	}
	return nil
}

func (s Store) insertRepository(ctx context.Context, tx *db.Queries, position int64, repo github.Repository) error {
	f := repo.Features
	repositoryId, err := tx.CreateRepository(ctx, db.CreateRepositoryParams{
		Name:         repo.FullName,
		Position:     position,
		Code:         f.Code,
		Issues:       f.Issues,
		PullRequests: f.PullRequests,
		Discussions:  f.Discussions,
		Actions:      f.Actions,
		Projects:     f.Projects,
		Wiki:         f.Wiki,
		Security:     f.Security,
		Insights:     f.Insights,
	})
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}

	for i, d := range repo.Discussions {
		discussionId, err := tx.CreateDiscussion(ctx, db.CreateDiscussionParams{
			RepositoryID:       repositoryId,
			Position:           int64(i),
			Url:                d.Url,
			Title:              d.Title,
			Number:             int64(d.Number),
			State:              d.State,
			Author:             d.Author,
			Timestamp:          d.Timestamp,
			Emoji:              d.Emoji,
			Category:           d.Category,
			ConvertedFromIssue: d.ConvertedFromIssue,
		})
		if err != nil {
			return fmt.Errorf("create discussion %s: %w", d.Url, err)
		}

		for j, p := range d.Posts {
			postId, err := tx.CreatePost(ctx, db.CreatePostParams{
				DiscussionID:           discussionId,
				Position:               int64(j),
				Author:                 p.Author,
				Timestamp:              p.Timestamp,
				Content:                p.Content,
				IsPartOfSelectedAnswer: p.IsPartOfSelectedAnswer,
			})
			if err != nil {
				return fmt.Errorf("create post %d of %s: %w", j, d.Url, err)
			}
			if p.Reactions == nil {
				continue
			}
			for k, emoji := range p.Reactions.Emojis {
				err := tx.CreateReaction(ctx, db.CreateReactionParams{
					PostID:   postId,
					Position: int64(k),
					Emoji:    emoji,
					Count:    int64(p.Reactions.Counts[k]),
				})
				if err != nil {
					return fmt.Errorf("create reaction: %w", err)
				}
			}
		}
	}
	return nil
}

// Load reads back everything stored by the last Export, in the same order.
func (s Store) Load(ctx context.Context) ([]github.Repository, error) {
	dbRepos, err := s.qry.GetRepositories(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetRepositories")
		return nil, err
	}

	repos := make([]github.Repository, 0, len(dbRepos))
	for _, r := range dbRepos {
		repo := github.NewRepository(r.Name)
		repo.Features = github.Features{
			Code:         r.Code,
			Issues:       r.Issues,
			PullRequests: r.PullRequests,
			Discussions:  r.Discussions,
			Actions:      r.Actions,
			Projects:     r.Projects,
			Wiki:         r.Wiki,
			Security:     r.Security,
			Insights:     r.Insights,
		}

		dbDiscussions, err := s.qry.GetDiscussions(ctx, r.ID)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "GetDiscussions", r.Name)
			return nil, err
		}
		for _, d := range dbDiscussions {
			discussion := github.Discussion{
				RepoName:           r.Name,
				Url:                d.Url,
				Title:              d.Title,
				Number:             int(d.Number),
				State:              d.State,
				Author:             d.Author,
				Timestamp:          d.Timestamp,
				Emoji:              d.Emoji,
				Category:           d.Category,
				ConvertedFromIssue: d.ConvertedFromIssue,
			}
			discussion.Posts, err = s.loadPosts(ctx, d.ID)
			if err != nil {
				return nil, err
			}
			repo.Discussions = append(repo.Discussions, discussion)
		}

		repos = append(repos, repo)
	}
	return repos, nil
}

func (s Store) loadPosts(ctx context.Context, discussionId int64) ([]github.Post, error) {
	dbPosts, err := s.qry.GetPosts(ctx, discussionId)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetPosts", discussionId)
		return nil, err
	}

	var posts []github.Post
	for _, p := range dbPosts {
		post := github.Post{
			Author:                 p.Author,
			Timestamp:              p.Timestamp,
			Content:                p.Content,
			IsPartOfSelectedAnswer: p.IsPartOfSelectedAnswer,
		}

		dbReactions, err := s.qry.GetReactions(ctx, p.ID)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "GetReactions", p.ID)
			return nil, err
		}
		if len(dbReactions) > 0 {
			post.Reactions = &github.Reactions{}
			for _, r := range dbReactions {
				post.Reactions.Emojis = append(post.Reactions.Emojis, r.Emoji)
				post.Reactions.Counts = append(post.Reactions.Counts, int(r.Count))
			}
		}
		posts = append(posts, post)
	}
	return posts, nil
}

type Checkpoint struct {
	Time         time.Time
	Repositories int
}

// LatestCheckpoint returns false when nothing was exported yet.
func (s Store) LatestCheckpoint(ctx context.Context) (Checkpoint, bool, error) {
	row, err := s.qry.GetLatestCheckpoint(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetLatestCheckpoint")
		return Checkpoint{}, false, err
	}
	return Checkpoint{
		Time:         time.Unix(row.Time, 0).In(s.clock.Location()),
		Repositories: int(row.Repositories),
	}, true, nil
}
