package db

import (
	"context"
)

const deleteReactions = `delete from reactions`

func (q *Queries) DeleteReactions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteReactions)
	return err
}

const deletePosts = `delete from posts`

func (q *Queries) DeletePosts(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deletePosts)
	return err
}

const deleteDiscussions = `delete from discussions`

func (q *Queries) DeleteDiscussions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteDiscussions)
	return err
}

const deleteRepositories = `delete from repositories`

func (q *Queries) DeleteRepositories(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteRepositories)
	return err
}

const createRepository = `insert into repositories (
    name, position, code, issues, pull_requests, discussions,
    actions, projects, wiki, security, insights
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
returning id`

type CreateRepositoryParams struct {
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

func (q *Queries) CreateRepository(ctx context.Context, arg CreateRepositoryParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRepository,
		arg.Name,
		arg.Position,
		arg.Code,
		arg.Issues,
		arg.PullRequests,
		arg.Discussions,
		arg.Actions,
		arg.Projects,
		arg.Wiki,
		arg.Security,
		arg.Insights,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createDiscussion = `insert into discussions (
    repository_id, position, url, title, number, state, author,
    timestamp, emoji, category, converted_from_issue
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
returning id`

type CreateDiscussionParams struct {
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

func (q *Queries) CreateDiscussion(ctx context.Context, arg CreateDiscussionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createDiscussion,
		arg.RepositoryID,
		arg.Position,
		arg.Url,
		arg.Title,
		arg.Number,
		arg.State,
		arg.Author,
		arg.Timestamp,
		arg.Emoji,
		arg.Category,
		arg.ConvertedFromIssue,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createPost = `insert into posts (
    discussion_id, position, author, timestamp, content, is_part_of_selected_answer
) values (?, ?, ?, ?, ?, ?)
returning id`

type CreatePostParams struct {
	DiscussionID           int64
	Position               int64
	Author                 string
	Timestamp              string
	Content                string
	IsPartOfSelectedAnswer bool
}

func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.DiscussionID,
		arg.Position,
		arg.Author,
		arg.Timestamp,
		arg.Content,
		arg.IsPartOfSelectedAnswer,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createReaction = `insert into reactions (post_id, position, emoji, count) values (?, ?, ?, ?)`

type CreateReactionParams = Reaction

func (q *Queries) CreateReaction(ctx context.Context, arg CreateReactionParams) error {
	_, err := q.db.ExecContext(ctx, createReaction,
		arg.PostID,
		arg.Position,
		arg.Emoji,
		arg.Count,
	)
	return err
}

const createCheckpoint = `insert into checkpoints (time, repositories) values (?, ?)`

type CreateCheckpointParams struct {
	Time         int64
	Repositories int64
}

func (q *Queries) CreateCheckpoint(ctx context.Context, arg CreateCheckpointParams) error {
	_, err := q.db.ExecContext(ctx, createCheckpoint, arg.Time, arg.Repositories)
	return err
}

const getRepositories = `select
    id, name, position, code, issues, pull_requests, discussions,
    actions, projects, wiki, security, insights
from repositories order by position`

func (q *Queries) GetRepositories(ctx context.Context) ([]Repository, error) {
	rows, err := q.db.QueryContext(ctx, getRepositories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Repository
	for rows.Next() {
		var i Repository
		err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Position,
			&i.Code,
			&i.Issues,
			&i.PullRequests,
			&i.Discussions,
			&i.Actions,
			&i.Projects,
			&i.Wiki,
			&i.Security,
			&i.Insights,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDiscussions = `select
    id, repository_id, position, url, title, number, state, author,
    timestamp, emoji, category, converted_from_issue
from discussions where repository_id = ? order by position`

func (q *Queries) GetDiscussions(ctx context.Context, repositoryID int64) ([]Discussion, error) {
	rows, err := q.db.QueryContext(ctx, getDiscussions, repositoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Discussion
	for rows.Next() {
		var i Discussion
		err := rows.Scan(
			&i.ID,
			&i.RepositoryID,
			&i.Position,
			&i.Url,
			&i.Title,
			&i.Number,
			&i.State,
			&i.Author,
			&i.Timestamp,
			&i.Emoji,
			&i.Category,
			&i.ConvertedFromIssue,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPosts = `select
    id, discussion_id, position, author, timestamp, content, is_part_of_selected_answer
from posts where discussion_id = ? order by position`

func (q *Queries) GetPosts(ctx context.Context, discussionID int64) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, getPosts, discussionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Post
	for rows.Next() {
		var i Post
		err := rows.Scan(
			&i.ID,
			&i.DiscussionID,
			&i.Position,
			&i.Author,
			&i.Timestamp,
			&i.Content,
			&i.IsPartOfSelectedAnswer,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getReactions = `select post_id, position, emoji, count
from reactions where post_id = ? order by position`

func (q *Queries) GetReactions(ctx context.Context, postID int64) ([]Reaction, error) {
	rows, err := q.db.QueryContext(ctx, getReactions, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Reaction
	for rows.Next() {
		var i Reaction
		err := rows.Scan(&i.PostID, &i.Position, &i.Emoji, &i.Count)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLatestCheckpoint = `select id, time, repositories from checkpoints order by id desc limit 1`

func (q *Queries) GetLatestCheckpoint(ctx context.Context) (Checkpoint, error) {
	row := q.db.QueryRowContext(ctx, getLatestCheckpoint)
	var i Checkpoint
	err := row.Scan(&i.ID, &i.Time, &i.Repositories)
	return i, err
}
