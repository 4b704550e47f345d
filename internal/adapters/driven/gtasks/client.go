package gtasks

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// pageSize is the maximum number of items requested per page.
const pageSize = 100

// TasksClient is the subset of the Google Tasks API the engine uses.
type TasksClient interface {
	// ListTaskLists returns every task list of the account.
	ListTaskLists(ctx context.Context) ([]*tasks.TaskList, error)

	// InsertTaskList creates a task list.
	InsertTaskList(ctx context.Context, title string) (*tasks.TaskList, error)

	// ListTasks returns one page of tasks updated at or after updatedMin,
	// deleted and hidden ones included. A zero updatedMin lists everything.
	ListTasks(ctx context.Context, listID string, updatedMin time.Time, pageToken string) (*tasks.Tasks, error)

	// InsertTask creates a task.
	InsertTask(ctx context.Context, listID string, task *tasks.Task) (*tasks.Task, error)

	// PatchTask updates the non-empty fields of task.
	PatchTask(ctx context.Context, listID string, task *tasks.Task) (*tasks.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, listID, taskID string) error
}

// ClientFactory builds a client authorised for account.
type ClientFactory func(ctx context.Context, account *domain.Account) (TasksClient, error)

// TokenSourceFunc returns the token source of an account.
type TokenSourceFunc func(ctx context.Context, account *domain.Account) oauth2.TokenSource

// NewClientFactory returns a factory that builds API clients from tokens.
func NewClientFactory(tokens TokenSourceFunc, opts ...option.ClientOption) ClientFactory {
	return func(ctx context.Context, account *domain.Account) (TasksClient, error) {
		return NewClient(ctx, tokens(ctx, account), opts...)
	}
}

// Client implements TasksClient with the generated Google API client.
type Client struct {
	svc *tasks.Service
}

var _ TasksClient = (*Client)(nil)

// NewClient creates a Google Tasks API client using the provided TokenSource.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create tasks service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListTaskLists returns every task list, following pagination.
func (c *Client) ListTaskLists(ctx context.Context) ([]*tasks.TaskList, error) {
	var lists []*tasks.TaskList
	pageToken := ""
	for {
		call := c.svc.Tasklists.List().MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, err
		}
		lists = append(lists, resp.Items...)
		if resp.NextPageToken == "" {
			return lists, nil
		}
		pageToken = resp.NextPageToken
	}
}

// InsertTaskList creates a task list.
func (c *Client) InsertTaskList(ctx context.Context, title string) (*tasks.TaskList, error) {
	return c.svc.Tasklists.Insert(&tasks.TaskList{Title: title}).Context(ctx).Do()
}

// ListTasks returns one page of tasks.
func (c *Client) ListTasks(ctx context.Context, listID string, updatedMin time.Time, pageToken string) (*tasks.Tasks, error) {
	call := c.svc.Tasks.List(listID).
		ShowDeleted(true).
		ShowHidden(true).
		ShowCompleted(true).
		MaxResults(pageSize).
		Context(ctx)
	if !updatedMin.IsZero() {
		call = call.UpdatedMin(updatedMin.UTC().Format(time.RFC3339))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

// InsertTask creates a task.
func (c *Client) InsertTask(ctx context.Context, listID string, task *tasks.Task) (*tasks.Task, error) {
	return c.svc.Tasks.Insert(listID, task).Context(ctx).Do()
}

// PatchTask updates a task.
func (c *Client) PatchTask(ctx context.Context, listID string, task *tasks.Task) (*tasks.Task, error) {
	return c.svc.Tasks.Patch(listID, task.Id, task).Context(ctx).Do()
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) error {
	return c.svc.Tasks.Delete(listID, taskID).Context(ctx).Do()
}
