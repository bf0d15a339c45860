package notion

import (
	"context"
	"net/http"
	"strings"
	"time"

	"dealflow/internal/logging"
	"dealflow/internal/services"
)

// Todo is an open item in the to-do database.
type Todo struct {
	ID       string `json:"id"`
	TaskName string `json:"task_name"`
	NextStep string `json:"next_step"`
	DueDate  string `json:"due_date"`
	URL      string `json:"url"`
}

// DueValue returns the raw Manual Due start date.
func (t Todo) DueValue() string {
	return t.DueDate
}

// TodoInput is the payload for creating a to-do.
type TodoInput struct {
	TaskName string
	DueDate  string
	NextStep string
}

// CreateTodo adds a to-do page and returns its id.
func (c *Client) CreateTodo(ctx context.Context, input TodoInput) (string, error) {
	if err := c.requireTodosDB("create todo"); err != nil {
		return "", err
	}
	name := strings.TrimSpace(input.TaskName)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "notion", "create todo", "task name required", nil)
	}
	props := map[string]property{propTaskName: titleProperty(name)}
	if due := strings.TrimSpace(input.DueDate); due != "" {
		props[propManualDue] = property{Date: &dateValue{Start: due}}
	}
	if next := strings.TrimSpace(input.NextStep); next != "" {
		props[propNextStep] = richTextProperty(next)
	}
	body := map[string]any{
		"parent":     map[string]string{"database_id": c.cfg.TodosDBID},
		"properties": props,
	}
	var created page
	if err := c.doPages(ctx, http.MethodPost, "/pages", body, &created); err != nil {
		return "", err
	}
	c.logger.Info("todo created",
		logging.String("page_id", created.ID),
		logging.String("task_name", name),
		logging.String(logging.FieldEventType, "notion_todo_created"),
	)
	return created.ID, nil
}

// TodosDueOn returns open to-dos whose Manual Due equals day.
func (c *Client) TodosDueOn(ctx context.Context, day time.Time) ([]Todo, error) {
	return c.queryTodos(ctx, "equals", day)
}

// OverdueTodos returns open to-dos whose Manual Due is before today.
func (c *Client) OverdueTodos(ctx context.Context, today time.Time) ([]Todo, error) {
	return c.queryTodos(ctx, "before", today)
}

func (c *Client) queryTodos(ctx context.Context, operator string, day time.Time) ([]Todo, error) {
	if err := c.requireTodosDB("query todos"); err != nil {
		return nil, err
	}
	filter := map[string]any{
		"and": []any{
			map[string]any{"property": propManualDue, "date": map[string]string{operator: day.Format(time.DateOnly)}},
			map[string]any{"property": propStatus, "status": map[string]string{"does_not_equal": "Done"}},
			map[string]any{"property": propStatus, "status": map[string]string{"does_not_equal": "Cancelled"}},
		},
	}
	pages, err := c.queryDatabase(ctx, c.cfg.TodosDBID, filter)
	if err != nil {
		return nil, err
	}
	todos := make([]Todo, 0, len(pages))
	for _, p := range pages {
		todo := Todo{
			ID:       p.ID,
			URL:      p.URL,
			TaskName: firstPlainText(p.Properties[propTaskName].Title, "Untitled"),
			NextStep: firstPlainText(p.Properties[propNextStep].RichText, ""),
		}
		if due := p.Properties[propManualDue].Date; due != nil {
			todo.DueDate = due.Start
		}
		todos = append(todos, todo)
	}
	c.logger.Debug("todo query complete",
		logging.String("operator", operator),
		logging.String("date", day.Format(time.DateOnly)),
		logging.Int("count", len(todos)),
	)
	return todos, nil
}
