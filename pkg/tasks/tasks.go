// Package tasks implements the task board service. Tasks are independent
// CRUD entities scoped to a workspace, with no relation to files.
package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notionspark/gospark/internal/store"
)

var ErrNotFound = errors.New("task not found")

// Service wraps the store with task semantics.
type Service struct {
	store store.Storer
	now   func() time.Time
}

// New creates a task service.
func New(s store.Storer) *Service {
	return &Service{store: s, now: time.Now}
}

// CreateInput carries the user-settable fields of a new task.
type CreateInput struct {
	WorkspaceID string
	Title       string
	Description string
	Priority    store.TaskPriority
	Tags        []string
	DueAt       *int64
}

// Create adds a new todo task and returns it.
func (s *Service) Create(in CreateInput) (*store.Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("task title cannot be empty")
	}
	if in.Priority == "" {
		in.Priority = store.PriorityMedium
	}

	now := s.now().UnixMilli()
	task := &store.Task{
		ID:          uuid.NewString(),
		WorkspaceID: in.WorkspaceID,
		Title:       in.Title,
		Description: in.Description,
		Status:      store.TaskTodo,
		Priority:    in.Priority,
		Tags:        in.Tags,
		DueAt:       in.DueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.UpsertTask(task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Get returns a task by ID.
func (s *Service) Get(id string) (*store.Task, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return task, nil
}

// Update replaces the user-settable fields of a task.
func (s *Service) Update(id string, in CreateInput) (*store.Task, error) {
	task, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		task.Title = in.Title
	}
	task.Description = in.Description
	if in.Priority != "" {
		task.Priority = in.Priority
	}
	if in.Tags != nil {
		task.Tags = in.Tags
	}
	task.DueAt = in.DueAt
	task.UpdatedAt = s.now().UnixMilli()

	if err := s.store.UpsertTask(task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Toggle flips a task between todo and done.
func (s *Service) Toggle(id string) (*store.Task, error) {
	task, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if task.Status == store.TaskDone {
		task.Status = store.TaskTodo
	} else {
		task.Status = store.TaskDone
	}
	task.UpdatedAt = s.now().UnixMilli()

	if err := s.store.UpsertTask(task); err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	return task, nil
}

// Delete removes a task.
func (s *Service) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.store.DeleteTask(id)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status   store.TaskStatus
	Priority store.TaskPriority
	Tag      string
}

// List returns the tasks of a workspace matching the filter.
func (s *Service) List(workspaceID string, f Filter) ([]*store.Task, error) {
	tasks, err := s.store.ListTasks(workspaceID)
	if err != nil {
		return nil, err
	}

	out := tasks[:0]
	for _, task := range tasks {
		if f.Status != "" && task.Status != f.Status {
			continue
		}
		if f.Priority != "" && task.Priority != f.Priority {
			continue
		}
		if f.Tag != "" && !hasTag(task.Tags, f.Tag) {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

// Overdue returns undone tasks whose due date has passed. Due dates are
// unix milliseconds like every other timestamp.
func (s *Service) Overdue(workspaceID string) ([]*store.Task, error) {
	tasks, err := s.store.ListTasks(workspaceID)
	if err != nil {
		return nil, err
	}

	now := s.now().UnixMilli()
	var out []*store.Task
	for _, task := range tasks {
		if task.Status == store.TaskDone || task.DueAt == nil {
			continue
		}
		if *task.DueAt < now {
			out = append(out, task)
		}
	}
	return out, nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
