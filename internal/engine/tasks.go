package engine

import (
	"github.com/notionspark/gospark/internal/store"
	syncq "github.com/notionspark/gospark/internal/sync"
	"github.com/notionspark/gospark/pkg/tasks"
)

// Task mutations go through the engine so they hit the sync queue and the
// event bus like file writes do.

func (e *Engine) CreateTask(in tasks.CreateInput) (*store.Task, error) {
	task, err := e.tasks.Create(in)
	if err != nil {
		return nil, err
	}
	e.afterTaskWrite(task, syncq.OpUpsertTask)
	return task, nil
}

func (e *Engine) GetTask(id string) (*store.Task, error) {
	return e.tasks.Get(id)
}

func (e *Engine) UpdateTask(id string, in tasks.CreateInput) (*store.Task, error) {
	task, err := e.tasks.Update(id, in)
	if err != nil {
		return nil, err
	}
	e.afterTaskWrite(task, syncq.OpUpsertTask)
	return task, nil
}

func (e *Engine) ToggleTask(id string) (*store.Task, error) {
	task, err := e.tasks.Toggle(id)
	if err != nil {
		return nil, err
	}
	e.afterTaskWrite(task, syncq.OpUpsertTask)
	return task, nil
}

func (e *Engine) DeleteTask(id string) error {
	task, err := e.tasks.Get(id)
	if err != nil {
		return err
	}
	if err := e.tasks.Delete(id); err != nil {
		return err
	}
	e.record(syncq.OpDeleteTask, task.WorkspaceID, id, nil)
	e.bus.publish(Event{Type: EventTaskChanged, WorkspaceID: task.WorkspaceID, EntityID: id})
	return nil
}

func (e *Engine) ListTasks(workspaceID string, f tasks.Filter) ([]*store.Task, error) {
	return e.tasks.List(workspaceID, f)
}

func (e *Engine) OverdueTasks(workspaceID string) ([]*store.Task, error) {
	return e.tasks.Overdue(workspaceID)
}

func (e *Engine) afterTaskWrite(task *store.Task, op syncq.OpKind) {
	e.record(op, task.WorkspaceID, task.ID, task)
	e.bus.publish(Event{Type: EventTaskChanged, WorkspaceID: task.WorkspaceID, EntityID: task.ID})
}
