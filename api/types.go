package api

import (
	"context"

	"todo-api/domain"
	"todo-api/enhance"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	InsertTodo(ctx context.Context, t domain.Todo) error
	FetchTodos(ctx context.Context, userEmail string) ([]domain.Todo, error)
	UpdateTodo(ctx context.Context, id int64, u domain.TodoUpdate) (domain.Todo, error)
	DeleteTodo(ctx context.Context, id int64) (string, error)
}

// Sequence hands out server-assigned ids for new todos.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// Enhancer rewrites a todo's content via the external workflow. A nil
// Enhancer disables the enhancement step entirely.
type Enhancer interface {
	Enhance(ctx context.Context, req enhance.Request) (enhance.Enhancement, error)
}
