package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"todo-api/domain"
)

// All todos share one partition so rows can be addressed by id alone; the
// user scope is a filterable property instead.
const todosPartition = "todos"

// NotFoundError is returned when the target row does not exist.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("todo %d not found", e.ID)
}

// Storage provides access to the todos table.
type Storage struct {
	table *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, todosTable string) (*Storage, error) {
	clientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &clientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{table: svc.NewClient(todosTable)}, nil
}

type todoEntity struct {
	aztables.Entity
	Title            string `json:"Title"`
	Description      string `json:"Description"`
	UserEmail        string `json:"UserEmail"`
	Completed        bool   `json:"Completed"`
	ProcessingStatus string `json:"ProcessingStatus"`
	CreatedAt        string `json:"CreatedAt"`
	UpdatedAt        string `json:"UpdatedAt"`
}

func entityFromTodo(t domain.Todo) todoEntity {
	ent := todoEntity{
		Entity: aztables.Entity{
			PartitionKey: todosPartition,
			RowKey:       strconv.FormatInt(t.ID, 10),
		},
		Title:            t.Title,
		UserEmail:        t.UserEmail,
		Completed:        t.Completed,
		ProcessingStatus: string(t.ProcessingStatus),
		CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:        t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.Description != nil {
		ent.Description = *t.Description
	}
	return ent
}

func todoFromEntity(ent todoEntity) (domain.Todo, error) {
	id, err := strconv.ParseInt(ent.RowKey, 10, 64)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("malformed row key %q: %w", ent.RowKey, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ent.CreatedAt)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("todo %d: malformed CreatedAt: %w", id, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, ent.UpdatedAt)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("todo %d: malformed UpdatedAt: %w", id, err)
	}
	status := domain.ProcessingStatus(ent.ProcessingStatus)
	if !status.Valid() {
		// Rows written before enhancement existed carry no status.
		status = domain.StatusReady
	}
	todo := domain.Todo{
		ID:               id,
		Title:            ent.Title,
		UserEmail:        ent.UserEmail,
		Completed:        ent.Completed,
		ProcessingStatus: status,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
	if ent.Description != "" {
		d := ent.Description
		todo.Description = &d
	}
	return todo, nil
}

func userFilter(userEmail string) string {
	escaped := strings.ReplaceAll(userEmail, "'", "''")
	return "PartitionKey eq '" + todosPartition + "' and UserEmail eq '" + escaped + "'"
}

func sortNewestFirst(todos []domain.Todo) {
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.After(todos[j].CreatedAt)
		}
		return todos[i].ID > todos[j].ID
	})
}

// InsertTodo writes a new row. The todo's id must already be assigned.
func (s *Storage) InsertTodo(ctx context.Context, t domain.Todo) error {
	payload, err := json.Marshal(entityFromTodo(t))
	if err == nil {
		_, err = s.table.AddEntity(ctx, payload, nil)
	}
	return err
}

// FetchTodos retrieves all todos for the provided user, newest first.
func (s *Storage) FetchTodos(ctx context.Context, userEmail string) ([]domain.Todo, error) {
	filter := userFilter(userEmail)
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	todos := []domain.Todo{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent todoEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			todo, err := todoFromEntity(ent)
			if err != nil {
				return nil, err
			}
			todos = append(todos, todo)
		}
	}
	sortNewestFirst(todos)
	return todos, nil
}

// UpdateTodo merges the set fields of u into the row and returns the
// updated record. A missing row yields NotFoundError.
func (s *Storage) UpdateTodo(ctx context.Context, id int64, u domain.TodoUpdate) (domain.Todo, error) {
	rk := strconv.FormatInt(id, 10)
	resp, err := s.table.GetEntity(ctx, todosPartition, rk, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return domain.Todo{}, NotFoundError{ID: id}
		}
		return domain.Todo{}, err
	}
	var ent todoEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Todo{}, err
	}
	current, err := todoFromEntity(ent)
	if err != nil {
		return domain.Todo{}, err
	}

	updated := u.Apply(current, time.Now().UTC())
	payload, err := json.Marshal(entityFromTodo(updated))
	if err != nil {
		return domain.Todo{}, err
	}
	et := azcore.ETagAny
	_, err = s.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		return domain.Todo{}, err
	}
	return updated, nil
}

// DeleteTodo removes the row and returns the owning user email so callers
// can invalidate per-user state. Deleting an absent row is not an error;
// the owner comes back empty in that case.
func (s *Storage) DeleteTodo(ctx context.Context, id int64) (string, error) {
	rk := strconv.FormatInt(id, 10)
	resp, err := s.table.GetEntity(ctx, todosPartition, rk, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return "", nil
		}
		return "", err
	}
	var ent todoEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return "", err
	}
	if _, err := s.table.DeleteEntity(ctx, todosPartition, rk, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return ent.UserEmail, nil
		}
		return "", err
	}
	return ent.UserEmail, nil
}
