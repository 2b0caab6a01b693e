package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/labstack/echo/v4"

	"todo-api/domain"
	"todo-api/enhance"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, seq Sequence, enh Enhancer, logger *log.Logger) {
	e.POST("/api/todos", postTodo(store, seq, enh, logger))
	e.GET("/api/todos", getTodos(store))
	e.PATCH("/api/todos", patchTodo(store))
	e.DELETE("/api/todos", deleteTodo(store))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func postTodo(store Storage, seq Sequence, enh Enhancer, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newCreateRequestMetrics(c.Request().Context(), logger)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		var req createTodoRequest
		if decodeErr := decodeBody(c.Request().Body, &req); decodeErr != nil {
			metrics.SetErrorStage("decode_request")
			err = c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
			return err
		}

		status := domain.StatusReady
		if enh != nil {
			status = domain.StatusProcessing
		}
		todo, validErr := domain.NewTodo(req.Title, req.Description, req.UserEmail, status, time.Now().UTC())
		if validErr != nil {
			metrics.SetErrorStage("validation")
			err = c.JSON(http.StatusBadRequest, errorResponse{Error: validErr.Error()})
			return err
		}

		id, idErr := seq.Next(ctx)
		if idErr != nil {
			metrics.SetErrorStage("sequence")
			c.Logger().Error(idErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to assign todo id"})
			return err
		}
		todo.ID = id

		insertStart := time.Now()
		insertErr := store.InsertTodo(ctx, todo)
		metrics.ObserveInsert(time.Since(insertStart))
		if insertErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(insertErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Error: insertErr.Error()})
			return err
		}

		if enh == nil {
			err = c.JSON(http.StatusOK, todo)
			return err
		}

		final := finishEnhancement(ctx, store, enh, todo, metrics, logger)
		err = c.JSON(http.StatusOK, final)
		return err
	}
}

// finishEnhancement runs the webhook round-trip and records the outcome on
// the stored row. A failed enhancement downgrades the row to failed but
// never fails the create call itself; the client gets the record either
// way.
func finishEnhancement(ctx context.Context, store Storage, enh Enhancer, todo domain.Todo, metrics *createRequestMetrics, logger *log.Logger) domain.Todo {
	enhanceStart := time.Now()
	result, enhanceErr := enh.Enhance(ctx, enhance.Request{
		TodoID:      todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
	})
	metrics.ObserveEnhance(time.Since(enhanceStart))

	update := domain.TodoUpdate{}
	status := domain.StatusReady
	switch {
	case enhanceErr != nil:
		status = domain.StatusFailed
		metrics.SetEnhanceFailed(true)
		logger.WithError(enhanceErr).WithField("todo_id", todo.ID).Warn("enhancement failed")
	case result.Empty():
		// The workflow answered but had nothing; keep the original content.
	default:
		metrics.SetEnhanced(true)
		if result.Title != "" {
			update.Title = &result.Title
		}
		if result.Description != "" {
			update.Description = &result.Description
		}
	}
	update.Status = &status

	updateStart := time.Now()
	updated, updateErr := store.UpdateTodo(ctx, todo.ID, update)
	metrics.ObserveUpdate(time.Since(updateStart))
	if updateErr != nil {
		logger.WithError(updateErr).WithField("todo_id", todo.ID).Error("failed to record enhancement outcome")
		return todo
	}
	return updated
}

func getTodos(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userEmail := strings.TrimSpace(c.QueryParam("userEmail"))
		if userEmail == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "userEmail is required"})
		}
		todos, err := store.FetchTodos(ctx, userEmail)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, todos)
	}
}

func patchTodo(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var req updateTodoRequest
		if err := decodeBody(c.Request().Body, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if req.TodoID == 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "todoId is required"})
		}
		update, err := domain.TodoUpdate{
			Title:       req.Title,
			Description: req.Description,
			Completed:   req.Completed,
		}.Normalize()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		updated, err := store.UpdateTodo(ctx, req.TodoID, update)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func deleteTodo(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var req deleteTodoRequest
		if err := decodeBody(c.Request().Body, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if req.TodoID == 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "todoId is required"})
		}
		// No existence check: deleting an unknown id still succeeds.
		if _, err := store.DeleteTodo(ctx, req.TodoID); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, deleteTodoResponse{Success: true})
	}
}
