package api

const todoRequestMaxSize = 64 * 1024 // 64 KiB

// POST /api/todos request body
type createTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	UserEmail   string  `json:"userEmail"`
}

// PATCH /api/todos request body; nil fields are left unchanged
type updateTodoRequest struct {
	TodoID      int64   `json:"todoId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// DELETE /api/todos request body
type deleteTodoRequest struct {
	TodoID int64 `json:"todoId"`
}

type deleteTodoResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}
