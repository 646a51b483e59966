package types

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// Known models in registry order.
	Models []ModelDescriptor `json:"models"`
	// Path of the selected model, empty when nothing is selected.
	Selected string `json:"selected,omitempty"`
}

// PathRequest carries a model path for PUT /selection and POST /models.
type PathRequest struct {
	// example: /home/user/models/tinyllama.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/models/tinyllama.Q4_K_M.gguf"`
}

// QuestionRequest is the body of PUT /question and POST /ask.
type QuestionRequest struct {
	// example: What is the capital of France?
	Question string `json:"question" example:"What is the capital of France?"`
}

// AskResponse is returned by POST /ask.
type AskResponse struct {
	// Whether the ask was accepted. Rejections happen when a request is
	// already in flight, the question is blank or no model is selected.
	Accepted bool `json:"accepted"`
	// Current orchestrator phase after the call.
	// example: loading
	State string `json:"state" example:"loading"`
}

// MessageResponse carries a user-visible message (e.g. "Model added: x").
type MessageResponse struct {
	Message string `json:"message"`
}

// StateResponse is returned by GET /state and mirrors the observable fields
// consumed by a presentation layer.
type StateResponse struct {
	// Current phase: idle, loading or generating.
	// example: idle
	State string `json:"state" example:"idle"`
	// Terminal outcome of the most recent ask (completed, cancelled, failed,
	// model_changed), empty before the first ask.
	// example: completed
	LastOutcome string `json:"last_outcome,omitempty" example:"completed"`
	// Selected model, if any.
	Selected *ModelDescriptor `json:"selected,omitempty"`
	// Pending question text.
	Question string `json:"question"`
	// Latest answer or status text.
	Answer string `json:"answer"`
	// True while an ask is loading or generating.
	IsProcessing bool `json:"is_processing"`
	// True while the model list is being refreshed or a model is being added.
	IsLoadingModels bool `json:"is_loading_models"`
	// ID of the in-flight or most recent request.
	RequestID string `json:"request_id,omitempty"`
	// Number of known models.
	// example: 3
	ModelCount int `json:"model_count" example:"3"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
