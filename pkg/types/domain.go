package types

// ModelDescriptor identifies a candidate model file on disk.
type ModelDescriptor struct {
	// Human-friendly name.
	// example: Llama 3 8B
	Name string `json:"name" example:"Llama 3 8B"`
	// Absolute path to the model file; unique within the registry.
	// example: /home/user/models/llama-3-8b.Q4_K_M.gguf
	FilePath string `json:"file_path" example:"/home/user/models/llama-3-8b.Q4_K_M.gguf"`
	// Optional free-form description.
	Description string `json:"description,omitempty"`
	// True when the model came from a directory scan or a manual add rather
	// than a configured slot.
	IsUserAdded bool `json:"is_user_added"`
}

func (d ModelDescriptor) String() string { return d.Name }

// ModelSlot is a named, configured model location. An empty Path means the
// slot is not configured.
type ModelSlot struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Path string `json:"path"`
}
