package orchestrator

import (
	"context"

	"github.com/rs/zerolog"

	"localqa/internal/inference"
	"localqa/internal/loader"
	"localqa/internal/registry"
	"localqa/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultModelsDir = "models"
)

// Loader loads a model for one ask. *loader.Loader satisfies it.
type Loader interface {
	Load(path string) (*loader.LoadedModel, error)
}

// Responder produces an answer from a loaded model. *inference.Engine
// satisfies it.
type Responder interface {
	GetResponse(ctx context.Context, m *loader.LoadedModel, prompt string) inference.Response
}

// FilePicker asks the user for a model file. ok is false when the user
// picked nothing.
type FilePicker interface {
	PickModelFile(ctx context.Context) (path string, ok bool, err error)
}

// Clipboard receives copied answers.
type Clipboard interface {
	WriteText(text string) error
}

// Config encapsulates all collaborators and tunables for New.
type Config struct {
	Registry  *registry.Registry
	Loader    Loader
	Responder Responder
	// Slots are the configured model paths merged first on refresh.
	Slots     []types.ModelSlot
	ModelsDir string
	Picker    FilePicker
	Clipboard Clipboard
	Publisher EventPublisher
	Logger    *zerolog.Logger
}
