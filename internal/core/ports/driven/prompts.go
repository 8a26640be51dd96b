package driven

// PromptStore provides access to the vision detector's prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptDetectSystem is the system prompt for object detection.
	// This prompt has no format placeholders.
	PromptDetectSystem = "detect_system"

	// PromptDetectImage accompanies each image.
	// The template expects %d (width) and %d (height) placeholders for the
	// pixel size of the image sent to the model.
	PromptDetectImage = "detect_image"
)
