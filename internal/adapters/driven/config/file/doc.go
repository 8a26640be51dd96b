// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the pikia home directory.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates for the vision detector
package file
