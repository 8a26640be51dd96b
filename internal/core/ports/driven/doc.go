// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - CorpusStore: files, labels and weights (SQLite)
//   - Detector: object detection for one image
//   - FileScanner, FileWatcher: directory listing and arrival notification
//   - PromptStore: user-editable detector prompts
//   - ConfigStore: application configuration (TOML)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
