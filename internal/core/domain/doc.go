// Package domain defines the core business entities for Retail Copilot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source text loaded into the corpus
//   - Chunk: A paragraph-level, citable unit of a document
//   - Question: One input question from a batch
//   - WorkflowState: The mutable record threaded through the workflow
//   - AnswerRecord: The emitted answer for one question
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
