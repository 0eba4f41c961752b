// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentSource: Loads the policy/KPI document corpus
//   - Retriever: Lexical top-k retrieval over the built index
//   - QueryExecutor: Runs generated SQL against the retail database
//   - Classifier, QueryGenerator, ConstraintExtractor, AnswerSynthesizer:
//     The four model-call contracts. Each is a narrow single-operation
//     interface so the orchestration core is testable with deterministic
//     stubs. Their outputs are untrusted and always validated by core.
//
// # Backend Interface
//
//   - LLMService: Raw text completion. The model-call adapters are built
//     on top of it; core never calls it directly.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
