// Package services implements the orchestration core: the mode router,
// constraint planner, query stage, synthesizer interface, validator with
// its bounded repair loop, and the orchestrator that wires them into a
// fixed workflow per question.
//
// Services are pure Go. They depend only on domain types and driven
// ports, so the whole workflow is testable with deterministic stubs of
// the model-call contracts.
package services
