// Package events defines the lifecycle contract between a host test framework
// and the reporters.
//
// A host reports, in order:
//   - RunStarted once per run
//   - properly nested SuiteStarted / SuiteDone pairs
//   - SpecStarted / SpecDone pairs inside the open suite
//   - RunFinished once all suites are closed
//
// The payloads are small immutable values (SuiteInfo, SpecInfo, RunInfo) so that
// the reporters never depend on the host framework's internal object shape.
package events
