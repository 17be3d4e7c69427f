// Package output provides reporters that turn test lifecycle events into
// result files and terminal output.
//
// Supported formats:
//   - JUnit: JUnit XML for CI integration
//   - NUnit: NUnit 2.x XML, always a single file
//   - Sonar: SonarQube generic test execution data
//   - TAP: Test Anything Protocol, streamed as specs finish
//   - TeamCity: TeamCity service messages
//   - Console: human readable colored terminal output
//   - JSON: the whole result tree as one document
//   - HTML: a standalone results page
//
// Every reporter implements events.Listener and builds its own result tree.
// The XML formats share XMLReporter and differ only in their Dialect.
// New builds a reporter by format name from a config.Config.
package output
