// Package sink persists rendered report files.
//
// Reporters hand their output to a Sink as named files:
//   - Dir writes under a save directory, creating it as needed
//   - Memory keeps files in memory for tests and in-process consumers
//   - Writer streams every file to a single io.Writer
//
// WriteAll writes a batch and keeps going past failed files.
package sink
