// Package capture redirects a process-level output stream, usually os.Stdout,
// into memory while a spec runs.
//
// A Capturer swaps the target file for the write end of a pipe and drains the
// read end on a goroutine. Stop restores the original file and returns
// everything written in between. Optionally the captured bytes are also copied
// to a passthrough writer so the console keeps showing them.
package capture
