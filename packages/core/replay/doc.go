// Package replay reads and writes recorded test lifecycle events.
//
// A recording holds one JSON object per line:
//
//	{"event":"runStarted","totalSpecsDefined":3,"time":"2024-01-02T03:04:05Z"}
//	{"event":"suiteStarted","id":"suite1","description":"Player"}
//	{"event":"specStarted","id":"spec1","description":"plays"}
//	{"event":"specDone","id":"spec1","description":"plays","status":"failed",
//	 "failedExpectations":[{"message":"...","stack":"...","matcherName":"toBe"}]}
//	{"event":"suiteDone","id":"suite1","description":"Player"}
//	{"event":"runFinished"}
//
// Replay feeds a recording into any events.Listener, Validate checks one
// against the event schema and Recorder produces recordings.
package replay
