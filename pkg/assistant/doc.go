// Package assistant is the realtime orchestrator. It connects a Live session
// to the capture devices, schedules model audio for playback, runs tool
// batches against the canvas and tracks the agent turn state shown to the
// user.
package assistant
