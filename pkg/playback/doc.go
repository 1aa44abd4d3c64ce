// Package playback schedules the model's audio replies for gapless
// sequential output.
//
// Audio arrives as discrete network messages. The Scheduler places each
// decoded chunk at max(clock, cursor) on the output clock and advances the
// cursor by the chunk's duration. Player is the device-backed Sink and Clock
// used by the CLI.
package playback
