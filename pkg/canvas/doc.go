// Package canvas holds the application state the assistant shows the user:
// the stack of cards pushed by tool calls and the session's notes.
package canvas
