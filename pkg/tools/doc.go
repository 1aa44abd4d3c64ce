// Package tools is the tool call dispatch engine.
//
// Each catalog entry is a FuncTool with a typed argument struct. The JSON
// schema inferred from the struct is declared to the model and used to
// validate every inbound argument bag before the handler runs, so handlers
// never see missing required fields.
//
// A Dispatcher runs a batch of calls sequentially in the order given and
// returns one response per call. Handler failures are reported to the model
// as {error, message, hint} payloads and mirrored as system notification
// cards; unknown tool names get a fallback success.
//
// ActionText translates canvas actions (reply, send_draft, discard_draft,
// archive) into user text turns.
package tools
