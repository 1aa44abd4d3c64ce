// Package canvasfeed streams the canvas to browser renderers over WebSocket.
//
// A client receives one snapshot frame on connect:
//
//	{"type":"snapshot","items":[...],"notes":[...],"notes_visible":false,
//	 "agent_state":"IDLE","status":"disconnected"}
//
// followed by "items", "notes", "notes_view", "agent_state", "status" and
// "error" updates. Clients send back
//
//	{"type":"action","action":"reply","data":{"from":"..."}}
//	{"type":"text","text":"..."}
//	{"type":"dismiss","id":"..."}
//
// Failed requests are answered with an "error" frame.
package canvasfeed
