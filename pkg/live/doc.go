// Package live is the session transport to the Gemini Live API.
//
// A Client dials a Session configured with a voice, a system instruction
// and function declarations. The session reads server messages on a
// background goroutine and splits each one into events:
//
//	client := live.NewClient(apiKey)
//	session, err := client.Connect(ctx, &live.ConnectConfig{
//	    Voice:       "Puck",
//	    Instruction: "You are a concise executive assistant.",
//	})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	for event, err := range session.Events() {
//	    if err != nil {
//	        return err
//	    }
//	    switch event.Type {
//	    case live.EventAudio:
//	        scheduler.ScheduleBytes(event.Audio)
//	    case live.EventToolCall:
//	        session.SendToolResponses(dispatch(event.FunctionCalls))
//	    }
//	}
//
// Outbound audio and frames go through SendAudio and SendImage; user text
// turns through SendText.
package live
