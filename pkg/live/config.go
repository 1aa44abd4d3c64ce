package live

import "google.golang.org/genai"

// ConnectConfig describes the session to open.
type ConnectConfig struct {
	// Model defaults to DefaultModel.
	Model string

	// Voice is a prebuilt voice name such as "Puck" or "Kore".
	Voice string

	// Instruction is the system instruction text.
	Instruction string

	// Functions are the callable tools declared to the model.
	Functions []*genai.FunctionDeclaration

	// GoogleSearch enables the built-in search tool.
	GoogleSearch bool
}

func (c *ConnectConfig) genai() *genai.LiveConnectConfig {
	cfg := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
	}
	if c.Voice != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.Voice},
			},
		}
	}
	if c.Instruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(c.Instruction)},
		}
	}
	if len(c.Functions) > 0 {
		cfg.Tools = append(cfg.Tools, &genai.Tool{FunctionDeclarations: c.Functions})
	}
	if c.GoogleSearch {
		cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	return cfg
}
