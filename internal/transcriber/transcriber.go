package transcriber

import "context"

// Transcriber turns one finished audio artifact into text. An empty string
// with a nil error means the artifact contained no recognizable speech.
type Transcriber interface {
	Transcribe(ctx context.Context, artifactPath, languageCode string) (string, error)
}

// ResolveLanguageCode maps a user's summary language mode onto the BCP-47
// code handed to the transcriber. Unknown modes and "auto" fall back to the
// configured default.
func ResolveLanguageCode(mode, defaultCode string) string {
	switch mode {
	case "english":
		return "en-IN"
	case "hindi", "hinglish":
		return "hi-IN"
	default:
		return defaultCode
	}
}
