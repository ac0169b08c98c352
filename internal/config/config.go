package config

import "fmt"

type Config struct {
	Env                        string
	DatabaseURL                string
	DiscordToken               string
	DiscordGuildID             string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	GeminiAPIKey               string
	GeminiModel                string
	DefaultTranscribeLanguage  string
	RecordingsDir              string
	CaptureSilenceMs           int
	MaxCaptureDurationMin      int
	SummaryWebhookURL          string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.CaptureSilenceMs <= 0 {
		return fmt.Errorf("CAPTURE_SILENCE_MS must be positive, got %d", c.CaptureSilenceMs)
	}
	if c.MaxCaptureDurationMin <= 0 {
		return fmt.Errorf("MAX_CAPTURE_DURATION_MIN must be positive, got %d", c.MaxCaptureDurationMin)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
		{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		{name: "GEMINI_API_KEY", value: c.GeminiAPIKey},
		{name: "DEFAULT_TRANSCRIBE_LANGUAGE", value: c.DefaultTranscribeLanguage},
		{name: "RECORDINGS_DIR", value: c.RecordingsDir},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
