package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/gijirokun/internal/config"
)

type envConfig struct {
	Env                        string `env:"ENV" envDefault:"production"`
	DatabaseURL                string `env:"DATABASE_URL,required"`
	DiscordToken               string `env:"DISCORD_TOKEN,required"`
	DiscordGuildID             string `env:"DISCORD_GUILD_ID"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID,required"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON,required"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	GeminiAPIKey               string `env:"GEMINI_API_KEY,required"`
	GeminiModel                string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	DefaultTranscribeLanguage  string `env:"DEFAULT_TRANSCRIBE_LANGUAGE" envDefault:"en-US"`
	RecordingsDir              string `env:"RECORDINGS_DIR" envDefault:"./recordings"`
	CaptureSilenceMs           int    `env:"CAPTURE_SILENCE_MS" envDefault:"500"`
	MaxCaptureDurationMin      int    `env:"MAX_CAPTURE_DURATION_MIN" envDefault:"5"`
	SummaryWebhookURL          string `env:"SUMMARY_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		DatabaseURL:                raw.DatabaseURL,
		DiscordToken:               raw.DiscordToken,
		DiscordGuildID:             raw.DiscordGuildID,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		GeminiAPIKey:               raw.GeminiAPIKey,
		GeminiModel:                raw.GeminiModel,
		DefaultTranscribeLanguage:  raw.DefaultTranscribeLanguage,
		RecordingsDir:              raw.RecordingsDir,
		CaptureSilenceMs:           raw.CaptureSilenceMs,
		MaxCaptureDurationMin:      raw.MaxCaptureDurationMin,
		SummaryWebhookURL:          raw.SummaryWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
