package transcriber

import (
	"github.com/foxseedlab/gijirokun/internal/config"
	"github.com/foxseedlab/gijirokun/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewCloudSpeechTranscriber(CloudSpeechConfig{
			ProjectID:       cfg.GoogleCloudProjectID,
			CredentialsJSON: cfg.GoogleCloudCredentialsJSON,
			Location:        cfg.GoogleCloudSpeechLocation,
			Model:           cfg.GoogleCloudSpeechModel,
		}), nil
	})
}
