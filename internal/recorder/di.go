package recorder

import (
	"time"

	"github.com/foxseedlab/gijirokun/internal/audio"
	"github.com/foxseedlab/gijirokun/internal/config"
	"github.com/foxseedlab/gijirokun/internal/session"
	"github.com/foxseedlab/gijirokun/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (session.RouterFactory, error) {
		cfg := do.MustInvoke[*config.Config](i)
		engine := do.MustInvoke[*session.Engine](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		newDecoder := do.MustInvoke[audio.DecoderFactory](i)
		return func(guildID, languageCode string) session.PacketRouter {
			return NewRouter(engine, stt, newDecoder, Options{
				GuildID:       guildID,
				LanguageCode:  languageCode,
				RecordingsDir: cfg.RecordingsDir,
				Silence:       time.Duration(cfg.CaptureSilenceMs) * time.Millisecond,
				MaxDuration:   time.Duration(cfg.MaxCaptureDurationMin) * time.Minute,
			})
		}, nil
	})
}
