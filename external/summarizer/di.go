package summarizer

import (
	"github.com/foxseedlab/gijirokun/internal/config"
	"github.com/foxseedlab/gijirokun/internal/summarizer"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (summarizer.Summarizer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewGeminiSummarizer(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	})
}
