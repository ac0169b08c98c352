package session

import (
	"github.com/foxseedlab/gijirokun/internal/config"
	"github.com/foxseedlab/gijirokun/internal/discord"
	"github.com/foxseedlab/gijirokun/internal/repository"
	"github.com/foxseedlab/gijirokun/internal/summarizer"
	"github.com/foxseedlab/gijirokun/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Engine, error) {
		repo := do.MustInvoke[repository.Repository](i)
		return NewEngine(repo), nil
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		engine := do.MustInvoke[*Engine](i)
		repo := do.MustInvoke[repository.Repository](i)
		dc := do.MustInvoke[discord.Client](i)
		sm := do.MustInvoke[summarizer.Summarizer](i)
		wh := do.MustInvoke[webhook.Sender](i)
		newRouter := do.MustInvoke[RouterFactory](i)
		return NewManager(cfg, engine, repo, dc, sm, wh, newRouter), nil
	})
}
