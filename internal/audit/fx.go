package audit

import (
	"github.com/codelearn/payrec/internal/audit/repository"
	"github.com/codelearn/payrec/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
