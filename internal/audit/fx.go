package audit

import (
	"github.com/agencydesk/agencydesk/internal/audit/repository"
	"github.com/agencydesk/agencydesk/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
