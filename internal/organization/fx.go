package organization

import (
	"github.com/agencydesk/agencydesk/internal/organization/repository"
	"github.com/agencydesk/agencydesk/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
