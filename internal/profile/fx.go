package profile

import (
	"github.com/agencydesk/agencydesk/internal/profile/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("profile",
	fx.Provide(repository.NewRepository),
)
