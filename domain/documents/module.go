package documents

import (
	"go.uber.org/fx"
)

// Module provides documents dependencies via fx
var Module = fx.Module("documents",
	fx.Provide(NewRepository),
)
