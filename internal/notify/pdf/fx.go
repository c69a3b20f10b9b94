package pdf

import "go.uber.org/fx"

var Module = fx.Module("notify.pdf",
	fx.Provide(New),
)
