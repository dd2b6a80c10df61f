package job

import (
	"github.com/google/wire"
)

// ProviderSet is the job package providers
var ProviderSet = wire.NewSet(NewQueue)
