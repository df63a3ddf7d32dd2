package meshy

import (
	"printforge/internal/app/api/provider"
)

func init() {
	provider.Register("meshy", NewMeshyProvider())
}
