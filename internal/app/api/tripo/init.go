package tripo

import (
	"printforge/internal/app/api/provider"
)

func init() {
	provider.Register("tripo", NewTripoProvider())
}
