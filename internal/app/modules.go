package app

import (
	"github.com/vk/realityserver/internal/hardware"
	"github.com/vk/realityserver/modules/declarative"
	"github.com/vk/realityserver/modules/screens"
)

// coreModules returns the hardware interfaces compiled into the
// realityserver binary. Interfaces hold state, so every App gets fresh ones.
func coreModules() []hardware.Module {
	return []hardware.Module{
		declarative.New(),
		screens.New(),
	}
}
