package app

import (
	"github.com/specialistvlad/cascade/internal/registry"
	"github.com/specialistvlad/cascade/modules/command"
	"github.com/specialistvlad/cascade/modules/http_recompute"
	"github.com/specialistvlad/cascade/modules/socketio"
	"github.com/specialistvlad/cascade/modules/upload"
)

// coreModules is the definitive list of all driver modules that are
// compiled into the cascade binary.
var coreModules = []registry.Module{
	&http_recompute.Module{},
	&command.Module{},
	&upload.Module{},
	&socketio.Module{},
}
