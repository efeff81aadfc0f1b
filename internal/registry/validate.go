package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/cascade/internal/config"
	"github.com/specialistvlad/cascade/internal/ctxlog"
)

// Validate checks that every driver block in the model names a registered
// driver. All problems are reported together.
func (r *Registry) Validate(ctx context.Context, model *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	check := func(d *config.Driver, known bool, kinds []string) {
		if !known {
			errs = append(errs, fmt.Sprintf("%s at %s: unknown type, registered types are [%s]",
				d, d.DeclRange, strings.Join(kinds, ", ")))
		}
	}
	types := r.Types()

	if model.Recompute != nil {
		_, ok := r.recomputers[model.Recompute.Type]
		check(model.Recompute, ok, types["recompute"])
	}
	for _, d := range model.Deploys {
		_, ok := r.deployers[d.Type]
		check(d, ok, types["deploy"])
	}
	for _, d := range model.Relays {
		_, ok := r.relays[d.Type]
		check(d, ok, types["relay"])
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "deploys", len(model.Deploys), "relays", len(model.Relays))
	return nil
}
