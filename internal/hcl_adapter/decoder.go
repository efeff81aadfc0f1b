package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/specialistvlad/cascade/internal/ctxlog"
)

// Decoder implements config.Decoder with gohcl.
type Decoder struct {
	evalCtx *hcl.EvalContext
}

// DecodeBody decodes body into target, a pointer to a struct with hcl tags.
// A nil target accepts only an empty body.
func (d *Decoder) DecodeBody(ctx context.Context, body hcl.Body, target any) error {
	logger := ctxlog.FromContext(ctx)
	if target == nil {
		attrs, diags := body.JustAttributes()
		if diags.HasErrors() {
			return diags
		}
		if len(attrs) > 0 {
			return fmt.Errorf("this driver takes no arguments")
		}
		return nil
	}

	diags := gohcl.DecodeBody(body, d.evalCtx, target)
	if diags.HasErrors() {
		return diags
	}
	logger.Debug("Driver body decoded.", "target", fmt.Sprintf("%T", target))
	return nil
}
