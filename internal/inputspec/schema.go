// Package inputspec validates simulator input artifacts.
//
// The harness normally treats input.json as opaque bytes. This package is the
// one deliberate exception: an offline lint that checks a case's input
// against the simulator's input contract before anyone burns time on a batch
// run. The contract itself stays external; only its shape is captured here.
package inputspec

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// programSchema is the shape of a simulator input artifact: a JSON array of
// instruction strings. Instruction syntax is the simulator's concern and is
// not validated here.
const programSchema = `[...string & !=""]`

var (
	schemaOnce  sync.Once
	schemaCtx   *cue.Context
	schemaValue cue.Value
)

func compiledSchema() (*cue.Context, cue.Value) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		schemaValue = schemaCtx.CompileString(programSchema, cue.Filename("program.cue"))
	})
	return schemaCtx, schemaValue
}

// Validate checks that data is a well-formed simulator input artifact.
// The filename is used only for error positions.
func Validate(filename string, data []byte) error {
	ctx, schema := compiledSchema()
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile input schema: %w", err)
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	value := ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return fmt.Errorf("build input value: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("input does not match the simulator contract: %s",
			cueerrors.Details(err, &cueerrors.Config{Cwd: "."}))
	}

	return nil
}
