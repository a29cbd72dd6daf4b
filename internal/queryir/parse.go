package queryir

import (
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
)

// schema is the accepted document shape. Definitions are closed, so unknown
// fields on a filter are rejected.
const schema = `
#Filter: {
	kind: string & =~"^[A-Za-z][A-Za-z0-9_]*$"
	parameters?: [string]: string
}

#Query: [...#Filter]
`

// ParseError reports a document that does not match the schema.
type ParseError struct {
	Message string
	Pos     token.Pos
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: invalid filter document: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return "invalid filter document: " + e.Message
}

var (
	schemaOnce  sync.Once
	schemaCtx   *cue.Context
	schemaQuery cue.Value
	schemaErr   error

	// cue values are not safe for concurrent evaluation
	schemaMu sync.Mutex
)

func querySchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schema, cue.Filename("query.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile query schema: %w", err)
			return
		}
		schemaQuery = v.LookupPath(cue.ParsePath("#Query"))
	})
	return schemaCtx, schemaQuery, schemaErr
}

// Parse validates data against the document schema and decodes it.
// name is used in error positions, usually the source file name.
func Parse(name string, data []byte) (Query, error) {
	ctx, def, err := querySchema()
	if err != nil {
		return nil, err
	}

	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return nil, formatCUEError(err)
	}

	if err := validate(ctx, def, expr); err != nil {
		return nil, err
	}

	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return q.normalize(), nil
}

func validate(ctx *cue.Context, def cue.Value, expr ast.Expr) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	v := def.Unify(ctx.BuildExpr(expr))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ParseError{Message: err.Error()}
	}

	first := errs[0]
	pe := &ParseError{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		pe.Pos = positions[0]
	}
	return pe
}
