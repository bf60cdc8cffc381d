package sync

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// CompileAutoApprovePolicy compiles a CEL expression deciding whether a
// submitted redline is approved without review. The expression sees the
// redline as four string variables and must evaluate to bool:
//
//	field     — target order field ("sellingPrice", "origin", ...)
//	original  — value currently on the order
//	requested — value the redline asks for
//	reason    — free-text justification
//
// Example: `field == "serviceType" || double(requested) <= double(original)`.
func CompileAutoApprovePolicy(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("field", cel.StringType),
		cel.Variable("original", cel.StringType),
		cel.Variable("requested", cel.StringType),
		cel.Variable("reason", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("build policy environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile policy: %w", iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("policy must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}
	return prg, nil
}

// evalAutoApprove runs the installed policy against a redline. A missing
// policy or an evaluation error means no auto-approval.
func (e *Engine) evalAutoApprove(field, original, requested, reason string) bool {
	if e.autoApprove == nil {
		return false
	}
	out, _, err := e.autoApprove.Eval(map[string]any{
		"field":     field,
		"original":  original,
		"requested": requested,
		"reason":    reason,
	})
	if err != nil {
		e.log.Warnw("auto-approve policy evaluation failed", "error", err)
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
