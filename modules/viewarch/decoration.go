package viewarch

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

var decorationEnvOnce sync.Once
var decorationEnv *cel.Env
var decorationEnvErr error

var decorationProgramCache sync.Map

func decorationCELEnv() (*cel.Env, error) {
	decorationEnvOnce.Do(func() {
		decorationEnv, decorationEnvErr = cel.NewEnv(
			cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return decorationEnv, decorationEnvErr
}

// compileDecoration compiles raw as a boolean expression over `record`.
// Compilation failure is not an error: the decoration is kept with
// Parsed=false so the raw rule still reaches the client.
func compileDecoration(className string, raw string) Decoration {
	decoration := Decoration{
		ClassName: strings.TrimSpace(className),
		Raw:       strings.TrimSpace(raw),
	}
	if decoration.Raw == "" {
		return decoration
	}
	_, err := loadOrCompileDecorationProgram(decoration.Raw)
	decoration.Parsed = err == nil
	return decoration
}

// EvalDecoration evaluates a parsed decoration rule against a record.
// Unparsed rules evaluate to false.
func EvalDecoration(decoration Decoration, record map[string]any) (bool, error) {
	if !decoration.Parsed {
		return false, nil
	}
	program, err := loadOrCompileDecorationProgram(decoration.Raw)
	if err != nil {
		return false, err
	}
	if record == nil {
		record = map[string]any{}
	}
	out, _, err := program.Eval(map[string]any{"record": record})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("decoration expression did not yield bool")
	}
	return v, nil
}

func loadOrCompileDecorationProgram(expr string) (cel.Program, error) {
	if cached, ok := decorationProgramCache.Load(expr); ok {
		if program, ok := cached.(cel.Program); ok {
			return program, nil
		}
		return nil, cached.(error)
	}
	env, err := decorationCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		decorationProgramCache.Store(expr, issues.Err())
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		err := errors.New("decoration expression must be bool")
		decorationProgramCache.Store(expr, err)
		return nil, err
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	decorationProgramCache.Store(expr, program)
	return program, nil
}
