package fanout

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// filter wraps a compiled CEL program evaluated against each delivered
// message. When disabled, Eval always returns true.
type filter struct {
	prog    cel.Program
	enabled bool
}

func newFilter(expr string) (filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("topic", cel.StringType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		// Parsed JSON payload (map/list/values) for field filtering
		cel.Variable("json", cel.DynType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return filter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return filter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return filter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return filter{}, err
	}
	return filter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a message. Evaluation
// errors count as a non-match.
func (f filter) Eval(topic string, payload []byte) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"topic":  topic,
		"size":   int64(len(payload)),
		"text":   string(payload),
		"json":   jsonObj,
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
