// Package scripting provides variable expansion for action scripts.
// Typed text and expected assertion values may embed ${expression}
// JavaScript or bare $VAR references, resolved at playback time.
package scripting

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/replay-runner/pkg/action"
)

// envVarPattern matches ALL_CAPS identifiers that look like env variables
var envVarPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9_]{2,})\b`)

// Engine evaluates ${expression} snippets in one shared JS runtime.
type Engine struct {
	runtime   *goja.Runtime
	variables map[string]string
	mu        sync.Mutex
}

// New creates an engine with an empty variable set.
func New() *Engine {
	return &Engine{
		runtime:   goja.New(),
		variables: make(map[string]string),
	}
}

// SetVariable sets a variable in both the Go map and the JS runtime.
func (e *Engine) SetVariable(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.variables[name] = value
	e.runtime.Set(name, value)
}

// SetVariables sets multiple variables.
func (e *Engine) SetVariables(vars map[string]string) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// GetVariable returns a variable value.
func (e *Engine) GetVariable(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.variables[name]
}

// ImportSystemEnv imports system environment variables whose names look
// like conventional env variables (uppercase with underscores).
func (e *Engine) ImportSystemEnv() {
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 && envVarPattern.MatchString(parts[0]) {
			e.SetVariable(parts[0], parts[1])
		}
	}
}

// Eval evaluates a JavaScript expression and returns its string value.
func (e *Engine) Eval(expr string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	val, err := e.runtime.RunString(expr)
	if err != nil {
		return "", err
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return "", nil
	}
	return fmt.Sprintf("%v", val.Export()), nil
}

// ExpandVariables expands ${expr} and $VAR syntax in text.
func (e *Engine) ExpandVariables(text string) string {
	text = e.expandExpressions(text)

	// Second pass: $VAR without braces, longest name first so FOO_BAR
	// wins over FOO.
	e.mu.Lock()
	names := make([]string, 0, len(e.variables))
	for name := range e.variables {
		names = append(names, name)
	}
	values := make(map[string]string, len(names))
	for _, n := range names {
		values[n] = e.variables[n]
	}
	e.mu.Unlock()

	sort.Slice(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	for _, name := range names {
		text = expandDollarVar(text, name, values[name])
	}
	return text
}

// expandExpressions evaluates every ${...} span, tracking brace depth so
// nested object literals survive.
func (e *Engine) expandExpressions(text string) string {
	result := text
	start := 0
	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		depth := 1
		end := idx + 2
		for end < len(result) && depth > 0 {
			switch result[end] {
			case '{':
				depth++
			case '}':
				depth--
			}
			end++
		}
		if depth != 0 {
			start = idx + 2
			continue
		}

		value, err := e.Eval(result[idx+2 : end-1])
		if err != nil {
			// Leave the span untouched; a typo should show up in the
			// replayed text, not abort the run.
			start = end
			continue
		}
		result = result[:idx] + value + result[end:]
		start = idx + len(value)
	}
	return result
}

// expandDollarVar replaces $NAME with value, respecting word boundaries.
func expandDollarVar(text, name, value string) string {
	pattern := "$" + name
	idx := 0
	for {
		pos := strings.Index(text[idx:], pattern)
		if pos == -1 {
			break
		}
		pos += idx

		endPos := pos + len(pattern)
		if endPos < len(text) {
			next := text[endPos]
			if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') ||
				(next >= '0' && next <= '9') || next == '_' {
				idx = endPos
				continue
			}
		}
		text = text[:pos] + value + text[endPos:]
		idx = pos + len(value)
	}
	return text
}

// ExpandScript returns a copy of the script with variables expanded in
// the fields that carry user-visible strings.
func (e *Engine) ExpandScript(s *action.Script) *action.Script {
	out := &action.Script{Name: s.Name, Actions: make([]action.Action, len(s.Actions))}
	copy(out.Actions, s.Actions)
	for i := range out.Actions {
		a := &out.Actions[i]
		if a.Text != "" {
			a.Text = e.ExpandVariables(a.Text)
		}
		if a.Expected != "" {
			a.Expected = e.ExpandVariables(a.Expected)
		}
	}
	return out
}
