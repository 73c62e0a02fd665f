package codegen

import "github.com/jmylchreest/wbcore/internal/runtimereq"

// Envelope wraps a module's generated body in its per-module-type wrapper
// (spec.md §4.5 "Composition": "wraps the result in a per-module-type
// envelope").
type Envelope interface {
	Wrap(moduleID, body string) string
}

// FunctionFactoryEnvelope is the default CommonJS-style wrapper: a factory
// function keyed by module id, called by the require runtime module with
// (module, exports, require).
type FunctionFactoryEnvelope struct{}

func (FunctionFactoryEnvelope) Wrap(moduleID, body string) string {
	return "\"" + moduleID + "\": function(module, exports, __w_require__) {\n" + body + "\n}"
}

// EvalWrappedEnvelope wraps the body in an eval() call carrying a
// sourceURL comment, the form HMR needs so a replaced module's stack
// traces still point at a named location after a hot update swaps it in.
type EvalWrappedEnvelope struct{}

func (EvalWrappedEnvelope) Wrap(moduleID, body string) string {
	return "\"" + moduleID + "\": function(module, exports, __w_require__) {\n" +
		"eval(" + jsQuote(body+"\n//# sourceURL=webpack-internal:///"+moduleID) + ");\n" +
		"}"
}

// NamespaceEnvelope wraps a module folded into a concatenated group: its
// body runs inline under the group's shared namespace variable instead of
// through a separate factory/require call.
type NamespaceEnvelope struct {
	Namespace string
}

func (e NamespaceEnvelope) Wrap(moduleID, body string) string {
	return "/* " + moduleID + " */\n(function() {\n" + body + "\n})();"
}

// jsQuote renders s as a double-quoted JS string literal, escaping
// backslashes, quotes and newlines.
func jsQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			out = append(out, '\\', c)
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, c)
		}
	}
	out = append(out, '"')
	return string(out)
}

// envelopeFor selects the wrapper a module's generated body is placed in:
// NamespaceEnvelope when concatenated, EvalWrappedEnvelope when HMR accept
// is required, FunctionFactoryEnvelope otherwise.
func envelopeFor(ctx *GenerationContext) Envelope {
	if ctx.ConcatenationScope != nil {
		return NamespaceEnvelope{Namespace: ctx.ConcatenationScope.ModuleName}
	}
	if ctx.Requirements.Has(runtimereq.HMRAccept) {
		return EvalWrappedEnvelope{}
	}
	return FunctionFactoryEnvelope{}
}
