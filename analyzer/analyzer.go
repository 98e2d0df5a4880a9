// Package analyzer provides pre-execution static analysis of code payloads.
//
// The analyzer parses a Starlark payload into a syntax tree and walks it
// pre-order, rejecting the first construct that reaches for a denylisted
// capability: dynamic evaluation, filesystem/process/network primitives,
// reflection-style introspection, or a load of any module outside the
// configured allowlist. The check is purely syntactic; indirect invocation
// hidden behind aliasing is an accepted, documented residual risk that the
// sandbox's restricted runtime covers as defense-in-depth.
package analyzer

import (
	"fmt"
	"strings"

	"go.starlark.net/syntax"

	"github.com/BaSui01/guardflow/types"
)

// Rule IDs surfaced in a Rejection.
const (
	RuleParseError          = "parse-error"
	RuleDisallowedImport    = "disallowed-import"
	RuleDisallowedCall      = "disallowed-call"
	RuleDisallowedAttribute = "disallowed-attribute"
	RuleUnsupportedLanguage = "unsupported-language"
)

// defaultDeniedCalls are capability primitives a payload may never invoke:
// dynamic code evaluation, file/stream access, and attribute introspection.
var defaultDeniedCalls = []string{
	"exec", "eval", "compile", "open", "input",
	"getattr", "hasattr", "dir",
}

// defaultAllowedModules is the closed set of loadable modules.
var defaultAllowedModules = []string{"math", "json"}

// Config configures the analyzer.
type Config struct {
	// DeniedCalls extends the built-in capability denylist.
	DeniedCalls []string `json:"denied_calls" yaml:"denied_calls"`
	// AllowedModules replaces the default load() allowlist when non-empty.
	AllowedModules []string `json:"allowed_modules" yaml:"allowed_modules"`
}

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// Analyzer rejects code payloads that syntactically reach denylisted
// capabilities. The rule sets are fixed at construction and safe for
// unsynchronized concurrent use.
type Analyzer struct {
	opts           *syntax.FileOptions
	deniedCalls    map[string]bool
	allowedModules map[string]bool
}

// New creates an Analyzer.
func New(config *Config) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}

	denied := make(map[string]bool)
	for _, name := range defaultDeniedCalls {
		denied[name] = true
	}
	for _, name := range config.DeniedCalls {
		denied[name] = true
	}

	modules := config.AllowedModules
	if len(modules) == 0 {
		modules = defaultAllowedModules
	}
	allowed := make(map[string]bool)
	for _, m := range modules {
		allowed[normalizeModule(m)] = true
	}

	return &Analyzer{
		opts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
		deniedCalls:    denied,
		allowedModules: allowed,
	}
}

// FileOptions returns the syntax options shared with the executor, so the
// analyzed tree and the executed program agree on the accepted dialect.
func (a *Analyzer) FileOptions() *syntax.FileOptions {
	return a.opts
}

// AllowedModule reports whether the named module may be loaded.
func (a *Analyzer) AllowedModule(name string) bool {
	return a.allowedModules[normalizeModule(name)]
}

// Analyze parses the payload and walks the tree pre-order, returning a
// Rejection for the first disallowed construct, or nil if the payload is
// accepted. Analysis is fail-fast: it never continues past a violation.
func (a *Analyzer) Analyze(p types.Payload) *types.Rejection {
	if p.Language != "" && p.Language != "starlark" && p.Language != "python" {
		return &types.Rejection{
			RuleID:          RuleUnsupportedLanguage,
			NodeDescription: fmt.Sprintf("language %q is not supported", p.Language),
		}
	}

	file, err := a.opts.Parse("payload.star", p.Content, 0)
	if err != nil {
		return parseRejection(err)
	}

	var rejection *types.Rejection
	syntax.Walk(file, func(n syntax.Node) bool {
		if rejection != nil || n == nil {
			return false
		}
		rejection = a.checkNode(n)
		return rejection == nil
	})

	return rejection
}

// checkNode applies the capability denylist to a single node.
func (a *Analyzer) checkNode(n syntax.Node) *types.Rejection {
	switch node := n.(type) {
	case *syntax.LoadStmt:
		module, _ := node.Module.Value.(string)
		if !a.AllowedModule(module) {
			return &types.Rejection{
				RuleID:          RuleDisallowedImport,
				NodeDescription: fmt.Sprintf("load of module %q", module),
				Line:            nodeLine(n),
			}
		}

	case *syntax.CallExpr:
		if ident, ok := node.Fn.(*syntax.Ident); ok && a.deniedCalls[ident.Name] {
			return &types.Rejection{
				RuleID:          RuleDisallowedCall,
				NodeDescription: fmt.Sprintf("call to %q", ident.Name),
				Line:            nodeLine(n),
			}
		}

	case *syntax.DotExpr:
		if strings.HasPrefix(node.Name.Name, "__") {
			return &types.Rejection{
				RuleID:          RuleDisallowedAttribute,
				NodeDescription: fmt.Sprintf("dunder attribute %q", node.Name.Name),
				Line:            nodeLine(n),
			}
		}
	}

	return nil
}

// parseRejection converts a parse failure into a Rejection.
func parseRejection(err error) *types.Rejection {
	line := 0
	msg := err.Error()
	if se, ok := err.(syntax.Error); ok {
		line = int(se.Pos.Line)
		msg = se.Msg
	}
	return &types.Rejection{
		RuleID:          RuleParseError,
		NodeDescription: fmt.Sprintf("syntax error: %s", msg),
		Line:            line,
	}
}

func nodeLine(n syntax.Node) int {
	start, _ := n.Span()
	return int(start.Line)
}

// normalizeModule strips the conventional .star suffix so "math" and
// "math.star" name the same module.
func normalizeModule(name string) string {
	return strings.TrimSuffix(name, ".star")
}
