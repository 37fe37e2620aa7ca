package link

import (
	"sort"
	"strings"

	"github.com/apictx/apictx/internal/symbol"
)

// Resolver links class base expressions to known class FQNs.
type Resolver struct {
	classes map[string]bool     // known class FQNs
	modules map[string]bool     // known module FQNs
	aliases map[string]Aliases  // module FQN → alias table
	byName  map[string][]string // simple class name → sorted FQNs
}

// NewResolver indexes the symbol set for linking. modules is the run's
// module FQN set, aliases the per-module tables from ParseImports.
func NewResolver(syms []symbol.Symbol, modules map[string]bool, aliases map[string]Aliases) *Resolver {
	r := &Resolver{
		classes: map[string]bool{},
		modules: modules,
		aliases: aliases,
		byName:  map[string][]string{},
	}
	for _, s := range syms {
		info := s.Common()
		if info.Kind != symbol.KindClass || r.classes[info.FQN] {
			continue
		}
		r.classes[info.FQN] = true
		name := symbol.SimpleName(info.FQN)
		r.byName[name] = append(r.byName[name], info.FQN)
	}
	for name := range r.byName {
		sort.Strings(r.byName[name])
	}
	return r
}

// Link fills base_fqns on every class, leaving the raw bases untouched.
// Unresolvable bases are omitted; resolved FQNs keep declaration order,
// deduplicated.
func (r *Resolver) Link(syms []symbol.Symbol) []symbol.Symbol {
	out := make([]symbol.Symbol, len(syms))
	for i, s := range syms {
		cls, ok := s.(symbol.Class)
		if !ok {
			out[i] = s
			continue
		}
		module := r.enclosingModule(cls.FQN)
		table := r.aliases[module]
		baseFQNs := []string{}
		seen := map[string]bool{}
		for _, b := range cls.Bases {
			resolved, ok := r.resolveBase(b, module, table)
			if ok && !seen[resolved] {
				seen[resolved] = true
				baseFQNs = append(baseFQNs, resolved)
			}
		}
		cls.BaseFQNs = baseFQNs
		out[i] = cls
	}
	return out
}

// resolveBase resolves one base expression. Dotted expressions resolve
// their head through the alias table, then fall back to a verbatim match.
// Single identifiers prefer a same-module class (shadowing wins), then the
// alias table, then the lexicographically first class sharing the name.
func (r *Resolver) resolveBase(expr, module string, table Aliases) (string, bool) {
	expr = trimSubscript(expr)
	if expr == "" {
		return "", false
	}

	if head, rest, dotted := strings.Cut(expr, "."); dotted {
		if target, ok := table[head]; ok {
			if candidate := target + "." + rest; r.classes[candidate] {
				return candidate, true
			}
		}
		if r.classes[expr] {
			return expr, true
		}
		return "", false
	}

	if module != "" && r.classes[module+"."+expr] {
		return module + "." + expr, true
	}
	if target, ok := table[expr]; ok && r.classes[target] {
		return target, true
	}
	if fqns := r.byName[expr]; len(fqns) > 0 {
		return fqns[0], true
	}
	return "", false
}

// enclosingModule returns the longest known module FQN strictly prefixing
// the class FQN.
func (r *Resolver) enclosingModule(classFQN string) string {
	best := ""
	for m := range r.modules {
		if len(m) >= len(classFQN) || len(m) <= len(best) {
			continue
		}
		if classFQN[len(m)] == '.' && strings.HasPrefix(classFQN, m) {
			best = m
		}
	}
	return best
}

func trimSubscript(s string) string {
	if i := strings.Index(s, "["); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
