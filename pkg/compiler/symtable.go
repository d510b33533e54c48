package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ahrtr/gocontainer/set"
	"github.com/segmentio/fasthash/fnv1a"
)

type SymbolKind int

const (
	SymGlobal SymbolKind = iota
	SymLocal
	SymParam
	SymFunction
	SymBuiltin
)

func (k SymbolKind) String() string {
	switch k {
	case SymGlobal:
		return "global"
	case SymLocal:
		return "local"
	case SymParam:
		return "param"
	case SymFunction:
		return "function"
	case SymBuiltin:
		return "builtin"
	}
	return "unknown"
}

// Symbol is one language-level name and the C identifier it is lowered to.
// For functions, Flag names the C bool that records whether the declaration
// has executed yet.
type Symbol struct {
	Name  string
	CName string
	Flag  string
	Kind  SymbolKind
	Arity int
}

// builtins lists the runtime-provided functions and their C helpers.
var builtins = map[string]Symbol{
	"打印": {Name: "打印", CName: "rt_print", Kind: SymBuiltin, Arity: 1},
	"输入": {Name: "输入", CName: "rt_input", Kind: SymBuiltin, Arity: 0},
}

// funcScope holds the parameters and locals of one language function.
// The language has no block scope, so one map covers the whole body.
type funcScope struct {
	name    string
	symbols map[string]Symbol
	order   []string
}

// SymbolTable maps language names to C identifiers.
// Globals and functions live for the whole program; at most one function
// scope is active at a time because functions do not nest.
type SymbolTable struct {
	globals     map[string]Symbol
	globalOrder []string
	funcs       map[string]Symbol
	funcOrder   []string
	scopes      map[string]*funcScope
	current     *funcScope
	used        set.Interface // C identifiers already handed out
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		globals: make(map[string]Symbol),
		funcs:   make(map[string]Symbol),
		scopes:  make(map[string]*funcScope),
		used:    set.New(),
	}
}

// isPlainIdent reports whether name is already a valid C identifier tail.
func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// mangle derives a unique C identifier for name. ASCII names keep their
// spelling; anything else is replaced by its FNV-1a hash.
func (st *SymbolTable) mangle(prefix, name string) string {
	base := prefix + "a_" + name
	if !isPlainIdent(name) {
		base = fmt.Sprintf("%su_%016x", prefix, fnv1a.HashString64(name))
	}
	cname := base
	for n := 2; st.used.Contains(cname); n++ {
		cname = fmt.Sprintf("%s_%d", base, n)
	}
	st.used.Add(cname)
	return cname
}

// DefineGlobal declares a program-level variable. Redeclaring is allowed and
// returns the existing symbol.
func (st *SymbolTable) DefineGlobal(name string) (Symbol, error) {
	if _, ok := builtins[name]; ok {
		return Symbol{}, &UnsupportedError{Construct: "variable shadows a builtin", Name: name}
	}
	if _, ok := st.funcs[name]; ok {
		return Symbol{}, &UnsupportedError{Construct: "name used for both a function and a variable", Name: name}
	}
	if sym, ok := st.globals[name]; ok {
		return sym, nil
	}
	sym := Symbol{Name: name, CName: st.mangle("g_", name), Kind: SymGlobal}
	st.globals[name] = sym
	st.globalOrder = append(st.globalOrder, name)
	return sym, nil
}

// DefineFunction declares a top-level function.
func (st *SymbolTable) DefineFunction(name string, arity int) (Symbol, error) {
	if _, ok := builtins[name]; ok {
		return Symbol{}, &UnsupportedError{Construct: "function shadows a builtin", Name: name}
	}
	if _, ok := st.funcs[name]; ok {
		return Symbol{}, &UnsupportedError{Construct: "function declared more than once", Name: name}
	}
	if _, ok := st.globals[name]; ok {
		return Symbol{}, &UnsupportedError{Construct: "name used for both a function and a variable", Name: name}
	}
	sym := Symbol{
		Name:  name,
		CName: st.mangle("fn_", name),
		Flag:  st.mangle("d_", name),
		Kind:  SymFunction,
		Arity: arity,
	}
	st.funcs[name] = sym
	st.funcOrder = append(st.funcOrder, name)
	return sym, nil
}

// EnterFunction activates the scope of function fn, creating it on first use.
func (st *SymbolTable) EnterFunction(fn string) {
	scope, ok := st.scopes[fn]
	if !ok {
		scope = &funcScope{name: fn, symbols: make(map[string]Symbol)}
		st.scopes[fn] = scope
	}
	st.current = scope
}

// ExitFunction returns to program level.
func (st *SymbolTable) ExitFunction() {
	st.current = nil
}

// InFunction reports whether a function scope is active.
func (st *SymbolTable) InFunction() bool {
	return st.current != nil
}

// DefineParam declares a parameter of the active function.
func (st *SymbolTable) DefineParam(name string) Symbol {
	return st.defineLocal(name, SymParam)
}

// DefineLocal declares a variable of the active function. A name that is
// already a parameter keeps its parameter slot.
func (st *SymbolTable) DefineLocal(name string) Symbol {
	return st.defineLocal(name, SymLocal)
}

func (st *SymbolTable) defineLocal(name string, kind SymbolKind) Symbol {
	if sym, ok := st.current.symbols[name]; ok {
		return sym
	}
	sym := Symbol{Name: name, CName: st.mangle("l_", name), Kind: kind}
	st.current.symbols[name] = sym
	st.current.order = append(st.current.order, name)
	return sym
}

// Local returns the parameter or local called name in the active function.
func (st *SymbolTable) Local(name string) (Symbol, bool) {
	if st.current == nil {
		return Symbol{}, false
	}
	sym, ok := st.current.symbols[name]
	return sym, ok
}

// Locals returns the active function's locals (not parameters) in
// declaration order.
func (st *SymbolTable) Locals() []Symbol {
	if st.current == nil {
		return nil
	}
	var out []Symbol
	for _, name := range st.current.order {
		if sym := st.current.symbols[name]; sym.Kind == SymLocal {
			out = append(out, sym)
		}
	}
	return out
}

// Global returns the program-level variable called name.
func (st *SymbolTable) Global(name string) (Symbol, bool) {
	sym, ok := st.globals[name]
	return sym, ok
}

// Function returns the user function called name.
func (st *SymbolTable) Function(name string) (Symbol, bool) {
	sym, ok := st.funcs[name]
	return sym, ok
}

// Builtin returns the builtin called name.
func (st *SymbolTable) Builtin(name string) (Symbol, bool) {
	sym, ok := builtins[name]
	return sym, ok
}

// Globals returns all program-level variables in declaration order.
func (st *SymbolTable) Globals() []Symbol {
	out := make([]Symbol, 0, len(st.globalOrder))
	for _, name := range st.globalOrder {
		out = append(out, st.globals[name])
	}
	return out
}

// Functions returns all user functions in declaration order.
func (st *SymbolTable) Functions() []Symbol {
	out := make([]Symbol, 0, len(st.funcOrder))
	for _, name := range st.funcOrder {
		out = append(out, st.funcs[name])
	}
	return out
}

func (st *SymbolTable) String() string {
	var sb strings.Builder
	sb.WriteString("Symbols\n")
	for _, sym := range st.Globals() {
		fmt.Fprintf(&sb, "  %-8s %s -> %s\n", sym.Kind, sym.Name, sym.CName)
	}
	for _, sym := range st.Functions() {
		fmt.Fprintf(&sb, "  %-8s %s/%d -> %s\n", sym.Kind, sym.Name, sym.Arity, sym.CName)
		scope, ok := st.scopes[sym.Name]
		if !ok {
			continue
		}
		names := append([]string(nil), scope.order...)
		sort.Strings(names)
		for _, n := range names {
			local := scope.symbols[n]
			fmt.Fprintf(&sb, "    %-6s %s -> %s\n", local.Kind, local.Name, local.CName)
		}
	}
	return sb.String()
}
