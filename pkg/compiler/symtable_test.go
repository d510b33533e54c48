package compiler

import (
	"errors"
	"strings"
	"testing"
)

func TestSymbolTableMangling(t *testing.T) {
	st := NewSymbolTable()

	x, err := st.DefineGlobal("x")
	if err != nil {
		t.Fatal(err)
	}
	if x.CName != "g_a_x" {
		t.Errorf("CName = %q, want g_a_x", x.CName)
	}

	again, _ := st.DefineGlobal("x")
	if again != x {
		t.Errorf("redeclaration returned %+v, want %+v", again, x)
	}

	wide, _ := st.DefineGlobal("计数")
	if !strings.HasPrefix(wide.CName, "g_u_") || len(wide.CName) != len("g_u_")+16 {
		t.Errorf("CName = %q, want g_u_ followed by 16 hex digits", wide.CName)
	}

	fn, err := st.DefineFunction("f", 2)
	if err != nil {
		t.Fatal(err)
	}
	if fn.CName != "fn_a_f" || fn.Flag != "d_a_f" || fn.Arity != 2 {
		t.Errorf("function symbol = %+v", fn)
	}
}

func TestSymbolTableUniqueNames(t *testing.T) {
	st := NewSymbolTable()
	st.EnterFunction("f")
	a := st.DefineLocal("v")
	st.ExitFunction()
	st.EnterFunction("g")
	b := st.DefineLocal("v")
	st.ExitFunction()

	if a.CName != "l_a_v" || b.CName != "l_a_v_2" {
		t.Errorf("got %q and %q, want l_a_v and l_a_v_2", a.CName, b.CName)
	}
}

func TestSymbolTableScopes(t *testing.T) {
	st := NewSymbolTable()
	st.DefineGlobal("g")
	st.EnterFunction("f")
	st.DefineParam("p")
	st.DefineLocal("p")
	st.DefineLocal("q")

	if !st.InFunction() {
		t.Fatal("InFunction = false inside a function")
	}
	if sym, ok := st.Local("p"); !ok || sym.Kind != SymParam {
		t.Errorf("Local(p) = %+v, %v; want parameter", sym, ok)
	}
	locals := st.Locals()
	if len(locals) != 1 || locals[0].Name != "q" {
		t.Errorf("Locals() = %+v, want only q", locals)
	}
	if _, ok := st.Local("g"); ok {
		t.Error("globals must not appear as locals")
	}
	st.ExitFunction()
	if _, ok := st.Local("q"); ok {
		t.Error("Local resolved outside any function")
	}
}

func TestSymbolTableConflicts(t *testing.T) {
	st := NewSymbolTable()
	st.DefineGlobal("v")
	st.DefineFunction("f", 0)

	tests := []struct {
		name   string
		define func() error
	}{
		{"Global over function", func() error { _, err := st.DefineGlobal("f"); return err }},
		{"Function over global", func() error { _, err := st.DefineFunction("v", 0); return err }},
		{"Function twice", func() error { _, err := st.DefineFunction("f", 1); return err }},
		{"Builtin function", func() error { _, err := st.DefineFunction("输入", 0); return err }},
		{"Builtin variable", func() error { _, err := st.DefineGlobal("打印"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ue *UnsupportedError
			if err := tt.define(); !errors.As(err, &ue) {
				t.Errorf("error = %v, want *UnsupportedError", err)
			}
		})
	}
}
