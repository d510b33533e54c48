package compiler

import (
	"reflect"
	"testing"
)

func TestFoldConstant(t *testing.T) {
	tests := []struct {
		name     string
		input    Expr
		expected Expr
	}{
		{"Arithmetic", bin("+", num(1), bin("*", num(2), num(3))), num(7)},
		{"Comparison", bin("<", num(1), num(2)), &BoolLiteral{Value: true}},
		{"Not", &UnaryExpr{Op: "!", Operand: bin("==", num(1), num(2))}, &BoolLiteral{Value: true}},
		{"Concatenation", bin("+", &StringLiteral{Value: "n="}, num(2.5)), &StringLiteral{Value: "n=2.5"}},
		{"Bool concatenation", bin("+", &BoolLiteral{Value: false}, &StringLiteral{Value: "!"}), &StringLiteral{Value: "false!"}},
		{"Division by zero stays", bin("/", num(1), num(0)), bin("/", num(1), num(0))},
		{"Type error stays", bin("-", &StringLiteral{Value: "a"}, num(1)), bin("-", &StringLiteral{Value: "a"}, num(1))},
		{"Partial fold", bin("+", ref("x"), bin("-", num(5), num(2))), bin("+", ref("x"), num(3))},
		{"Logical stays", bin("&&", &BoolLiteral{Value: true}, &BoolLiteral{Value: false}), bin("&&", &BoolLiteral{Value: true}, &BoolLiteral{Value: false})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := foldConstant(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("foldConstant() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReachableFunctions(t *testing.T) {
	prog := mustParse(t, `
函数 a() { 返回 b() }
函数 b() { 返回 1 }
函数 c() { 返回 a() }
如果 真 { 打印(a()) }`)

	funcs := make(map[string]*FuncDecl)
	for _, s := range prog.Stmts {
		if f, ok := s.(*FuncDecl); ok {
			funcs[f.Name] = f
		}
	}
	got := reachableFunctions(prog.Stmts, funcs)
	want := map[string]bool{"a": true, "b": true, "打印": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reachableFunctions() = %v, want %v", got, want)
	}
}
