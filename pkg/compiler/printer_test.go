package compiler

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Declarations",
			input:    "让 x=1 常量 y = \"a\\n\" 变量 z",
			expected: "让 x = 1\n常量 y = \"a\\n\"\n让 z\n",
		},
		{
			name:     "Binary is parenthesised",
			input:    "打印(1+2*3 且 非 真)",
			expected: "打印(((1 + (2 * 3)) 且 !真))\n",
		},
		{
			name:     "Nested assignment",
			input:    "a = b = 3",
			expected: "a = (b = 3)\n",
		},
		{
			name:  "Function and if",
			input: "函数 f(a,b){如果 a {返回 b} 否则 如果 b {返回} 否则 {返回 1}}",
			expected: "函数 f(a, b) {\n" +
				"    如果 a {\n" +
				"        返回 b\n" +
				"    } 否则 如果 b {\n" +
				"        返回\n" +
				"    } 否则 {\n" +
				"        返回 1\n" +
				"    }\n" +
				"}\n",
		},
		{
			name:     "Loops",
			input:    "循环 {跳出} 当 x {继续} 对于 c 在 \"ab\" {}",
			expected: "循环 {\n    跳出\n}\n当 x {\n    继续\n}\n对于 c 在 \"ab\" {\n}\n",
		},
		{
			name:     "Separator before bracket statement",
			input:    "x; [1, 2].长度()",
			expected: "x;\n[1, 2].长度()\n",
		},
		{
			name:     "Separator after bare return",
			input:    "函数 f() { 返回; 打印(1) }",
			expected: "函数 f() {\n    返回;\n    打印(1)\n}\n",
		},
		{
			name:     "Receivers",
			input:    "(a = [1]).添加(2).删除(0) b[0].长度()",
			expected: "(a = [1]).添加(2).删除(0)\nb[0].长度()\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(mustParse(t, tt.input))
			if got != tt.expected {
				t.Errorf("Format() =\n%s\nwant:\n%s", got, tt.expected)
			}
		})
	}
}

func TestFormatIsStable(t *testing.T) {
	programs := []string{
		`让 a = [1, "x\"y", 真, [2]]
		打印(a.添加(3).长度())
		函数 fib(n) { 如果 n < 2 { 返回 n } 返回 fib(n - 1) + fib(n - 2) }
		打印(fib(10))`,
		"让 i = 0 循环 i < 3 { i = i + 1; (i) }",
		"让 s = \"\" 对于 c 在 \"你好\" { s = c + s } 打印(-s.长度())",
		"当 输入() != 空 { 跳出 } x = y = z = 0.5",
		"函数 g() { 返回 } g();[1][0]",
	}

	for _, src := range programs {
		first := Format(mustParse(t, src))
		second := Format(mustParse(t, first))
		if first != second {
			t.Errorf("Format not stable for %q\nfirst:\n%s\nsecond:\n%s", src, first, second)
		}
	}
}
