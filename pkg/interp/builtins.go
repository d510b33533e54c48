package interp

import "fmt"

// builtins are bound in the global environment of every interpreter.
var builtins = []*Builtin{
	{Name: "打印", Arity: 1, Fn: builtinPrint},
	{Name: "输入", Arity: 0, Fn: builtinInput},
}

// builtinPrint writes the display form of its argument and a newline.
func builtinPrint(in *Interpreter, args []Value) (Value, error) {
	if _, err := fmt.Fprintln(in.Output, Display(args[0])); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return null, nil
}

// builtinInput reads one line, or returns null at end of input.
func builtinInput(in *Interpreter, _ []Value) (Value, error) {
	line, ok, err := in.readLine()
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if !ok {
		return null, nil
	}
	return String(line), nil
}
