package interp

import "math"

func binary(op string, a, b Value) (Value, error) {
	switch op {
	case "+":
		return add(a, b)
	case "==":
		return Bool(Equal(a, b)), nil
	case "!=":
		return Bool(!Equal(a, b)), nil
	case "&&":
		return Bool(Truthy(a) && Truthy(b)), nil
	case "||":
		return Bool(Truthy(a) || Truthy(b)), nil
	}

	x, xok := a.(Number)
	y, yok := b.(Number)
	if !xok || !yok {
		return nil, typeMismatch(op, a, b)
	}
	switch op {
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return nil, ErrDivisionByZero
		}
		return x / y, nil
	case "<":
		return Bool(x < y), nil
	case "<=":
		return Bool(x <= y), nil
	case ">":
		return Bool(x > y), nil
	case ">=":
		return Bool(x >= y), nil
	}
	return nil, typeMismatch(op, a, b)
}

// concatenable reports whether v may be joined to a string with +.
func concatenable(v Value) bool {
	switch v.(type) {
	case String, Number, Bool, Null, Array:
		return true
	}
	return false
}

func add(a, b Value) (Value, error) {
	if x, ok := a.(Number); ok {
		if y, ok := b.(Number); ok {
			return x + y, nil
		}
	}
	_, as := a.(String)
	_, bs := b.(String)
	if (as && concatenable(b)) || (bs && concatenable(a)) {
		return String(Display(a) + Display(b)), nil
	}
	return nil, typeMismatch("+", a, b)
}

// checkIndex validates idx against arr and returns it as a position.
func checkIndex(op string, arr, idx Value) (Array, int, error) {
	a, ok := arr.(Array)
	if !ok {
		return nil, 0, &RuntimeError{Kind: NotAnArray, Op: op, Left: arr.TypeName()}
	}
	n, ok := idx.(Number)
	if !ok {
		return nil, 0, &RuntimeError{Kind: BadIndex, Op: op, Right: idx.TypeName()}
	}
	f := float64(n)
	if math.IsNaN(f) || f < 0 || f >= float64(len(a)) {
		return nil, 0, &RuntimeError{Kind: IndexOutOfRange, Op: op, Index: f, Length: len(a)}
	}
	return a, int(math.Trunc(f)), nil
}

func index(arr, idx Value) (Value, error) {
	a, i, err := checkIndex("index", arr, idx)
	if err != nil {
		return nil, err
	}
	return a[i], nil
}

func length(arr Value) (Value, error) {
	a, ok := arr.(Array)
	if !ok {
		return nil, &RuntimeError{Kind: NotAnArray, Op: "length", Left: arr.TypeName()}
	}
	return Number(len(a)), nil
}

func appendTo(arr, el Value) (Value, error) {
	a, ok := arr.(Array)
	if !ok {
		return nil, &RuntimeError{Kind: NotAnArray, Op: "append", Left: arr.TypeName()}
	}
	out := make(Array, len(a), len(a)+1)
	copy(out, a)
	return append(out, el), nil
}

func removeAt(arr, idx Value) (Value, error) {
	a, i, err := checkIndex("removeAt", arr, idx)
	if err != nil {
		return nil, err
	}
	out := make(Array, 0, len(a)-1)
	out = append(out, a[:i]...)
	return append(out, a[i+1:]...), nil
}
