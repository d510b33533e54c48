package compiler

// DefaultMaxCallDepth bounds nested calls in both backends. Generated code
// reads the limit from RT_MAX_DEPTH, so -DRT_MAX_DEPTH=n overrides it.
const DefaultMaxCallDepth = 10000

// runtimeC is emitted verbatim at the top of every generated unit.
//
// Values are tagged unions. VAL_UNDEF is the zero kind so that static and
// freshly declared slots read as "not yet defined". Arrays are never
// mutated once built: append and remove copy. Error messages match the
// interpreter's RuntimeError text.
const runtimeC = `#include <math.h>
#include <stdarg.h>
#include <stdbool.h>
#include <stdio.h>
#include <stdlib.h>
#include <string.h>

#if defined(__GNUC__)
#pragma GCC diagnostic ignored "-Wunused-function"
#endif

typedef enum { VAL_UNDEF, VAL_NULL, VAL_NUMBER, VAL_STRING, VAL_BOOL, VAL_ARRAY } ValueKind;

typedef struct Array Array;

typedef struct {
    ValueKind kind;
    union {
        double number;
        const char *string;
        bool boolean;
        Array *array;
    } as;
} Value;

struct Array {
    size_t count;
    size_t capacity;
    Value *items;
};

static void rt_fail(const char *fmt, ...) {
    va_list ap;
    fflush(stdout);
    fputs("runtime error: ", stderr);
    va_start(ap, fmt);
    vfprintf(stderr, fmt, ap);
    va_end(ap);
    fputc('\n', stderr);
    exit(1);
}

#ifndef RT_MAX_DEPTH
#define RT_MAX_DEPTH 10000
#endif

static int rt_depth;

static void rt_enter(void) {
    if (rt_depth >= RT_MAX_DEPTH) rt_fail("stack overflow: call depth exceeds %d", RT_MAX_DEPTH);
    rt_depth++;
}

static void *rt_alloc(size_t n) {
    void *p = malloc(n ? n : 1);
    if (p == NULL) {
        fputs("out of memory\n", stderr);
        exit(1);
    }
    return p;
}

static Value rt_undef(void) { Value v; v.kind = VAL_UNDEF; v.as.number = 0; return v; }
static Value rt_null(void) { Value v; v.kind = VAL_NULL; v.as.number = 0; return v; }
static Value rt_number(double d) { Value v; v.kind = VAL_NUMBER; v.as.number = d; return v; }
static Value rt_string(const char *s) { Value v; v.kind = VAL_STRING; v.as.string = s; return v; }
static Value rt_bool(bool b) { Value v; v.kind = VAL_BOOL; v.as.boolean = b; return v; }

static const char *rt_type_name(Value v) {
    switch (v.kind) {
    case VAL_NUMBER: return "number";
    case VAL_STRING: return "string";
    case VAL_BOOL: return "boolean";
    case VAL_ARRAY: return "array";
    default: return "null";
    }
}

/* growable text buffer */
typedef struct {
    char *data;
    size_t len;
    size_t cap;
} Buf;

static void buf_putn(Buf *b, const char *s, size_t n) {
    if (b->len + n + 1 > b->cap) {
        size_t cap = b->cap ? b->cap : 32;
        while (cap < b->len + n + 1) cap *= 2;
        char *data = realloc(b->data, cap);
        if (data == NULL) {
            fputs("out of memory\n", stderr);
            exit(1);
        }
        b->data = data;
        b->cap = cap;
    }
    memcpy(b->data + b->len, s, n);
    b->len += n;
    b->data[b->len] = '\0';
}

static void buf_puts(Buf *b, const char *s) { buf_putn(b, s, strlen(s)); }

static char *buf_take(Buf *b) {
    if (b->data == NULL) buf_putn(b, "", 0);
    return b->data;
}

static void rt_format_number(double d, char *out, size_t size) {
    if (isnan(d)) { snprintf(out, size, "NaN"); return; }
    if (isinf(d)) { snprintf(out, size, d > 0 ? "Infinity" : "-Infinity"); return; }
    if (d == trunc(d) && fabs(d) < 1e15) { snprintf(out, size, "%.0f", d); return; }
    for (int p = 1; p <= 17; p++) {
        snprintf(out, size, "%.*g", p, d);
        if (strtod(out, NULL) == d) return;
    }
}

static void rt_render_into(Buf *b, Value v, bool quoted) {
    char num[64];
    switch (v.kind) {
    case VAL_NUMBER:
        rt_format_number(v.as.number, num, sizeof num);
        buf_puts(b, num);
        break;
    case VAL_STRING:
        if (!quoted) {
            buf_puts(b, v.as.string);
            break;
        }
        buf_puts(b, "\"");
        for (const char *p = v.as.string; *p; p++) {
            switch (*p) {
            case '"': buf_puts(b, "\\\""); break;
            case '\\': buf_puts(b, "\\\\"); break;
            case '\n': buf_puts(b, "\\n"); break;
            case '\t': buf_puts(b, "\\t"); break;
            case '\r': buf_puts(b, "\\r"); break;
            default: buf_putn(b, p, 1); break;
            }
        }
        buf_puts(b, "\"");
        break;
    case VAL_BOOL:
        buf_puts(b, v.as.boolean ? "true" : "false");
        break;
    case VAL_ARRAY:
        buf_puts(b, "[");
        for (size_t i = 0; i < v.as.array->count; i++) {
            if (i > 0) buf_puts(b, ", ");
            rt_render_into(b, v.as.array->items[i], true);
        }
        buf_puts(b, "]");
        break;
    default:
        buf_puts(b, "\347\251\272");
        break;
    }
}

static char *rt_to_text(Value v) {
    Buf b = {0};
    rt_render_into(&b, v, false);
    return buf_take(&b);
}

static bool rt_truthy(Value v) {
    switch (v.kind) {
    case VAL_BOOL: return v.as.boolean;
    case VAL_NUMBER: return v.as.number != 0;
    case VAL_STRING: return v.as.string[0] != '\0';
    case VAL_ARRAY: return true;
    default: return false;
    }
}

static Value rt_print(Value v) {
    char *s = rt_to_text(v);
    fputs(s, stdout);
    fputc('\n', stdout);
    free(s);
    return rt_null();
}

static Value rt_input(void) {
    Buf b = {0};
    bool any = false;
    int c;
    fflush(stdout);
    while ((c = getchar()) != EOF) {
        any = true;
        if (c == '\n') break;
        char ch = (char)c;
        buf_putn(&b, &ch, 1);
    }
    if (!any) return rt_null();
    char *s = buf_take(&b);
    if (b.len > 0 && s[b.len - 1] == '\r') s[--b.len] = '\0';
    return rt_string(s);
}

static void rt_type_error(const char *op, Value a, Value b) {
    rt_fail("type mismatch: cannot apply '%s' to %s and %s", op, rt_type_name(a), rt_type_name(b));
}

static bool rt_concatenable(Value v) {
    return v.kind == VAL_STRING || v.kind == VAL_NUMBER || v.kind == VAL_BOOL ||
           v.kind == VAL_NULL || v.kind == VAL_ARRAY;
}

static Value rt_add(Value a, Value b) {
    if (a.kind == VAL_NUMBER && b.kind == VAL_NUMBER) return rt_number(a.as.number + b.as.number);
    if ((a.kind == VAL_STRING && rt_concatenable(b)) || (b.kind == VAL_STRING && rt_concatenable(a))) {
        Buf out = {0};
        rt_render_into(&out, a, false);
        rt_render_into(&out, b, false);
        return rt_string(buf_take(&out));
    }
    rt_type_error("+", a, b);
    return rt_null();
}

static Value rt_sub(Value a, Value b) {
    if (a.kind != VAL_NUMBER || b.kind != VAL_NUMBER) rt_type_error("-", a, b);
    return rt_number(a.as.number - b.as.number);
}

static Value rt_mul(Value a, Value b) {
    if (a.kind != VAL_NUMBER || b.kind != VAL_NUMBER) rt_type_error("*", a, b);
    return rt_number(a.as.number * b.as.number);
}

static Value rt_div(Value a, Value b) {
    if (a.kind != VAL_NUMBER || b.kind != VAL_NUMBER) rt_type_error("/", a, b);
    if (b.as.number == 0) rt_fail("division by zero");
    return rt_number(a.as.number / b.as.number);
}

static Value rt_lt(Value a, Value b) {
    if (a.kind != VAL_NUMBER || b.kind != VAL_NUMBER) rt_type_error("<", a, b);
    return rt_bool(a.as.number < b.as.number);
}

static Value rt_le(Value a, Value b) {
    if (a.kind != VAL_NUMBER || b.kind != VAL_NUMBER) rt_type_error("<=", a, b);
    return rt_bool(a.as.number <= b.as.number);
}

static Value rt_gt(Value a, Value b) {
    if (a.kind != VAL_NUMBER || b.kind != VAL_NUMBER) rt_type_error(">", a, b);
    return rt_bool(a.as.number > b.as.number);
}

static Value rt_ge(Value a, Value b) {
    if (a.kind != VAL_NUMBER || b.kind != VAL_NUMBER) rt_type_error(">=", a, b);
    return rt_bool(a.as.number >= b.as.number);
}

static bool rt_equal(Value a, Value b) {
    if (a.kind != b.kind) return false;
    switch (a.kind) {
    case VAL_NUMBER: return a.as.number == b.as.number;
    case VAL_STRING: return strcmp(a.as.string, b.as.string) == 0;
    case VAL_BOOL: return a.as.boolean == b.as.boolean;
    case VAL_NULL: return true;
    default: return false;
    }
}

static Value rt_eq(Value a, Value b) { return rt_bool(rt_equal(a, b)); }
static Value rt_ne(Value a, Value b) { return rt_bool(!rt_equal(a, b)); }
static Value rt_and(Value a, Value b) { return rt_bool(rt_truthy(a) && rt_truthy(b)); }
static Value rt_or(Value a, Value b) { return rt_bool(rt_truthy(a) || rt_truthy(b)); }
static Value rt_not(Value v) { return rt_bool(!rt_truthy(v)); }

static Value rt_array_new(size_t capacity) {
    Array *a = rt_alloc(sizeof *a);
    a->count = 0;
    a->capacity = capacity ? capacity : 4;
    a->items = rt_alloc(a->capacity * sizeof(Value));
    Value v;
    v.kind = VAL_ARRAY;
    v.as.array = a;
    return v;
}

/* rt_array_push is only used while an array is being built. */
static void rt_array_push(Value *arr, Value item) {
    Array *a = arr->as.array;
    if (a->count == a->capacity) {
        size_t capacity = a->capacity * 2;
        Value *items = realloc(a->items, capacity * sizeof(Value));
        if (items == NULL) {
            fputs("out of memory\n", stderr);
            exit(1);
        }
        a->items = items;
        a->capacity = capacity;
    }
    a->items[a->count++] = item;
}

static void rt_require_array(const char *op, Value arr) {
    if (arr.kind != VAL_ARRAY) rt_fail("%s requires an array, got %s", op, rt_type_name(arr));
}

static size_t rt_check_index(const char *op, Value arr, Value idx) {
    rt_require_array(op, arr);
    if (idx.kind != VAL_NUMBER) rt_fail("%s requires a numeric index, got %s", op, rt_type_name(idx));
    double i = idx.as.number;
    if (isnan(i) || i < 0 || i >= (double)arr.as.array->count) {
        char num[64];
        rt_format_number(i, num, sizeof num);
        rt_fail("index out of range: index %s, length %lu", num, (unsigned long)arr.as.array->count);
    }
    return (size_t)trunc(i);
}

static Value rt_index(Value arr, Value idx) {
    size_t i = rt_check_index("index", arr, idx);
    return arr.as.array->items[i];
}

static Value rt_length(Value arr) {
    rt_require_array("length", arr);
    return rt_number((double)arr.as.array->count);
}

static Value rt_append(Value arr, Value item) {
    rt_require_array("append", arr);
    Value out = rt_array_new(arr.as.array->count + 1);
    for (size_t i = 0; i < arr.as.array->count; i++) rt_array_push(&out, arr.as.array->items[i]);
    rt_array_push(&out, item);
    return out;
}

static Value rt_remove_at(Value arr, Value idx) {
    size_t skip = rt_check_index("removeAt", arr, idx);
    Value out = rt_array_new(arr.as.array->count);
    for (size_t i = 0; i < arr.as.array->count; i++) {
        if (i != skip) rt_array_push(&out, arr.as.array->items[i]);
    }
    return out;
}

static Value rt_read(Value v, const char *name) {
    if (v.kind == VAL_UNDEF) rt_fail("undefined variable: %s", name);
    return v;
}

/* rt_read_or reads a function local that shadows a global: until the local
   is defined, reads see the global. */
static Value rt_read_or(Value local, Value global, const char *name) {
    if (local.kind != VAL_UNDEF) return local;
    return rt_read(global, name);
}

static Value rt_assign(Value *slot, Value v, const char *name) {
    if (slot->kind == VAL_UNDEF) rt_fail("undefined variable: %s", name);
    *slot = v;
    return v;
}

static Value rt_undefined_variable(const char *name) {
    rt_fail("undefined variable: %s", name);
    return rt_null();
}

static Value rt_undefined_function(const char *name) {
    rt_fail("undefined function: %s", name);
    return rt_null();
}

static Value rt_not_callable(Value v, const char *name) {
    if (v.kind == VAL_UNDEF) rt_fail("undefined function: %s", name);
    rt_fail("%s is not a function", name);
    return rt_null();
}

static void rt_require_function(bool declared, const char *name) {
    if (!declared) rt_fail("undefined function: %s", name);
}

static Value rt_arity_error(const char *name, int expected, int got) {
    rt_fail("%s expects %d arguments, got %d", name, expected, got);
    return rt_null();
}

static void rt_control_error(const char *keyword) {
    rt_fail("%s outside loop", keyword);
}

static Value rt_require_string(Value v) {
    if (v.kind != VAL_STRING) rt_fail("can only iterate over a string, got %s", rt_type_name(v));
    return v;
}

/* rt_next_char returns the UTF-8 character at *pos and advances past it. */
static Value rt_next_char(Value s, size_t *pos) {
    const unsigned char *p = (const unsigned char *)s.as.string + *pos;
    size_t n = 1;
    if (*p >= 0xF0) n = 4;
    else if (*p >= 0xE0) n = 3;
    else if (*p >= 0xC0) n = 2;
    for (size_t k = 1; k < n; k++) {
        if (p[k] == '\0') {
            n = k;
            break;
        }
    }
    char *out = rt_alloc(n + 1);
    memcpy(out, p, n);
    out[n] = '\0';
    *pos += n;
    return rt_string(out);
}
`
