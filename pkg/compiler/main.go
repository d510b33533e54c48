// Package compiler provides the lexer, parser, pretty printer and C code
// generator for cnlang, a small language with Chinese keywords.
//
// Pipeline: source → Lex → Parse → Program → { Format | Generate → C text }
//
// The same Program is executed directly by package interp; both backends
// implement one set of language rules.
package compiler
