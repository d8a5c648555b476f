package main

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Script is a pipeline description such as `classify -> avatar -> generate`
type Script struct {
	Steps []*Step `parser:"@@ ( \"->\" @@ )*"`
}

// Step is one action with an optional string argument
type Step struct {
	Pos    lexer.Position
	Action string `parser:"@Keyword"`
	Arg    string `parser:"@String?"`
}

// Lexer definition
var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*\n?`},
	{Name: "Keyword", Pattern: `\b(capture|classify|describe|avatar|prompt|generate)\b`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`},
	{Name: "Pipe", Pattern: `->`},
	{Name: "Whitespace", Pattern: `[ \t\n\r]+`},
})

// Parser instance
var scriptParser = participle.MustBuild[Script](
	participle.Lexer(scriptLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// Parse parses a pipeline script from a string
func Parse(input string) (*Script, error) {
	return scriptParser.ParseString("", input)
}
