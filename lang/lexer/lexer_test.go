// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer

import (
	"testing"

	"github.com/probechain/probescript/lang/token"
)

// tok is a compact expected-token literal for table tests.
type tok struct {
	typ token.Type
	lit string
}

func assertTokens(t *testing.T, source string, want []tok) {
	t.Helper()
	l := New("test.pbs", source)
	for i, w := range want {
		got := l.NextToken()
		if got.Type != w.typ || got.Literal != w.lit {
			t.Fatalf("token %d = (%s, %q); want (%s, %q)", i, got.Type, got.Literal, w.typ, w.lit)
		}
	}
	if got := l.NextToken(); got.Type != token.EOF {
		t.Fatalf("trailing token = (%s, %q); want EOF", got.Type, got.Literal)
	}
}

func TestPunctuationAndOperators(t *testing.T) {
	assertTokens(t, "(){},.;+-*/! = == != < <= > >=", []tok{
		{token.LPAREN, "("}, {token.RPAREN, ")"},
		{token.LBRACE, "{"}, {token.RBRACE, "}"},
		{token.COMMA, ","}, {token.DOT, "."}, {token.SEMICOLON, ";"},
		{token.PLUS, "+"}, {token.MINUS, "-"},
		{token.STAR, "*"}, {token.SLASH, "/"},
		{token.BANG, "!"}, {token.ASSIGN, "="},
		{token.EQ, "=="}, {token.NEQ, "!="},
		{token.LT, "<"}, {token.LTE, "<="},
		{token.GT, ">"}, {token.GTE, ">="},
	})
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	assertTokens(t, "class fun var classy funny variable _x x1", []tok{
		{token.CLASS, "class"}, {token.FUN, "fun"}, {token.VAR, "var"},
		{token.IDENT, "classy"}, {token.IDENT, "funny"}, {token.IDENT, "variable"},
		{token.IDENT, "_x"}, {token.IDENT, "x1"},
	})
}

func TestNumbers(t *testing.T) {
	assertTokens(t, "0 42 3.14 1. 0.5", []tok{
		{token.NUMBER, "0"},
		{token.NUMBER, "42"},
		{token.NUMBER, "3.14"},
		// "1." is a number followed by a dot, not a malformed float.
		{token.NUMBER, "1"}, {token.DOT, "."},
		{token.NUMBER, "0.5"},
	})
}

func TestStrings(t *testing.T) {
	assertTokens(t, `"hello" "" "with spaces"`, []tok{
		{token.STRING, "hello"},
		{token.STRING, ""},
		{token.STRING, "with spaces"},
	})
}

func TestUnterminatedString(t *testing.T) {
	l := New("test.pbs", `"oops`)
	got := l.NextToken()
	if got.Type != token.ILLEGAL {
		t.Fatalf("unterminated string lexed as %s", got.Type)
	}
}

func TestComments(t *testing.T) {
	assertTokens(t, "1 // the rest is noise ;;;\n2", []tok{
		{token.NUMBER, "1"},
		{token.NUMBER, "2"},
	})
}

func TestLineTracking(t *testing.T) {
	l := New("test.pbs", "one\ntwo\n\nthree")
	a := l.NextToken()
	b := l.NextToken()
	c := l.NextToken()
	if a.Pos.Line != 1 || b.Pos.Line != 2 || c.Pos.Line != 4 {
		t.Fatalf("lines = %d, %d, %d; want 1, 2, 4", a.Pos.Line, b.Pos.Line, c.Pos.Line)
	}
	if a.Pos.File != "test.pbs" {
		t.Errorf("file = %q", a.Pos.File)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("test.pbs", "@")
	got := l.NextToken()
	if got.Type != token.ILLEGAL || got.Literal != "@" {
		t.Fatalf("got (%s, %q); want (ILLEGAL, \"@\")", got.Type, got.Literal)
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New("test.pbs", "x")
	l.NextToken()
	for i := 0; i < 3; i++ {
		if got := l.NextToken(); got.Type != token.EOF {
			t.Fatalf("call %d after end = %s; want EOF", i, got.Type)
		}
	}
}
