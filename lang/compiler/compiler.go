// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package compiler translates ProbeScript source text into VM chunks in a
// single pass: a Pratt parser drives bytecode emission directly, with no AST
// or IR stage. Functions and strings it creates live on the target VM's
// heap; the in-progress function chain is registered with the collector as a
// root set for the duration of the compile.
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/probechain/probescript/lang/lexer"
	"github.com/probechain/probescript/lang/token"
	"github.com/probechain/probescript/lang/vm"
)

// precedence orders the Pratt parser's binding levels, lowest first.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// funcKind distinguishes the bodies a funcCompiler can be building.
type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

// maxLocals and maxUpvalues are fixed by the 1-byte slot operands.
const (
	maxLocals   = 256
	maxUpvalues = 256
)

// local is a declared local variable: its name token, the scope depth it was
// declared at (-1 until initialized), and whether any closure captured it.
type local struct {
	name       token.Token
	depth      int
	isCaptured bool
}

// upvalueRef records one captured variable of the function being compiled:
// either a local slot of the enclosing function or an index into the
// enclosing function's own upvalues.
type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcCompiler holds the per-function compilation state. Nested function
// declarations push a new one, linked through enclosing.
type funcCompiler struct {
	enclosing *funcCompiler
	function  *vm.Function
	kind      funcKind

	locals     [maxLocals]local
	localCount int
	upvalues   [maxUpvalues]upvalueRef
	scopeDepth int
}

// classCompiler tracks the innermost class declaration being compiled, so
// `this` can be rejected outside any class body.
type classCompiler struct {
	enclosing *classCompiler
}

// compiler is the whole front-end state for one Compile call.
type compiler struct {
	machine *vm.VM
	lex     *lexer.Lexer
	stderr  io.Writer

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool

	fc           *funcCompiler
	currentClass *classCompiler
}

// Compile translates source into a top-level function on machine's heap.
// It returns nil after reporting diagnostics if any syntax error occurred.
func Compile(machine *vm.VM, filename, source string) *vm.Function {
	c := &compiler{
		machine: machine,
		lex:     lexer.New(filename, source),
		stderr:  machine.Stderr(),
	}

	// The collector must see the in-progress function chain while the
	// compiler is the only holder of it.
	machine.SetCompilerRoots(func(mark func(vm.Object)) {
		for fc := c.fc; fc != nil; fc = fc.enclosing {
			mark(fc.function)
		}
	})
	defer machine.SetCompilerRoots(nil)

	c.initFuncCompiler(kindScript)

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endFuncCompiler()
	if c.hadError {
		return nil
	}
	return fn
}

// initFuncCompiler pushes a fresh per-function state. Slot zero is reserved:
// it holds the callable itself, or the receiver inside methods where it is
// addressable as `this`.
func (c *compiler) initFuncCompiler(kind funcKind) {
	fc := &funcCompiler{
		enclosing: c.fc,
		function:  c.machine.NewFunction(),
		kind:      kind,
	}
	c.fc = fc
	if kind != kindScript {
		fc.function.Name = c.machine.TakeString(c.previous.Literal)
	}

	slotZero := &fc.locals[fc.localCount]
	fc.localCount++
	slotZero.depth = 0
	if kind == kindMethod || kind == kindInitializer {
		slotZero.name = token.Token{Type: token.THIS, Literal: "this"}
	}
}

// endFuncCompiler emits the implicit return and pops back to the enclosing
// function, returning the finished one.
func (c *compiler) endFuncCompiler() *vm.Function {
	c.emitReturn()
	fn := c.fc.function
	c.fc = c.fc.enclosing
	return fn
}

func (c *compiler) currentChunk() *vm.Chunk {
	return &c.fc.function.Chunk
}

// ---- Token plumbing --------------------------------------------------------

func (c *compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != token.ILLEGAL {
			break
		}
		c.errorAtCurrent("Unexpected character.")
	}
}

func (c *compiler) consume(typ token.Type, message string) {
	if c.current.Type == typ {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *compiler) check(typ token.Type) bool {
	return c.current.Type == typ
}

func (c *compiler) match(typ token.Type) bool {
	if !c.check(typ) {
		return false
	}
	c.advance()
	return true
}

// ---- Error reporting -------------------------------------------------------

func (c *compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	fmt.Fprintf(c.stderr, "[line %d] Error", tok.Pos.Line)
	switch tok.Type {
	case token.EOF:
		fmt.Fprintf(c.stderr, " at end")
	case token.ILLEGAL:
		// Nothing: the lexeme is not printable.
	default:
		fmt.Fprintf(c.stderr, " at '%s'", tok.Literal)
	}
	fmt.Fprintf(c.stderr, ": %s\n", message)
}

func (c *compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

// synchronize skips tokens until a statement boundary so one syntax error
// does not cascade.
func (c *compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// ---- Emission --------------------------------------------------------------

func (c *compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Pos.Line)
}

func (c *compiler) emitOp(op vm.OpCode) {
	c.emitByte(byte(op))
}

func (c *compiler) emitOps(op vm.OpCode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *compiler) emitReturn() {
	if c.fc.kind == kindInitializer {
		// An initializer always returns its receiver.
		c.emitOps(vm.OpGetLocal, 0)
	} else {
		c.emitOp(vm.OpNil)
	}
	c.emitOp(vm.OpReturn)
}

// emitConstant pushes value through the chunk's width-selecting encoder, so
// large pools fall back to the 3-byte index form.
func (c *compiler) emitConstant(value vm.Value) {
	c.currentChunk().WriteConstant(value, c.previous.Pos.Line)
}

// makeConstant adds value to the pool for use as a 1-byte instruction
// operand, which caps the index at 255.
func (c *compiler) makeConstant(value vm.Value) byte {
	index := c.currentChunk().AddConstant(value)
	if index > 255 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(index)
}

func (c *compiler) emitJump(op vm.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *compiler) patchJump(offset int) {
	// -2 adjusts for the operand bytes themselves.
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.currentChunk().Code[offset] = byte(jump >> 8)
	c.currentChunk().Code[offset+1] = byte(jump)
}

func (c *compiler) emitLoop(loopStart int) {
	c.emitOp(vm.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// ---- Variables -------------------------------------------------------------

func (c *compiler) identifierConstant(name token.Token) byte {
	return c.makeConstant(vm.ObjectValue(c.machine.TakeString(name.Literal)))
}

func identifiersEqual(a, b token.Token) bool {
	return a.Literal == b.Literal
}

func (c *compiler) resolveLocal(fc *funcCompiler, name token.Token) int {
	for i := fc.localCount - 1; i >= 0; i-- {
		l := &fc.locals[i]
		if identifiersEqual(name, l.name) {
			if l.depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *compiler) addUpvalue(fc *funcCompiler, index byte, isLocal bool) int {
	count := fc.function.UpvalueCount
	for i := 0; i < count; i++ {
		u := &fc.upvalues[i]
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if count == maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues[count] = upvalueRef{index: index, isLocal: isLocal}
	fc.function.UpvalueCount++
	return count
}

// resolveUpvalue walks outward through enclosing functions looking for name,
// threading a chain of upvalues back down to the current one.
func (c *compiler) resolveUpvalue(fc *funcCompiler, name token.Token) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fc, byte(local), true)
	}
	if upvalue := c.resolveUpvalue(fc.enclosing, name); upvalue != -1 {
		return c.addUpvalue(fc, byte(upvalue), false)
	}
	return -1
}

func (c *compiler) addLocal(name token.Token) {
	if c.fc.localCount == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	l := &c.fc.locals[c.fc.localCount]
	c.fc.localCount++
	l.name = name
	l.depth = -1
	l.isCaptured = false
}

func (c *compiler) declareVariable() {
	if c.fc.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := c.fc.localCount - 1; i >= 0; i-- {
		l := &c.fc.locals[i]
		if l.depth != -1 && l.depth < c.fc.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *compiler) parseVariable(errorMessage string) byte {
	c.consume(token.IDENT, errorMessage)
	c.declareVariable()
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[c.fc.localCount-1].depth = c.fc.scopeDepth
}

func (c *compiler) defineVariable(global byte) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOps(vm.OpDefineGlobal, global)
}

func (c *compiler) beginScope() {
	c.fc.scopeDepth++
}

func (c *compiler) endScope() {
	c.fc.scopeDepth--
	for c.fc.localCount > 0 &&
		c.fc.locals[c.fc.localCount-1].depth > c.fc.scopeDepth {
		if c.fc.locals[c.fc.localCount-1].isCaptured {
			c.emitOp(vm.OpCloseUpvalue)
		} else {
			c.emitOp(vm.OpPop)
		}
		c.fc.localCount--
	}
}

// ---- Pratt rules -----------------------------------------------------------

type parseFn func(c *compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules is indexed by token type. Built in init to avoid an initialization
// cycle through the recursive-descent functions.
var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LPAREN: {prefix: (*compiler).grouping, infix: (*compiler).callExpr, prec: precCall},
		token.DOT:    {infix: (*compiler).dot, prec: precCall},
		token.MINUS:  {prefix: (*compiler).unary, infix: (*compiler).binary, prec: precTerm},
		token.PLUS:   {infix: (*compiler).binary, prec: precTerm},
		token.SLASH:  {infix: (*compiler).binary, prec: precFactor},
		token.STAR:   {infix: (*compiler).binary, prec: precFactor},
		token.BANG:   {prefix: (*compiler).unary},
		token.NEQ:    {infix: (*compiler).binary, prec: precEquality},
		token.EQ:     {infix: (*compiler).binary, prec: precEquality},
		token.GT:     {infix: (*compiler).binary, prec: precComparison},
		token.GTE:    {infix: (*compiler).binary, prec: precComparison},
		token.LT:     {infix: (*compiler).binary, prec: precComparison},
		token.LTE:    {infix: (*compiler).binary, prec: precComparison},
		token.IDENT:  {prefix: (*compiler).variable},
		token.STRING: {prefix: (*compiler).stringLiteral},
		token.NUMBER: {prefix: (*compiler).number},
		token.AND:    {infix: (*compiler).and, prec: precAnd},
		token.OR:     {infix: (*compiler).or, prec: precOr},
		token.FALSE:  {prefix: (*compiler).literal},
		token.TRUE:   {prefix: (*compiler).literal},
		token.NIL:    {prefix: (*compiler).literal},
		token.THIS:   {prefix: (*compiler).this},
	}
}

func getRule(typ token.Type) parseRule {
	return rules[typ]
}

func (c *compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Type).prec {
		c.advance()
		getRule(c.previous.Type).infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("Invalid assignment target.")
	}
}

// ---- Expressions -----------------------------------------------------------

func (c *compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *compiler) number(canAssign bool) {
	n, err := strconv.ParseFloat(c.previous.Literal, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(vm.NumberValue(n))
}

func (c *compiler) stringLiteral(canAssign bool) {
	s := c.machine.TakeString(c.previous.Literal)
	c.emitConstant(vm.ObjectValue(s))
}

func (c *compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emitOp(vm.OpFalse)
	case token.TRUE:
		c.emitOp(vm.OpTrue)
	case token.NIL:
		c.emitOp(vm.OpNil)
	}
}

func (c *compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *compiler) unary(canAssign bool) {
	operator := c.previous.Type
	c.parsePrecedence(precUnary)
	switch operator {
	case token.MINUS:
		c.emitOp(vm.OpNegate)
	case token.BANG:
		c.emitOp(vm.OpNot)
	}
}

func (c *compiler) binary(canAssign bool) {
	operator := c.previous.Type
	rule := getRule(operator)
	c.parsePrecedence(rule.prec + 1)

	switch operator {
	case token.NEQ:
		c.emitOp(vm.OpEqual)
		c.emitOp(vm.OpNot)
	case token.EQ:
		c.emitOp(vm.OpEqual)
	case token.GT:
		c.emitOp(vm.OpGreater)
	case token.GTE:
		c.emitOp(vm.OpLess)
		c.emitOp(vm.OpNot)
	case token.LT:
		c.emitOp(vm.OpLess)
	case token.LTE:
		c.emitOp(vm.OpGreater)
		c.emitOp(vm.OpNot)
	case token.PLUS:
		c.emitOp(vm.OpAdd)
	case token.MINUS:
		c.emitOp(vm.OpSubtract)
	case token.STAR:
		c.emitOp(vm.OpMultiply)
	case token.SLASH:
		c.emitOp(vm.OpDivide)
	}
}

func (c *compiler) and(canAssign bool) {
	endJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *compiler) or(canAssign bool) {
	elseJump := c.emitJump(vm.OpJumpIfFalse)
	endJump := c.emitJump(vm.OpJump)
	c.patchJump(elseJump)
	c.emitOp(vm.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp vm.OpCode
	var arg int

	if arg = c.resolveLocal(c.fc, name); arg != -1 {
		getOp, setOp = vm.OpGetLocal, vm.OpSetLocal
	} else if arg = c.resolveUpvalue(c.fc, name); arg != -1 {
		getOp, setOp = vm.OpGetUpvalue, vm.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = vm.OpGetGlobal, vm.OpSetGlobal
	}

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitOps(setOp, byte(arg))
	} else {
		c.emitOps(getOp, byte(arg))
	}
}

func (c *compiler) this(canAssign bool) {
	if c.currentClass == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *compiler) argumentList() byte {
	var count int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(count)
}

func (c *compiler) callExpr(canAssign bool) {
	argCount := c.argumentList()
	c.emitOps(vm.OpCall, argCount)
}

func (c *compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(token.ASSIGN):
		c.expression()
		c.emitOps(vm.OpSetProperty, name)
	case c.match(token.LPAREN):
		// Fused access-and-call fast path.
		argCount := c.argumentList()
		c.emitOps(vm.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOps(vm.OpGetProperty, name)
	}
}

// ---- Declarations and statements -------------------------------------------

func (c *compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emitOp(vm.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.functionBody(kindFunction)
	c.defineVariable(global)
}

// functionBody compiles a parameter list and block into a new function,
// then emits the OpClosure that materializes it at runtime.
func (c *compiler) functionBody(kind funcKind) {
	c.initFuncCompiler(kind)
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			if c.fc.function.Arity == 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			c.fc.function.Arity++
			param := c.parseVariable("Expect parameter name.")
			c.defineVariable(param)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	// No endScope: the frame unwind discards the locals wholesale.
	upvalues := c.fc.upvalues
	fn := c.endFuncCompiler()

	c.emitOps(vm.OpClosure, c.makeConstant(vm.ObjectValue(fn)))
	for i := 0; i < fn.UpvalueCount; i++ {
		if upvalues[i].isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(upvalues[i].index)
	}
}

func (c *compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	name := c.identifierConstant(c.previous)

	kind := kindMethod
	if c.previous.Literal == "init" {
		kind = kindInitializer
	}
	c.functionBody(kind)
	c.emitOps(vm.OpMethod, name)
}

func (c *compiler) classDeclaration() {
	c.consume(token.IDENT, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(c.previous)
	c.declareVariable()

	c.emitOps(vm.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	cc := &classCompiler{enclosing: c.currentClass}
	c.currentClass = cc

	// Reload the class so OpMethod finds it beneath each method closure.
	c.namedVariable(className, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(vm.OpPop)

	c.currentClass = cc.enclosing
}

func (c *compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(vm.OpPrint)
}

func (c *compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(vm.OpPop)
}

func (c *compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.statement()
	elseJump := c.emitJump(vm.OpJump)

	c.patchJump(thenJump)
	c.emitOp(vm.OpPop)
	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(vm.OpJumpIfFalse)
	c.emitOp(vm.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(vm.OpPop)
}

func (c *compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case c.match(token.SEMICOLON):
		// No initializer.
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")
		exitJump = c.emitJump(vm.OpJumpIfFalse)
		c.emitOp(vm.OpPop)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(vm.OpJump)
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitOp(vm.OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(vm.OpPop)
	}
	c.endScope()
}

func (c *compiler) returnStatement() {
	if c.fc.kind == kindScript {
		c.error("Can't return from top-level code.")
	}

	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.fc.kind == kindInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emitOp(vm.OpReturn)
}
