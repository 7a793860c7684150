// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Assembler is a single pass assembler for duet programs.
//
// Syntax, one instruction per line:
//
//	label: op arg [arg]   ; comment
//	.equ NAME word
//
// An '@label' operand is the relative offset from the current instruction
// to the label. '$(expr)' is evaluated at assembly time.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of jump labels to opcode indexes.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a number word. Numbers are decimal, or
// hexadecimal with a '0x' prefix. Leading zeros do not mean octal.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	sign, digits := "", word
	if len(digits) > 0 && (digits[0] == '-' || digits[0] == '+') {
		sign, digits = digits[:1], digits[1:]
	}

	base := 10
	if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		base, digits = 16, digits[2:]
	}

	value, err = strconv.ParseInt(sign+digits, base, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	return
}

// isNumber returns true if the word starts like a number.
func isNumber(word string) bool {
	if len(word) == 0 {
		return false
	}
	if word[0] == '-' || word[0] == '+' {
		word = word[1:]
	}

	return len(word) > 0 && word[0] >= '0' && word[0] <= '9'
}

// registerOf returns the register named by a word.
func (asm *Assembler) registerOf(word string) (reg RegisterId, err error) {
	if len(word) != 1 || isNumber(word) || word == "@" {
		err = ErrRegisterInvalid
		return
	}

	reg = RegisterId(word[0])
	return
}

// operandOf decodes a value operand. An '@label' operand is returned as
// a link, to be resolved once all labels are known.
func (asm *Assembler) operandOf(word string) (value Value, link string, err error) {
	if strings.HasPrefix(word, "@") {
		link = word[1:]
		if !labelRe.MatchString(link) {
			err = ErrLabelInvalid
			return
		}
		value = Literal(0)
		return
	}

	if isNumber(word) {
		var n int64
		n, err = asm.valueOf(word)
		if err != nil {
			return
		}
		value = Literal(n)
		return
	}

	if len(word) != 1 {
		err = ErrParseValue(word)
		return
	}

	value = Register(RegisterId(word[0]))
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 int64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	return
}

// parseLine expands a single line into words, and records any labels
// and equates it defines.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			if err == nil {
				err = _err
			}
			return str
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 || len(words[1]) < 2 || !labelRe.MatchString(words[1]) {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !labelRe.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = len(asm.Opcode)
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Debugf("asm: %v: %v", lineno, text)
		}

		text_comment := strings.SplitN(text, ";", 2)
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		for arg, label := range op.Link {
			if len(label) == 0 {
				continue
			}
			index, ok := asm.Label[label]
			if !ok {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrLabelMissing(label)
				return
			}
			offset := Literal(int64(index - n))
			if arg == 0 {
				op.Instruction.A = offset
			} else {
				op.Instruction.B = offset
			}
		}
	}

	prog = &Program{
		Opcodes: make([]Opcode, len(asm.Opcode)),
	}
	copy(prog.Opcodes, asm.Opcode)

	return
}

// opMap maps instruction names.
var opMap = map[string]Op{
	"snd": OP_SND,
	"rcv": OP_RCV,
	"set": OP_SET,
	"add": OP_ADD,
	"mul": OP_MUL,
	"mod": OP_MOD,
	"jgz": OP_JGZ,
}

// opArgs is the number of operands taken by each operation.
var opArgs = map[Op]int{
	OP_SND: 1,
	OP_RCV: 1,
	OP_SET: 2,
	OP_ADD: 2,
	OP_MUL: 2,
	OP_MOD: 2,
	OP_JGZ: 2,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	op, ok := opMap[strings.ToLower(words[0])]
	if !ok {
		if strings.HasPrefix(words[0], ".") || isNumber(words[0]) {
			err = ErrOpcodeMissing
		} else {
			err = ErrOpcodeInvalid
		}
		return
	}

	args := words[1:]
	need := opArgs[op]
	if len(args) < need {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > need {
		err = ErrOpcodeExtraArgs
		return
	}

	opcode := Opcode{
		LineNo:      lineno,
		Words:       words,
		Instruction: Instruction{Op: op},
	}
	ins := &opcode.Instruction

	switch op {
	case OP_RCV:
		ins.Register, err = asm.registerOf(args[0])
	case OP_SET, OP_ADD, OP_MUL, OP_MOD:
		ins.Register, err = asm.registerOf(args[0])
		if err != nil {
			return
		}
		ins.A, opcode.Link[0], err = asm.operandOf(args[1])
	case OP_SND:
		ins.A, opcode.Link[0], err = asm.operandOf(args[0])
	case OP_JGZ:
		ins.A, opcode.Link[0], err = asm.operandOf(args[0])
		if err != nil {
			return
		}
		ins.B, opcode.Link[1], err = asm.operandOf(args[1])
	}
	if err != nil {
		return
	}

	if asm.Verbose {
		log.Debugf("asm: %03d: %v", len(asm.Opcode), *ins)
	}

	asm.Opcode = append(asm.Opcode, opcode)

	return
}

// Disassemble writes the program as assembler text, one instruction per line.
func Disassemble(prog *Program, output io.Writer) (err error) {
	for pc, ins := range prog.Instructions() {
		comment := ""
		if lineno := prog.LineNo(int64(pc)); lineno != 0 {
			comment = fmt.Sprintf(" line %d", lineno)
		}
		_, err = fmt.Fprintf(output, "%-16v; %03d%v\n", ins, pc, comment)
		if err != nil {
			return
		}
	}

	return
}
