package printer

import (
	"fmt"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
)

func (e *Engine) printCode(b *ir.Block) {
	code := b.Section.Bytes(b.Offset, b.Size)
	base := b.Address()
	for off := 0; off < len(code); {
		pc := base + ir.Addr(off)
		inst, err := e.decoder.Decode(code[off:], uint64(pc), b.DecodeMode)
		if err == nil && (inst.Size <= 0 || off+inst.Size > len(code)) {
			err = fmt.Errorf("%w at %#x: instruction overruns its block", decoder.ErrDecode, uint64(pc))
		}
		if err != nil {
			e.warn("%v; %d bytes printed as data", err, len(code)-off)
			e.printLiteral(pc, code[off:])
			return
		}

		e.defineSymbols(pc, pc+ir.Addr(inst.Size))
		e.printCFI(pc)
		e.printInstruction(b.Section, b.Offset+uint64(off), inst)
		off += inst.Size
	}
}

type cfiKey struct {
	at ir.Addr
	i  int
}

// printCFI emits the call-frame directives recorded at a that have not
// been printed yet.
func (e *Engine) printCFI(a ir.Addr) {
	e.printCFIMatching(a, func(ir.CFIDirective) bool { return true })
}

// printCFIEnd closes frames recorded at the address just past a function's
// last block. Other directives there belong to whatever follows.
func (e *Engine) printCFIEnd(a ir.Addr) {
	e.printCFIMatching(a, func(d ir.CFIDirective) bool { return d.Directive == ".cfi_endproc" })
}

func (e *Engine) printCFIMatching(a ir.Addr, match func(ir.CFIDirective) bool) {
	if !e.syntax.CFI {
		return
	}
	for i, d := range e.module.Aux.CFIDirectives[a] {
		k := cfiKey{a, i}
		if e.cfiDone[k] || !match(d) {
			continue
		}
		e.cfiDone[k] = true
		var sym string
		if d.Symbol != nil {
			sym = e.reference(d.Symbol)
		}
		e.emit(e.profile.CFI(d, sym))
	}
}

func (e *Engine) printInstruction(s *ir.Section, off uint64, inst decoder.Instruction) {
	addr := ir.Addr(inst.Address)
	fixed := e.profile.Fixup(inst)
	if f, ok := e.profile.(InstructionFormatter); ok {
		if text, ok := f.FormatInstruction(fixed, e.lookup); ok {
			e.emitAt(addr, text)
			return
		}
	}

	exprs := e.operandExpressions(s, off, uint64(inst.Size), fixed)
	ops := make([]string, len(fixed.Operands))
	for i, op := range fixed.Operands {
		ops[i] = e.operand(fixed, op, exprs[i])
	}
	e.emitAt(addr, e.profile.Instruction(fixed, ops))
}

func (e *Engine) operand(inst decoder.Instruction, op decoder.Operand, x ir.SymbolicExpression) string {
	var sym string
	switch op.Kind {
	case decoder.OperandRegister:
		return e.profile.Register(inst, op)
	case decoder.OperandImmediate, decoder.OperandBranch:
		if x != nil {
			sym = e.symbolicExpression(x, op.Kind != decoder.OperandBranch)
		}
		return e.profile.Immediate(inst, op, sym)
	case decoder.OperandMemory:
		if x != nil {
			sym = e.symbolicExpression(x, true)
		}
		return e.profile.Indirect(inst, op, sym)
	}
	return op.Text
}

// operandExpressions matches the symbolic expressions stored inside the
// instruction's bytes, in offset order, to the operands able to carry one.
func (e *Engine) operandExpressions(s *ir.Section, off, size uint64, inst decoder.Instruction) map[int]ir.SymbolicExpression {
	var found []ir.SymbolicExpression
	for o := off; o < off+size; o++ {
		if x, ok := s.SymbolicExpressions[o]; ok {
			found = append(found, x)
		}
	}
	if len(found) == 0 {
		return nil
	}

	var memory, values []int
	for i, op := range inst.Operands {
		switch op.Kind {
		case decoder.OperandMemory:
			if carriesAddress(op.Mem) {
				memory = append(memory, i)
			}
		case decoder.OperandImmediate, decoder.OperandBranch:
			values = append(values, i)
		}
	}
	var slots []int
	if e.syntax.DisplacementFirst {
		slots = append(memory, values...)
	} else {
		for i, op := range inst.Operands {
			if op.Kind == decoder.OperandImmediate || op.Kind == decoder.OperandBranch ||
				op.Kind == decoder.OperandMemory && carriesAddress(op.Mem) {
				slots = append(slots, i)
			}
		}
	}

	out := make(map[int]ir.SymbolicExpression, len(found))
	for i, x := range found {
		if i >= len(slots) {
			e.note("symbolic expression in instruction at %#x has no operand to attach to", inst.Address)
			break
		}
		out[slots[i]] = x
	}
	return out
}

// carriesAddress reports whether a memory operand encodes a displacement
// or address a symbolic expression can replace.
func carriesAddress(m decoder.Memory) bool {
	return m.Disp != 0 || m.PCRelative || m.Mode == decoder.MemAbsolute || m.Base == "" && m.Index == ""
}
