package printer

import (
	"bytes"
	"slices"

	"github.com/Urethramancer/pprinter/ir"
	"github.com/samber/lo"
)

func (e *Engine) printData(b *ir.Block) {
	s := b.Section
	base := b.Address()
	data := s.Bytes(b.Offset, b.Size)

	hasExprs := e.hasExpressionsIn(s, b.Offset, b.Offset+b.Size)
	if !hasExprs && (s.Contents == nil || isZero(data)) {
		e.printZeros(base, b.Size)
		return
	}
	if !hasExprs {
		switch e.module.Aux.Encodings[base] {
		case "string":
			if e.printString(base, data, true) {
				return
			}
		case "ascii":
			if e.printString(base, data, false) {
				return
			}
		}
	}

	array := e.policy.IsArraySection(s.Name)
	for i := uint64(0); i < b.Size; {
		pc := base + ir.Addr(i)
		x, ok := s.SymbolicExpressions[b.Offset+i]
		if !ok {
			e.printLiteral(pc, data[i:i+1])
			i++
			continue
		}

		size := e.expressionSize(pc)
		if i+size > b.Size {
			e.warn("symbolic expression at %#x runs past the end of its block", uint64(pc))
			e.printLiteral(pc, data[i:i+1])
			i++
			continue
		}
		if array && e.refersToSkippedFunction(x) {
			i += size
			continue
		}

		e.defineSymbols(pc, pc+ir.Addr(size))
		text, ok := e.profile.Data(int(size), e.symbolicExpression(x, true))
		if !ok {
			e.warn("no %d-byte data directive for the symbolic expression at %#x", size, uint64(pc))
			e.printBytes(pc, data[i:i+size])
		} else {
			e.emitAt(pc, text)
		}
		i += size
	}
}

// hasExpressionsIn reports whether s holds a symbolic expression at an
// offset in [from, to).
func (e *Engine) hasExpressionsIn(s *ir.Section, from, to uint64) bool {
	offsets, ok := e.exprOffsets[s]
	if !ok {
		offsets = lo.Keys(s.SymbolicExpressions)
		slices.Sort(offsets)
		e.exprOffsets[s] = offsets
	}
	i, _ := slices.BinarySearch(offsets, from)
	return i < len(offsets) && offsets[i] < to
}

func (e *Engine) expressionSize(a ir.Addr) uint64 {
	if n := e.module.Aux.SymbolicExpressionSizes[a]; n > 0 {
		return n
	}
	if e.syntax.PointerSize > 0 {
		return uint64(e.syntax.PointerSize)
	}
	return 8
}

// printZeros emits one zero-fill directive per run, splitting only where a
// symbol needs a label.
func (e *Engine) printZeros(base ir.Addr, size uint64) {
	end := base + ir.Addr(size)
	start := base
	for start < end {
		cut := end
		if i, _ := slices.BinarySearch(e.symbolAddrs, start+1); i < len(e.symbolAddrs) && e.symbolAddrs[i] < end {
			cut = e.symbolAddrs[i]
		}
		e.defineSymbols(start, start)
		e.emitAt(start, e.profile.Zero(uint64(cut-start)))
		start = cut
	}
}

// printString emits a string directive and reports whether the block could
// be expressed as one.
func (e *Engine) printString(base ir.Addr, data []byte, terminated bool) bool {
	text := data
	if terminated {
		if len(data) == 0 || data[len(data)-1] != 0 || bytes.IndexByte(data[:len(data)-1], 0) >= 0 {
			return false
		}
		text = data[:len(data)-1]
	}
	if e.hasSymbolsIn(base, base+ir.Addr(len(data))) {
		return false
	}
	stmt, ok := e.profile.String(text, terminated)
	if !ok {
		return false
	}
	e.defineSymbols(base, base)
	e.emitAt(base, stmt)
	return true
}

// printLiteral emits bytes one per statement with their labels.
func (e *Engine) printLiteral(base ir.Addr, data []byte) {
	for i, c := range data {
		pc := base + ir.Addr(i)
		e.defineSymbols(pc, pc)
		e.emitAt(pc, e.profile.Byte(c))
	}
}

// printBytes emits bytes whose labels were already printed.
func (e *Engine) printBytes(base ir.Addr, data []byte) {
	for i, c := range data {
		e.emitAt(base+ir.Addr(i), e.profile.Byte(c))
	}
}

func isZero(data []byte) bool {
	for _, c := range data {
		if c != 0 {
			return false
		}
	}
	return true
}
