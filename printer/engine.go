package printer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"github.com/Urethramancer/pprinter/decoder"
	"github.com/Urethramancer/pprinter/ir"
	"github.com/samber/lo"
)

// ErrEngineUsed is returned by a second call to Engine.Print.
var ErrEngineUsed = errors.New("engine already printed its module")

// Engine prints one module once. It holds the per-pass state: which
// address labels exist, which anomalies were already reported.
type Engine struct {
	log     *log.Logger
	module  *ir.Module
	policy  Policy
	profile Profile
	syntax  Syntax
	decoder decoder.Decoder

	out   *bufio.Writer
	notes []string
	used  bool

	entries     []ir.Addr
	lastBlocks  map[ir.Addr]bool
	symbolsAt   map[ir.Addr][]*ir.Symbol
	symbolAddrs []ir.Addr
	nameCount   map[string]int
	end         ir.Addr

	addressLabels map[ir.Addr]bool
	warned        map[ir.Addr]bool
	cfiDone       map[cfiKey]bool
	exprOffsets   map[*ir.Section][]uint64
}

// NewEngine prepares a pass over m. The policy is copied; the module is
// only read.
func NewEngine(ctx *Context, m *ir.Module, p Policy, prof Profile, dec decoder.Decoder) *Engine {
	e := &Engine{
		log:           ctx.logger(),
		module:        m,
		policy:        p.Clone(),
		profile:       prof,
		syntax:        prof.Syntax(),
		decoder:       dec,
		entries:       m.Aux.SortedFunctionEntries(),
		lastBlocks:    make(map[ir.Addr]bool),
		symbolsAt:     make(map[ir.Addr][]*ir.Symbol),
		nameCount:     make(map[string]int),
		end:           m.End(),
		addressLabels: make(map[ir.Addr]bool),
		warned:        make(map[ir.Addr]bool),
		cfiDone:       make(map[cfiKey]bool),
		exprOffsets:   make(map[*ir.Section][]uint64),
	}
	if e.syntax.Placeholder == "" {
		e.syntax.Placeholder = "0"
	}
	for _, a := range m.Aux.FunctionLastBlocks {
		e.lastBlocks[a] = true
	}
	for _, s := range m.Symbols {
		e.nameCount[s.Name]++
		if s.Kind == ir.SymbolDefined {
			e.symbolsAt[s.Address] = append(e.symbolsAt[s.Address], s)
		}
	}
	e.symbolAddrs = lo.Keys(e.symbolsAt)
	slices.Sort(e.symbolAddrs)
	return e
}

// Print writes the module's assembly to w. An engine prints once; later
// calls return ErrEngineUsed.
func (e *Engine) Print(w io.Writer) error {
	if e.used {
		return ErrEngineUsed
	}
	e.used = true

	pp, post := e.profile.(PostProcessor)
	var buf bytes.Buffer
	sink := w
	if post {
		sink = &buf
	}
	e.out = bufio.NewWriter(sink)

	e.printHeader()
	for _, s := range e.module.SortedSections() {
		e.printSection(s)
	}
	e.write(e.profile.Footer(e.module))
	if err := e.out.Flush(); err != nil {
		return fmt.Errorf("writing assembly: %w", err)
	}
	if !post {
		return nil
	}

	text, err := pp.PostProcess(buf.Bytes())
	if err != nil {
		e.log.Printf("post-processing failed, writing unformatted output: %v", err)
		text = buf.Bytes()
	}
	if _, err := w.Write(text); err != nil {
		return fmt.Errorf("writing assembly: %w", err)
	}
	return nil
}

func (e *Engine) debug() bool {
	return e.policy.Debug == DebugMessages
}

// write outputs whole lines. Errors stick in the bufio.Writer and surface
// at Flush.
func (e *Engine) write(lines string) {
	if lines != "" {
		e.out.WriteString(lines)
	}
}

// emit outputs one statement with any pending notes as a trailing comment.
func (e *Engine) emit(stmt string) {
	if stmt == "" && len(e.notes) == 0 {
		return
	}
	if len(e.notes) > 0 {
		if stmt != "" {
			stmt += " "
		}
		stmt += e.syntax.Comment + " " + strings.Join(e.notes, "; ")
		e.notes = nil
	}
	e.write(stmt + "\n")
}

// emitAt is emit with the address and comment side table in debug mode.
func (e *Engine) emitAt(a ir.Addr, stmt string) {
	if e.debug() {
		head := []string{fmt.Sprintf("%#x", uint64(a))}
		head = append(head, e.module.Aux.Comments[a]...)
		e.notes = append(head, e.notes...)
	}
	e.emit(stmt)
}

func (e *Engine) comment(text string) {
	e.write(e.syntax.Comment + " " + text + "\n")
}

// warn reports an anomaly on its own comment line and to the log.
func (e *Engine) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.comment("WARNING: " + msg)
	e.log.Printf("warning: %s", msg)
}

// note attaches an anomaly to the next emitted statement.
func (e *Engine) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.notes = append(e.notes, "WARNING: "+msg)
	e.log.Printf("warning: %s", msg)
}

func (e *Engine) printHeader() {
	e.write(e.profile.Header(e.module))
	if e.debug() {
		if args := e.policy.CompilerArguments.Sorted(); len(args) > 0 {
			e.comment("compiler arguments: " + strings.Join(args, " "))
		}
	}
	for _, s := range e.module.Symbols {
		if e.policy.ShouldSkipSymbol(s.Name) {
			continue
		}
		switch s.Kind {
		case ir.SymbolIntegral:
			e.write(e.profile.IntegralSymbol(e.profile.EscapeName(s.Name), uint64(s.Address)))
		case ir.SymbolUndefined:
			e.write(e.profile.UndefinedSymbol(e.profile.EscapeName(s.Name)))
		}
	}
}

func (e *Engine) printSection(s *ir.Section) {
	if e.policy.ShouldSkipSection(s.Name) || len(s.Blocks) == 0 {
		return
	}
	e.write(e.profile.SectionHeader(s))

	var prevEnd ir.Addr
	for i, b := range s.SortedBlocks() {
		if i > 0 && b.Address() < prevEnd {
			e.warn("block at %#x overlaps the previous block ending at %#x", uint64(b.Address()), uint64(prevEnd))
			if b.End() <= prevEnd {
				continue
			}
		}
		e.printBlock(b, i == 0)
		prevEnd = max(prevEnd, b.End())
	}

	// Labels at the very end of a section, such as _end, have no block to
	// sit on; print them unless another section starts there.
	if end := s.End(); e.module.SectionAt(end) == nil {
		e.defineSymbols(end, end)
	}
	e.write(e.profile.SectionFooter(s))
}

func (e *Engine) printBlock(b *ir.Block, first bool) {
	addr := b.Address()
	fn, inFunction := e.containingFunction(addr)
	// The last function nominally runs to the end of the module; skipping
	// it must not swallow the sections that follow.
	if inFunction && e.policy.ShouldSkipFunction(fn.name) && b.Section.Contains(fn.entry) {
		return
	}
	if b.Kind == ir.CodeBlock && !inFunction && len(e.entries) > 0 {
		e.warn("code block at %#x is outside any function", uint64(addr))
	}

	if n := e.alignment(b, first); n > 0 {
		e.write(e.profile.Align(n))
	}
	if inFunction && fn.entry == addr && fn.sym != nil {
		e.write(e.profile.FunctionHeader(fn.label, fn.sym))
	}

	switch b.Kind {
	case ir.CodeBlock:
		e.printCode(b)
	default:
		e.printData(b)
	}

	if inFunction && e.lastBlocks[addr] {
		if b.Kind == ir.CodeBlock {
			e.printCFIEnd(b.End())
		}
		if fn.sym != nil {
			e.write(e.profile.FunctionFooter(fn.label))
		}
	}
}

// alignment returns the alignment directive for b, or 0 for none. An
// explicit hint wins, array sections get 8, and function entries and the
// first block of a section are aligned to the largest power of two up to
// the dialect's maximum that divides their address.
func (e *Engine) alignment(b *ir.Block, first bool) uint64 {
	addr := b.Address()
	if n, ok := e.module.Aux.Alignment[addr]; ok {
		if n < 2 {
			return 0
		}
		return n
	}
	if e.policy.IsArraySection(b.Section.Name) {
		return 8
	}
	if _, entry := slices.BinarySearch(e.entries, addr); !first && !entry {
		return 0
	}
	for n := e.syntax.MaxAlignment; n >= 2; n /= 2 {
		if uint64(addr)%n == 0 {
			return n
		}
	}
	return 0
}
