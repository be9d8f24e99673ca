package ir

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrBadIR is returned for malformed IR documents.
var ErrBadIR = errors.New("malformed IR")

type fileModule struct {
	Name       string        `json:"name"`
	Format     string        `json:"format"`
	ISA        string        `json:"isa"`
	BinaryType []string      `json:"binaryType"`
	Sections   []fileSection `json:"sections"`
	Symbols    []fileSymbol  `json:"symbols"`
	Aux        fileAux       `json:"aux"`
}

type fileSection struct {
	Name     string      `json:"name"`
	Address  uint64      `json:"address"`
	Size     uint64      `json:"size"`
	Contents *string     `json:"contents"` // hex
	Flags    []string    `json:"flags"`
	Blocks   []fileBlock `json:"blocks"`
	SymExprs []fileExpr  `json:"symbolicExpressions"`
}

type fileBlock struct {
	Kind       string `json:"kind"`
	Offset     uint64 `json:"offset"`
	Size       uint64 `json:"size"`
	DecodeMode int    `json:"decodeMode"`
}

type fileExpr struct {
	At      uint64   `json:"at"`
	Symbol  *int     `json:"symbol"`
	Symbol2 *int     `json:"symbol2"`
	Offset  int64    `json:"offset"`
	Scale   int64    `json:"scale"`
	Attrs   []string `json:"attributes"`
}

type fileSymbol struct {
	Name    string `json:"name"`
	Address uint64 `json:"address"`
	Kind    string `json:"kind"`
	Global  bool   `json:"global"`
	Type    string `json:"type"`
}

type fileCFI struct {
	Directive string  `json:"directive"`
	Operands  []int64 `json:"operands"`
	Symbol    *int    `json:"symbol"`
}

type fileAux struct {
	FunctionEntries    []uint64             `json:"functionEntries"`
	FunctionLastBlocks []uint64             `json:"functionLastBlocks"`
	Alignment          map[uint64]uint64    `json:"alignment"`
	Comments           map[uint64][]string  `json:"comments"`
	SymbolForwarding   map[int]int          `json:"symbolForwarding"`
	CFIDirectives      map[uint64][]fileCFI `json:"cfiDirectives"`
	Encodings          map[uint64]string    `json:"encodings"`
	SymExprSizes       map[uint64]uint64    `json:"symbolicExpressionSizes"`
}

// LoadFile reads a JSON IR document from path.
func LoadFile(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Load decodes a JSON IR document. Symbols are referenced by their index in
// the "symbols" array.
func Load(r io.Reader) (*Module, error) {
	var fm fileModule
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadIR, err)
	}

	m := &Module{
		Name:       fm.Name,
		FileFormat: strings.ToLower(fm.Format),
		ISA:        strings.ToLower(fm.ISA),
		BinaryType: fm.BinaryType,
	}

	for i, fs := range fm.Symbols {
		kind, err := parseSymbolKind(fs.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: symbol %d: %v", ErrBadIR, i, err)
		}
		m.Symbols = append(m.Symbols, &Symbol{
			Name:    fs.Name,
			Address: Addr(fs.Address),
			Kind:    kind,
			Global:  fs.Global,
			Type:    fs.Type,
		})
	}

	sym := func(ref *int) (*Symbol, error) {
		if ref == nil {
			return nil, fmt.Errorf("%w: missing symbol reference", ErrBadIR)
		}
		if *ref < 0 || *ref >= len(m.Symbols) {
			return nil, fmt.Errorf("%w: symbol index %d out of range", ErrBadIR, *ref)
		}
		return m.Symbols[*ref], nil
	}

	for _, fsec := range fm.Sections {
		s := &Section{
			Name:    fsec.Name,
			Address: Addr(fsec.Address),
			Size:    fsec.Size,
		}
		if fsec.Contents != nil {
			b, err := hex.DecodeString(strings.Join(strings.Fields(*fsec.Contents), ""))
			if err != nil {
				return nil, fmt.Errorf("%w: section %s contents: %v", ErrBadIR, fsec.Name, err)
			}
			s.Contents = b
			if s.Size == 0 {
				s.Size = uint64(len(b))
			}
		}
		for _, f := range fsec.Flags {
			flag, err := parseSectionFlag(f)
			if err != nil {
				return nil, fmt.Errorf("%w: section %s: %v", ErrBadIR, fsec.Name, err)
			}
			s.Flags |= flag
		}
		for _, fb := range fsec.Blocks {
			kind := CodeBlock
			switch strings.ToLower(fb.Kind) {
			case "code":
			case "data":
				kind = DataBlock
			default:
				return nil, fmt.Errorf("%w: section %s: unknown block kind %q", ErrBadIR, fsec.Name, fb.Kind)
			}
			if fb.Offset+fb.Size > s.Size {
				return nil, fmt.Errorf("%w: section %s: block at offset %d overruns section", ErrBadIR, fsec.Name, fb.Offset)
			}
			s.AddBlock(kind, fb.Offset, fb.Size).DecodeMode = fb.DecodeMode
		}
		for _, fe := range fsec.SymExprs {
			var attrs AttributeSet
			for _, name := range fe.Attrs {
				a, err := ParseAttribute(name)
				if err != nil {
					return nil, fmt.Errorf("%w: section %s: %v", ErrBadIR, fsec.Name, err)
				}
				attrs |= Attrs(a)
			}
			s1, err := sym(fe.Symbol)
			if err != nil {
				return nil, err
			}
			if fe.Symbol2 == nil {
				s.AddSymbolicExpression(fe.At, &SymAddrConst{Offset: fe.Offset, Symbol: s1, Attrs: attrs})
				continue
			}
			s2, err := sym(fe.Symbol2)
			if err != nil {
				return nil, err
			}
			scale := fe.Scale
			if scale == 0 {
				scale = 1
			}
			s.AddSymbolicExpression(fe.At, &SymAddrAddr{Scale: scale, Offset: fe.Offset, Symbol1: s1, Symbol2: s2, Attrs: attrs})
		}
		m.Sections = append(m.Sections, s)
	}

	if err := loadAux(m, &fm.Aux, sym); err != nil {
		return nil, err
	}
	return m, nil
}

func loadAux(m *Module, fa *fileAux, sym func(*int) (*Symbol, error)) error {
	aux := &m.Aux
	for _, a := range fa.FunctionEntries {
		aux.FunctionEntries = append(aux.FunctionEntries, Addr(a))
	}
	for _, a := range fa.FunctionLastBlocks {
		aux.FunctionLastBlocks = append(aux.FunctionLastBlocks, Addr(a))
	}
	if len(fa.Alignment) > 0 {
		aux.Alignment = make(map[Addr]uint64, len(fa.Alignment))
		for a, v := range fa.Alignment {
			aux.Alignment[Addr(a)] = v
		}
	}
	if len(fa.Comments) > 0 {
		aux.Comments = make(map[Addr][]string, len(fa.Comments))
		for a, v := range fa.Comments {
			aux.Comments[Addr(a)] = v
		}
	}
	if len(fa.SymbolForwarding) > 0 {
		aux.SymbolForwarding = make(map[*Symbol]*Symbol, len(fa.SymbolForwarding))
		for from, to := range fa.SymbolForwarding {
			f, t := from, to
			fs, err := sym(&f)
			if err != nil {
				return err
			}
			ts, err := sym(&t)
			if err != nil {
				return err
			}
			aux.SymbolForwarding[fs] = ts
		}
	}
	if len(fa.CFIDirectives) > 0 {
		aux.CFIDirectives = make(map[Addr][]CFIDirective, len(fa.CFIDirectives))
		for a, list := range fa.CFIDirectives {
			for _, fc := range list {
				d := CFIDirective{Directive: fc.Directive, Operands: fc.Operands}
				if fc.Symbol != nil {
					s, err := sym(fc.Symbol)
					if err != nil {
						return err
					}
					d.Symbol = s
				}
				aux.CFIDirectives[Addr(a)] = append(aux.CFIDirectives[Addr(a)], d)
			}
		}
	}
	if len(fa.Encodings) > 0 {
		aux.Encodings = make(map[Addr]string, len(fa.Encodings))
		for a, v := range fa.Encodings {
			aux.Encodings[Addr(a)] = v
		}
	}
	if len(fa.SymExprSizes) > 0 {
		aux.SymbolicExpressionSizes = make(map[Addr]uint64, len(fa.SymExprSizes))
		for a, v := range fa.SymExprSizes {
			aux.SymbolicExpressionSizes[Addr(a)] = v
		}
	}
	return nil
}

func parseSymbolKind(s string) (SymbolKind, error) {
	switch strings.ToLower(s) {
	case "", "defined":
		return SymbolDefined, nil
	case "undefined", "extern":
		return SymbolUndefined, nil
	case "integral", "absolute":
		return SymbolIntegral, nil
	}
	return 0, fmt.Errorf("unknown symbol kind %q", s)
}

func parseSectionFlag(s string) (SectionFlags, error) {
	switch strings.ToLower(s) {
	case "loaded":
		return SectionLoaded, nil
	case "executable":
		return SectionExecutable, nil
	case "writable":
		return SectionWritable, nil
	case "initialized":
		return SectionInitialized, nil
	case "tls", "threadlocal":
		return SectionThreadLocal, nil
	}
	return 0, fmt.Errorf("unknown section flag %q", s)
}
