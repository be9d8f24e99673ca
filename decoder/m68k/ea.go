package m68k

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Urethramancer/pprinter/decoder"
)

// Size field encodings shared by most two-bit size fields.
const (
	sizeByte uint16 = iota
	sizeWord
	sizeLong
)

// sizeSuffix returns the canonical size suffix (.b, .w, .l).
func sizeSuffix(bits uint16) string {
	switch bits {
	case sizeByte:
		return ".b"
	case sizeWord:
		return ".w"
	case sizeLong:
		return ".l"
	default:
		return ""
	}
}

func sizeBytes(bits uint16) int {
	switch bits {
	case sizeByte:
		return 1
	case sizeWord:
		return 2
	case sizeLong:
		return 4
	}
	return 0
}

func dataReg(n uint16) decoder.Operand {
	return decoder.Operand{Kind: decoder.OperandRegister, Reg: fmt.Sprintf("d%d", n)}
}

func addrReg(n uint16) decoder.Operand {
	return decoder.Operand{Kind: decoder.OperandRegister, Reg: fmt.Sprintf("a%d", n)}
}

func imm(v int64) decoder.Operand {
	return decoder.Operand{Kind: decoder.OperandImmediate, Value: v}
}

// reader walks extension words following the opcode word.
type reader struct {
	code []byte
	pos  int
	err  error
}

func (r *reader) word() uint16 {
	if r.pos+2 > len(r.code) {
		r.err = fmt.Errorf("truncated extension word at offset %d", r.pos)
		r.pos += 2
		return 0
	}
	w := binary.BigEndian.Uint16(r.code[r.pos:])
	r.pos += 2
	return w
}

func (r *reader) long() uint32 {
	hi := uint32(r.word())
	return hi<<16 | uint32(r.word())
}

// ea decodes a six-bit effective address field.
func (r *reader) ea(field uint16, size uint16) (decoder.Operand, error) {
	mode := (field >> 3) & 7
	reg := field & 7

	switch mode {
	case 0:
		return dataReg(reg), nil
	case 1:
		return addrReg(reg), nil
	case 2:
		return mem(decoder.Memory{Base: fmt.Sprintf("a%d", reg)}, size), nil
	case 3:
		return mem(decoder.Memory{Base: fmt.Sprintf("a%d", reg), Mode: decoder.MemPostIncrement}, size), nil
	case 4:
		return mem(decoder.Memory{Base: fmt.Sprintf("a%d", reg), Mode: decoder.MemPreDecrement}, size), nil
	case 5:
		disp := int16(r.word())
		return mem(decoder.Memory{Base: fmt.Sprintf("a%d", reg), Disp: int64(disp)}, size), r.err
	case 6:
		m := r.indexed(fmt.Sprintf("a%d", reg))
		return mem(m, size), r.err
	case 7:
		switch reg {
		case 0:
			addr := int16(r.word())
			return mem(decoder.Memory{Disp: int64(addr), Mode: decoder.MemAbsolute, Scale: 2}, size), r.err
		case 1:
			addr := r.long()
			return mem(decoder.Memory{Disp: int64(addr), Mode: decoder.MemAbsolute, Scale: 4}, size), r.err
		case 2:
			disp := int16(r.word())
			return mem(decoder.Memory{Base: "pc", Disp: int64(disp), PCRelative: true}, size), r.err
		case 3:
			m := r.indexed("pc")
			m.PCRelative = true
			return mem(m, size), r.err
		case 4:
			return r.immediate(size), r.err
		}
	}
	return decoder.Operand{}, fmt.Errorf("invalid effective address mode=%d reg=%d", mode, reg)
}

// indexed decodes a brief extension word: (d8,base,Xn.s).
func (r *reader) indexed(base string) decoder.Memory {
	ext := r.word()
	idxKind := "d"
	if ext&0x8000 != 0 {
		idxKind = "a"
	}
	scale := 2
	if ext&0x0800 != 0 {
		scale = 4
	}
	return decoder.Memory{
		Base:  base,
		Index: fmt.Sprintf("%s%d", idxKind, (ext>>12)&7),
		Scale: scale,
		Disp:  int64(int8(ext & 0xFF)),
	}
}

// immediate reads immediate data based on the size field.
func (r *reader) immediate(size uint16) decoder.Operand {
	switch size {
	case sizeByte:
		return decoder.Operand{Kind: decoder.OperandImmediate, Value: int64(int8(r.word())), Size: 1}
	case sizeWord:
		return decoder.Operand{Kind: decoder.OperandImmediate, Value: int64(int16(r.word())), Size: 2}
	default:
		return decoder.Operand{Kind: decoder.OperandImmediate, Value: int64(int32(r.long())), Size: 4}
	}
}

func mem(m decoder.Memory, size uint16) decoder.Operand {
	return decoder.Operand{Kind: decoder.OperandMemory, Mem: m, Size: sizeBytes(size)}
}

// registerList converts a movem mask into "d0-d3/a0/a6" form. Predecrement
// masks are stored bit-reversed.
func registerList(mask uint16, reversed bool) string {
	if reversed {
		var rev uint16
		for i := 0; i < 16; i++ {
			if mask&(1<<i) != 0 {
				rev |= 1 << (15 - i)
			}
		}
		mask = rev
	}

	var d, a []int
	for i := 0; i < 8; i++ {
		if mask&(1<<i) != 0 {
			d = append(d, i)
		}
		if mask&(1<<(i+8)) != 0 {
			a = append(a, i)
		}
	}

	var parts []string
	parts = append(parts, registerRanges("d", d)...)
	parts = append(parts, registerRanges("a", a)...)
	return strings.Join(parts, "/")
}

func registerRanges(prefix string, regs []int) []string {
	if len(regs) == 0 {
		return nil
	}
	var parts []string
	start, end := regs[0], regs[0]
	flush := func() {
		if start == end {
			parts = append(parts, fmt.Sprintf("%s%d", prefix, start))
		} else {
			parts = append(parts, fmt.Sprintf("%s%d-%s%d", prefix, start, prefix, end))
		}
	}
	for _, r := range regs[1:] {
		if r == end+1 {
			end = r
			continue
		}
		flush()
		start, end = r, r
	}
	flush()
	return parts
}
