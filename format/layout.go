package format

// Fields is the clause state spread over instruction quads.
type Fields struct {
	Tuples [8]Tuple

	// EC0 is the first embedded constant shifted right by 4.
	EC0 uint64

	// M is the modifier code field of EC0.
	M uint64

	Header uint64

	// Z is set when no constant quads follow.
	Z bool
}

func width(slot int) uint {
	switch slot {
	case 0:
		return S0S3Bits
	case 1:
		return S4Bits
	case 2:
		return S5S6Bits
	default:
		return S7Bits
	}
}

// value reads field f from the clause state as a subword of n bits.
func (s *Fields) value(f Field, n uint) uint64 {
	switch f.Kind {
	case FieldLiteral:
		return uint64(f.Value)
	case FieldZ:
		return b2u(s.Z)
	case FieldTuple:
		return s.Tuples[f.Tuple].Bits(uint(f.Offset), n)
	case FieldUpper:
		u := uint64(s.Tuples[f.Tuple].Upper())
		if n == 3 {
			return u
		}
		return u << (n - 3)
	case FieldUpperPair:
		a := uint64(s.Tuples[f.Tuple].Upper())
		b := uint64(s.Tuples[f.Tuple2].Upper())
		return a<<(n-3) | b<<(n-6)
	case FieldEC:
		return (s.EC0 >> f.Offset) & mask(n)
	case FieldM:
		return s.M & mask(n)
	case FieldHeader:
		return (s.Header >> f.Offset) & mask(n)
	default:
		return 0
	}
}

// store writes subword v of n bits back into the clause state.
func (s *Fields) store(f Field, n uint, v uint64) {
	switch f.Kind {
	case FieldZ:
		s.Z = v != 0
	case FieldTuple:
		s.Tuples[f.Tuple].SetBits(uint(f.Offset), n, v)
	case FieldUpper:
		if n != 3 {
			v >>= n - 3
		}
		s.Tuples[f.Tuple].SetUpper(uint8(v))
	case FieldUpperPair:
		s.Tuples[f.Tuple].SetUpper(uint8(v >> (n - 3)))
		s.Tuples[f.Tuple2].SetUpper(uint8(v>>(n-6)) & 0x7)
	case FieldEC:
		s.EC0 = s.EC0&^(mask(n)<<f.Offset) | (v&mask(n))<<f.Offset
	case FieldM:
		s.M = v
	case FieldHeader:
		s.Header = s.Header&^(mask(n)<<f.Offset) | (v&mask(n))<<f.Offset
	}
}

// Pack builds the quad of format f from the clause state.
func (f *Format) Pack(s *Fields) Quad {
	tag := s.value(f.Tag1, 2)<<6 | s.value(f.Tag2, 3)<<3 | s.value(f.Tag3, 3)

	return Subwords{
		Tag:  uint8(tag),
		S0S3: s.value(f.S0S3, width(0)),
		S4:   s.value(f.S4, width(1)),
		S5S6: s.value(f.S5S6, width(2)),
		S7:   s.value(f.S7, width(3)),
	}.Join()
}

// Unpack stores the fields of a quad of format f into the clause state.
func (f *Format) Unpack(q Quad, s *Fields) {
	w := q.Split()

	s.store(f.Tag1, 2, uint64(w.Tag>>6))
	s.store(f.Tag2, 3, uint64(w.Tag>>3)&0x7)
	s.store(f.Tag3, 3, uint64(w.Tag)&0x7)
	s.store(f.S0S3, width(0), w.S0S3)
	s.store(f.S4, width(1), w.S4)
	s.store(f.S5S6, width(2), w.S5S6)
	s.store(f.S7, width(3), w.S7)
}
