package format

import (
	"fmt"

	"github.com/sarchlab/bipack/insts"
)

// HeaderBits is the width of the clause header.
const HeaderBits = 45

// Header is the per-clause scheduling header.
type Header struct {
	FlushToZero        insts.FTZ
	SuppressInf        bool
	SuppressNaN        bool
	FloatExceptions    insts.Exceptions
	FlowControl        insts.FlowControl
	TerminateDiscarded bool
	NextClausePrefetch bool
	StagingBarrier     bool
	StagingRegister    uint8
	DependencyWait     uint8
	DependencySlot     uint8
	MessageType        insts.MessageType
	NextMessageType    insts.MessageType
}

type headerField struct {
	name  string
	shift uint
	bits  uint
}

var (
	hdrFTZ             = headerField{"ftz", 5, 2}
	hdrSuppressInf     = headerField{"suppress_inf", 7, 1}
	hdrSuppressNaN     = headerField{"suppress_nan", 8, 1}
	hdrFloatExceptions = headerField{"float_exceptions", 9, 2}
	hdrFlow            = headerField{"flow_control", 11, 3}
	hdrTD              = headerField{"terminate_discarded", 15, 1}
	hdrNCPH            = headerField{"next_clause_prefetch", 16, 1}
	hdrStagingBarrier  = headerField{"staging_barrier", 17, 1}
	hdrStagingRegister = headerField{"staging_register", 18, 6}
	hdrDependencyWait  = headerField{"dependency_wait", 24, 8}
	hdrDependencySlot  = headerField{"dependency_slot", 32, 3}
	hdrMessageType     = headerField{"message_type", 35, 5}
	hdrNextMessageType = headerField{"next_message_type", 40, 5}
)

// Reserved header bits: 0-4 and 14.
const headerReserved uint64 = 0x1F | 1<<14

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

type headerWriter struct {
	bits uint64
	err  error
}

func (w *headerWriter) put(f headerField, v uint64) {
	if w.err == nil && v > mask(f.bits) {
		w.err = fmt.Errorf("header field %s value %d exceeds %d bits", f.name, v, f.bits)
		return
	}
	w.bits |= v << f.shift
}

// Pack encodes the header. It fails when a field does not fit its bits.
func (h Header) Pack() (uint64, error) {
	w := &headerWriter{}
	w.put(hdrFTZ, uint64(h.FlushToZero))
	w.put(hdrSuppressInf, b2u(h.SuppressInf))
	w.put(hdrSuppressNaN, b2u(h.SuppressNaN))
	w.put(hdrFloatExceptions, uint64(h.FloatExceptions))
	w.put(hdrFlow, uint64(h.FlowControl))
	w.put(hdrTD, b2u(h.TerminateDiscarded))
	w.put(hdrNCPH, b2u(h.NextClausePrefetch))
	w.put(hdrStagingBarrier, b2u(h.StagingBarrier))
	w.put(hdrStagingRegister, uint64(h.StagingRegister))
	w.put(hdrDependencyWait, uint64(h.DependencyWait))
	w.put(hdrDependencySlot, uint64(h.DependencySlot))
	w.put(hdrMessageType, uint64(h.MessageType))
	w.put(hdrNextMessageType, uint64(h.NextMessageType))

	if w.err != nil {
		return 0, w.err
	}
	if w.bits>>HeaderBits != 0 || w.bits&headerReserved != 0 {
		return 0, fmt.Errorf("header %#x sets reserved bits", w.bits)
	}
	return w.bits, nil
}

func (f headerField) get(bits uint64) uint64 {
	return (bits >> f.shift) & mask(f.bits)
}

// UnpackHeader decodes a header. It fails when reserved bits are set.
func UnpackHeader(bits uint64) (Header, error) {
	if bits>>HeaderBits != 0 || bits&headerReserved != 0 {
		return Header{}, fmt.Errorf("header %#x sets reserved bits", bits)
	}

	return Header{
		FlushToZero:        insts.FTZ(hdrFTZ.get(bits)),
		SuppressInf:        hdrSuppressInf.get(bits) != 0,
		SuppressNaN:        hdrSuppressNaN.get(bits) != 0,
		FloatExceptions:    insts.Exceptions(hdrFloatExceptions.get(bits)),
		FlowControl:        insts.FlowControl(hdrFlow.get(bits)),
		TerminateDiscarded: hdrTD.get(bits) != 0,
		NextClausePrefetch: hdrNCPH.get(bits) != 0,
		StagingBarrier:     hdrStagingBarrier.get(bits) != 0,
		StagingRegister:    uint8(hdrStagingRegister.get(bits)),
		DependencyWait:     uint8(hdrDependencyWait.get(bits)),
		DependencySlot:     uint8(hdrDependencySlot.get(bits)),
		MessageType:        insts.MessageType(hdrMessageType.get(bits)),
		NextMessageType:    insts.MessageType(hdrNextMessageType.get(bits)),
	}, nil
}
