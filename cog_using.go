// cog_using.go - In-place "using" sub-operator (spec §4.4).
//
// InplaceUsingOp reads a second opcode byte describing how to combine a
// just-read location value with either the value stack or a constant
// step, producing both the value to store back and the value to return
// to the caller (and, if the push bit is set, to also push onto the
// value stack). Its callers are the memory-operation decoder
// (cog_memory.go) and the SPR using opcode 0x26 (cog_special.go); each
// caller owns writing the stored value back to the location.
package cog

// usingResult is what InplaceUsingOp hands back to its caller: the value
// to write back to the location that was read, and the value to return
// (which, per spec §4.4, the caller pushes when push is set).
type usingResult struct {
	stored uint32
	result uint32
	push   bool
}

// InplaceUsingOp implements the second-byte operator of a USING memory
// operation (spec §4.4).
func (c *Cog) InplaceUsingOp(original uint32) usingResult {
	raw := c.fetchByte()
	push := raw&0x80 != 0
	op := raw &^ 0x80

	if op >= 0x40 {
		var v uint32
		if op < 0x60 {
			v = c.BaseMathOp(op-0x40, false, original)
		} else {
			v = c.BaseMathOp(op-0x60, true, original)
		}
		return usingResult{stored: v, result: v, push: push}
	}

	switch op {
	case 0x00: // COPY
		v := c.popLong()
		return usingResult{stored: v, result: v, push: push}

	case 0x02: // REPEAT_COMPARE
		end := c.popLong()
		start := c.popLong()
		branch := c.readBranchOffset()
		newVal := original
		if int32(end) < int32(start) {
			newVal--
			if int32(newVal) >= int32(end) {
				c.PC = uint16(int32(c.PC) + branch)
			}
		} else {
			newVal++
			if int32(newVal) <= int32(end) {
				c.PC = uint16(int32(c.PC) + branch)
			}
		}
		return usingResult{stored: newVal, result: newVal, push: push}

	case 0x06: // REPEAT_COMPARE_STEP
		end := c.popLong()
		start := c.popLong()
		step := c.popLong()
		branch := c.readBranchOffset()
		if int32(end) < int32(start) {
			start, end = end, start
		}
		newVal := original + step
		if int32(newVal) >= int32(start) && int32(newVal) <= int32(end) {
			c.PC = uint16(int32(c.PC) + branch)
		}
		return usingResult{stored: newVal, result: newVal, push: push}

	case 0x08: // forward LFSR random
		v := lfsrForward(original)
		return usingResult{stored: v, result: v, push: push}

	case 0x0C: // reverse LFSR random
		v := lfsrReverse(original)
		return usingResult{stored: v, result: v, push: push}

	case 0x10: // sign-extend from bit 7
		v := uint32(int32(int8(original)))
		return usingResult{stored: v, result: v, push: push}

	case 0x14: // sign-extend from bit 15
		v := uint32(int32(int16(original)))
		return usingResult{stored: v, result: v, push: push}

	case 0x18: // post-reset
		return usingResult{stored: 0, result: original, push: push}

	case 0x1C: // post-set
		return usingResult{stored: 0xFFFFFFFF, result: original, push: push}
	}

	if op >= 0x20 && op <= 0x3E && op%2 == 0 {
		return c.incDec(op, original, push)
	}

	c.log.Printf("cog %d: undefined USING op 0x%02X", c.id, raw)
	return usingResult{stored: original, result: original, push: push}
}

// incDec implements the 0x20-0x3E pre/post increment/decrement family at
// widths bit, byte, word, long (spec §4.4).
func (c *Cog) incDec(op uint8, original uint32, push bool) usingResult {
	group := (op - 0x20) >> 3  // 0=bit 1=byte 2=word 3=long
	variant := ((op - 0x20) >> 1) & 3 // 0=pre-inc 1=pre-dec 2=post-inc 3=post-dec

	var mask uint32
	switch group {
	case 0:
		mask = 0x1
	case 1:
		mask = 0xFF
	case 2:
		mask = 0xFFFF
	default:
		mask = 0xFFFFFFFF
	}

	dec := variant == 1 || variant == 3
	post := variant == 2 || variant == 3

	var newVal uint32
	if dec {
		newVal = (original - 1) & mask
	} else {
		newVal = (original + 1) & mask
	}

	if post {
		return usingResult{stored: newVal, result: original & mask, push: push}
	}
	return usingResult{stored: newVal, result: newVal, push: push}
}

// lfsrForward advances a 32-bit linear feedback shift register one step
// in the forward direction (spec §4.4): parity of bits 0,1,2,4, shifted
// right with the parity bit inserted at bit 31. A zero seed is replaced
// with 1 so the register never locks up at all-zero.
func lfsrForward(seed uint32) uint32 {
	if seed == 0 {
		seed = 1
	}
	parity := (seed ^ (seed >> 1) ^ (seed >> 2) ^ (seed >> 4)) & 1
	return (seed >> 1) | (parity << 31)
}

// lfsrReverse is the inverse tap polynomial of lfsrForward: parity of
// bits 0,1,3,31, shifted left with the parity bit inserted at bit 0.
func lfsrReverse(seed uint32) uint32 {
	if seed == 0 {
		seed = 1
	}
	parity := (seed ^ (seed >> 1) ^ (seed >> 3) ^ (seed >> 31)) & 1
	return (seed << 1) | parity
}
