// cog_operand.go - Packed operand readers (spec §4.2).
package cog

// fetchByte reads one byte at PC and advances PC.
func (c *Cog) fetchByte() uint8 {
	v := c.hub.DirectReadByte(c.PC)
	c.PC++
	return v
}

// readPackedUnsigned reads a 1- or 2-byte packed unsigned operand: if the
// high bit of the first byte is set, a second byte follows and the two
// combine (big-endian) into a 15-bit value; otherwise the first byte is
// the whole value.
func (c *Cog) readPackedUnsigned() uint32 {
	first := c.fetchByte()
	if first&0x80 == 0 {
		return uint32(first)
	}
	second := c.fetchByte()
	return (uint32(first)<<8 | uint32(second)) & 0x7FFF
}

// readPackedSigned reads the same 1-/2-byte shape as readPackedUnsigned
// but sign-extends from bit 6 (1-byte form) or bit 14 (2-byte form).
func (c *Cog) readPackedSigned() int32 {
	first := c.fetchByte()
	if first&0x80 == 0 {
		v := int32(first & 0x7F)
		if v&0x40 != 0 {
			v |= ^int32(0x7F)
		}
		return v
	}
	second := c.fetchByte()
	v := int32(first&0x7F)<<8 | int32(second)
	if v&0x4000 != 0 {
		v |= ^int32(0x7FFF)
	}
	return v
}

// readBranchOffset reads a packed-signed branch displacement. Call sites
// add the result to PC themselves so the "read, then maybe branch" shape
// of spec §4.6 stays explicit at each use.
func (c *Cog) readBranchOffset() int32 {
	return c.readPackedSigned()
}

// readMultiByteConstant reads the k1..k4 multi-byte constant form of
// opcodes 0x38-0x3B: N = op-0x37 bytes, big-endian concatenation.
func (c *Cog) readMultiByteConstant(op uint8) uint32 {
	n := int(op) - 0x37
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<8 | uint32(c.fetchByte())
	}
	return v
}
