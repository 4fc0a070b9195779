// cog_memory.go - Memory operation decoder (spec §4.5).
//
// Three independently bit-sliced opcode families all resolve to the same
// four actions — PUSH, POP, USING, REFERENCE — against an effective hub
// or cog-register address: the masked family (0x80-0xDF), the fast
// VAR/LOC family (0x40-0x7F), and the cog-register family reached through
// opcodes 0x3D/0x3E/0x3F.
package cog

// memBase identifies which frame register (if any) an address is
// relative to.
type memBase uint8

const (
	baseMain memBase = iota
	baseObject
	baseVariable
	baseLocal
)

// memAction is the qq field shared by the masked and fast families.
type memAction uint8

const (
	actionPush memAction = iota
	actionPop
	actionUsing
	actionReference
)

// execMaskedMemory decodes and executes one 0x80-0xDF opcode: "1 ss i bb qq".
func (c *Cog) execMaskedMemory(op uint8) {
	ss := (op >> 5) & 0x3
	indexed := (op>>4)&0x1 != 0
	bb := memBase((op >> 2) & 0x3)
	action := memAction(op & 0x3)

	addr := c.resolveMaskedAddress(bb, indexed, ss)
	c.execMemoryAction(addr, ss, action)
}

// resolveMaskedAddress computes the effective address for the masked
// family, including the size-scaled indexed-addressing case (spec §4.5).
func (c *Cog) resolveMaskedAddress(bb memBase, indexed bool, sizeLog2 uint8) uint16 {
	if bb == baseMain {
		address := c.popLong()
		if indexed {
			index := c.popLong()
			return uint16(index + (address << sizeLog2))
		}
		return uint16(address)
	}

	offset := c.readPackedUnsigned()
	address := uint32(c.frameBase(bb)) + offset
	if indexed {
		index := c.popLong()
		return uint16(address + (index << sizeLog2))
	}
	return uint16(address)
}

func (c *Cog) frameBase(bb memBase) uint16 {
	switch bb {
	case baseObject:
		return c.ObjectFrame
	case baseVariable:
		return c.VariableFrame
	case baseLocal:
		return c.LocalFrame
	default:
		return 0
	}
}

// execFastMemory decodes and executes one 0x40-0x7F opcode: "01 b vvv qq".
// Size is always long.
func (c *Cog) execFastMemory(op uint8) {
	isLocal := (op>>5)&0x1 != 0
	slot := (op >> 2) & 0x7
	action := memAction(op & 0x3)

	base := c.VariableFrame
	if isLocal {
		base = c.LocalFrame
	}
	addr := base + uint16(slot)*4
	c.execMemoryAction(addr, 2, action)
}

// execMemoryAction performs the shared PUSH/POP/USING/REFERENCE behavior
// against addr at the given size (0=byte,1=word,2=long).
func (c *Cog) execMemoryAction(addr uint16, size uint8, action memAction) {
	switch action {
	case actionPush:
		c.pushLong(c.readSized(addr, size))

	case actionPop:
		c.writeSized(addr, size, c.popLong())

	case actionUsing:
		original := c.readSized(addr, size)
		res := c.InplaceUsingOp(original)
		c.writeSized(addr, size, res.stored)
		if res.push {
			c.pushLong(res.result)
		}

	case actionReference:
		c.pushLong(uint32(addr))
	}
}

func (c *Cog) readSized(addr uint16, size uint8) uint32 {
	switch size {
	case 0:
		return uint32(c.hub.DirectReadByte(addr))
	case 1:
		return uint32(c.hub.DirectReadWord(addr))
	default:
		return c.hub.DirectReadLong(addr)
	}
}

func (c *Cog) writeSized(addr uint16, size uint8, v uint32) {
	switch size {
	case 0:
		c.hub.DirectWriteByte(addr, uint8(v))
	case 1:
		c.hub.DirectWriteWord(addr, uint16(v))
	default:
		c.hub.DirectWriteLong(addr, v)
	}
}

// execCogRegisterOp implements the 0x3D/0x3E/0x3F family (spec §4.5): a
// sub-byte "xxx rrrrr" selects register CogRegBase+rrrrr and an action
// via a field mask/shift that the opcode itself (0x3D/0x3E/0x3F) derives.
func (c *Cog) execCogRegisterOp(opcode uint8) {
	sub := c.fetchByte()
	rrrrr := sub & 0x1F
	addr := uint16(CogRegBase) + uint16(rrrrr)

	var mask uint32
	var lowestBit uint8

	switch opcode {
	case 0x3D:
		bit := c.popLong() & 31
		mask = 1 << bit
		lowestBit = uint8(bit)
	case 0x3E:
		a := c.popLong()
		b := c.popLong()
		lo, hi := a, b
		if lo > hi {
			lo, hi = hi, lo
		}
		width := hi - lo + 1
		mask = uint32((uint64(1)<<width)-1) << lo
		lowestBit = uint8(lo)
	default: // 0x3F
		mask = 0xFFFFFFFF
		lowestBit = 0
	}

	top3 := sub >> 5
	reg := c.reg(addr)

	switch top3 {
	case 0x4: // PUSH
		c.pushLong((*reg & mask) >> lowestBit)
	case 0x5: // POP
		popped := c.popLong()
		*reg = (*reg &^ mask) | ((popped << lowestBit) & mask)
	case 0x6: // USING
		cur := (*reg & mask) >> lowestBit
		res := c.InplaceUsingOp(cur)
		*reg = (*reg &^ mask) | ((res.stored << lowestBit) & mask)
		if res.push {
			c.pushLong(res.result)
		}
	default:
		c.log.Printf("cog %d: undefined cog-register sub-op 0x%02X", c.id, sub)
	}
}
