// cog_special.go - Special-opcode dispatch, 0x00-0x3F (spec §4.6).
//
// Call/return linkage, branches, CASE/LOOKUP ladders, the fill/move/
// compare intrinsics, and the cog-level control opcodes (COGINIT, locks,
// clock, waits) all live here. 0x3D-0x3F are the cog-register family and
// are implemented in cog_memory.go; they're dispatched from here.
package cog

// execOne fetches and executes exactly one opcode, classifying by the
// top bits the way the spec's own opcode table is laid out (spec §9:
// "a switch on the top two bits, then inner decoding").
func (c *Cog) execOne() {
	op := c.fetchByte()
	switch {
	case op < 0x40:
		c.execSpecial(op)
	case op < 0x80:
		c.execFastMemory(op)
	case op < 0xE0:
		c.execMaskedMemory(op)
	default:
		c.execTopLevelMath(op)
	}
}

func (c *Cog) execSpecial(op uint8) {
	switch {
	case op <= 0x03:
		c.framePrep(op)
		return
	case op >= 0x05 && op <= 0x07:
		c.call(op)
		return
	case op >= 0x38 && op <= 0x3B:
		c.pushLong(c.readMultiByteConstant(op))
		return
	}

	switch op {
	case 0x04: // unconditional jump
		c.PC = c.branchPC(c.readBranchOffset())

	case 0x08: // LOOP-START
		val := c.popLong()
		branch := c.readBranchOffset()
		if int32(val) <= 0 {
			c.PC = c.branchPC(branch)
		} else {
			c.pushLong(val)
		}

	case 0x09: // LOOP-CONTINUE
		val := c.popLong() - 1
		branch := c.readBranchOffset()
		if int32(val) > 0 {
			c.PC = c.branchPC(branch)
			c.pushLong(val)
		}

	case 0x0A: // JZ
		val := c.popLong()
		branch := c.readBranchOffset()
		if val == 0 {
			c.PC = c.branchPC(branch)
		}

	case 0x0B: // JNZ
		val := c.popLong()
		branch := c.readBranchOffset()
		if val != 0 {
			c.PC = c.branchPC(branch)
		}

	case 0x0C: // CASEDONE
		_ = c.popLong() // case selector, discarded
		target := c.popLong()
		c.PC = c.ObjectFrame + uint16(target)

	case 0x0D: // VALUE CASE
		equal := c.popLong()
		value := c.popLong()
		branch := c.readBranchOffset()
		if value == equal {
			c.PC = c.branchPC(branch)
		} else {
			c.pushLong(value)
		}

	case 0x0E: // RANGE CASE
		max := c.popLong()
		min := c.popLong()
		value := c.popLong()
		branch := c.readBranchOffset()
		if min > max {
			min, max = max, min
		}
		if int32(value) >= int32(min) && int32(value) <= int32(max) {
			c.PC = c.branchPC(branch)
		} else {
			c.pushLong(value)
		}

	case 0x0F: // LOOK-DONE
		_ = c.popLong() // key
		_ = c.popLong() // jump
		_ = c.popLong() // base
		c.pushLong(0xFFFFFFFF)

	case 0x10:
		c.valueLookup(false)
	case 0x11:
		c.valueLookup(true)
	case 0x12:
		c.rangeLookup(false)
	case 0x13:
		c.rangeLookup(true)

	case 0x14: // undefined: surface diagnostic, no state change
		c.log.Printf("cog %d: undefined opcode 0x14 (QUIT) at PC=0x%04X", c.id, c.PC-1)

	case 0x15: // Mark Interpreted
		c.InterpreterFlag = true

	case 0x16: // STRSIZE
		c.pushLong(c.strsize(uint16(c.popLong())))

	case 0x17: // STRCOMP
		c.pushLong(boolMask(c.strcomp(uint16(c.popLong()), uint16(c.popLong()))))

	case 0x18, 0x19, 0x1A: // BYTE/WORD/LONG FILL
		c.fill(op - 0x18)

	case 0x1B: // WAIT PEQ
		c.startWait(StateWaitPEQ)

	case 0x1C, 0x1D, 0x1E: // BYTE/WORD/LONG MOVE
		c.move(op - 0x1C)

	case 0x1F: // WAIT PNE
		c.startWait(StateWaitPNE)

	case 0x20: // clock set
		freq := c.popLong()
		c.hub.DirectWriteLong(0, freq)
		mode := uint8(c.popLong())
		c.hub.DirectWriteByte(4, mode)
		c.hub.SetClockMode(mode)

	case 0x21: // cog stop
		c.hub.Stop(c.id)
		c.State = StateStopped

	case 0x22: // lock return
		c.hub.LockReturn(c.popLong())

	case 0x23: // wait cnt
		c.TargetValue = c.popLong()
		c.State = StateWaitCNT

	case 0x24:
		c.sprRead()
	case 0x25:
		c.sprWrite()
	case 0x26:
		c.sprUsing()

	case 0x27: // wait vid
		pixels := c.popLong()
		colors := c.popLong()
		c.PixelsValue = pixels
		c.ColorsValue = colors
		c.State = StateWaitVID

	case 0x28:
		c.pushLong(c.execCoginit())
	case 0x29:
		c.execCoginit()
	case 0x2A:
		c.pushLong(c.hub.NewLock())
	case 0x2B:
		c.hub.NewLock()
	case 0x2C:
		id := c.popLong()
		c.pushLong(boolMask(c.hub.LockSet(id, true)))
	case 0x2D:
		c.hub.LockSet(c.popLong(), true)
	case 0x2E:
		id := c.popLong()
		c.pushLong(boolMask(c.hub.LockSet(id, false)))
	case 0x2F:
		c.hub.LockSet(c.popLong(), false)

	case 0x30: // abort, no value
		c.returnFromSub(0, true)
	case 0x31: // abort, with value
		c.returnFromSub(c.popLong(), true)
	case 0x32: // return, no value
		c.returnFromSub(0, false)
	case 0x33: // return, with value
		c.returnFromSub(c.popLong(), false)

	case 0x34:
		c.pushLong(0xFFFFFFFF)
	case 0x35:
		c.pushLong(0)
	case 0x36:
		c.pushLong(1)

	case 0x37: // packed literal
		c.packedLiteral()

	case 0x3C: // undefined
		c.log.Printf("cog %d: undefined opcode 0x3C at PC=0x%04X", c.id, c.PC-1)

	case 0x3D, 0x3E, 0x3F:
		c.execCogRegisterOp(op)

	default:
		c.log.Printf("cog %d: unreachable special opcode 0x%02X", c.id, op)
	}
}

// branchPC applies a packed-signed branch offset to the current PC.
func (c *Cog) branchPC(offset int32) uint16 {
	return uint16(int32(c.PC) + offset)
}

// startWait pops port, mask, target (in that order, the reverse of the
// push order of spec §8's worked example) and enters the named wait
// state.
func (c *Cog) startWait(state State) {
	port := c.popLong()
	mask := c.popLong()
	target := c.popLong()
	c.WaitPort = Port(port & 1)
	c.MaskValue = mask
	c.TargetValue = target
	c.State = state
}

// framePrep implements opcodes 0x00-0x03 (spec §4.6): lay down a call
// record and remember how the eventual return should behave.
func (c *Cog) framePrep(op uint8) {
	c.pushCallType(uint32(op & 0x3))
	c.pushWord(c.ObjectFrame)
	c.pushWord(c.VariableFrame)
	c.pushWord(c.LocalFrame)
	pcSlot := c.StackFrame
	c.pushReturnSlot(pcSlot)
	c.pushWord(0) // placeholder, filled in by the following call
	c.pushLong(0) // default return value
}

// call implements opcodes 0x05-0x07 (spec §4.6).
func (c *Cog) call(op uint8) {
	if op >= 0x06 {
		objIndex := c.fetchByte()
		objectCode := c.ObjectFrame + uint16(objIndex)*4
		if op == 0x07 {
			idx := c.popLong()
			objectCode += uint16(idx) * 4
		}
		objDelta := c.hub.DirectReadWord(objectCode)
		varDelta := c.hub.DirectReadWord(objectCode + 2)
		c.ObjectFrame += objDelta
		c.VariableFrame += varDelta
	}

	funcIndex := c.fetchByte()
	functionCode := c.ObjectFrame + uint16(funcIndex)*4

	slotAddr, ok := c.popReturnSlot()
	if !ok {
		c.log.Printf("cog %d: call with no pending frame prep", c.id)
		return
	}
	c.LocalFrame = slotAddr + 2
	c.hub.DirectWriteWord(slotAddr, c.PC)
	c.PC = c.ObjectFrame + c.hub.DirectReadWord(functionCode)
	c.StackFrame += c.hub.DirectReadWord(functionCode + 2)
}

// returnFromSub implements spec §4.9: unwind frames, optionally
// propagating an abort past every frame without the trap-abort bit set,
// and push the return value on the frame where unwinding stops.
func (c *Cog) returnFromSub(value uint32, abort bool) {
	for {
		c.StackFrame = c.LocalFrame
		mask, ok := c.popCallType()
		if !ok {
			c.hub.Stop(c.id)
			c.State = StateStopped
			return
		}
		trapAbort := mask&0x2 != 0
		wantReturn := mask&0x1 == 0

		pc := c.popWord()
		localFrame := c.popWord()
		variableFrame := c.popWord()
		objectFrame := c.popWord()
		c.PC = pc
		c.LocalFrame = localFrame
		c.VariableFrame = variableFrame
		c.ObjectFrame = objectFrame

		if abort && !trapAbort {
			continue
		}
		if wantReturn {
			c.pushLong(value)
		}
		return
	}
}

// strsize implements opcode 0x16: count bytes until NUL, capped at the
// top of hub address space.
func (c *Cog) strsize(addr uint16) uint32 {
	var n uint32
	for {
		if c.hub.DirectReadByte(addr) == 0 {
			return n
		}
		if addr == 0xFFFF {
			return n
		}
		addr++
		n++
	}
}

// strcomp implements opcode 0x17: compare two NUL-terminated strings.
func (c *Cog) strcomp(a, b uint16) bool {
	for {
		ca := c.hub.DirectReadByte(a)
		cb := c.hub.DirectReadByte(b)
		if ca != cb {
			return false
		}
		if ca == 0 {
			return true
		}
		a++
		b++
	}
}

// fill implements opcodes 0x18-0x1A: pop (dest, value, count) and write
// count copies of value at the given size.
func (c *Cog) fill(size uint8) {
	count := c.popLong()
	value := c.popLong()
	dest := uint16(c.popLong())
	step := uint16(1) << size
	for i := uint32(0); i < count; i++ {
		c.writeSized(dest+uint16(i)*step, size, value)
	}
}

// move implements opcodes 0x1C-0x1E: pop (dest, src, count) and copy
// count elements at the given size from src to dest.
func (c *Cog) move(size uint8) {
	count := c.popLong()
	src := uint16(c.popLong())
	dest := uint16(c.popLong())
	step := uint16(1) << size
	for i := uint32(0); i < count; i++ {
		v := c.readSized(src+uint16(i)*step, size)
		c.writeSized(dest+uint16(i)*step, size, v)
	}
}

// sprRead/sprWrite/sprUsing implement opcodes 0x24-0x26 (spec §4.6,
// §9): the popped address is masked to 5 bits; addresses 16-31 are out
// of range for SPR (only the top 16 of the 32-entry cog register file
// are reachable this way) and silently no-op. Per spec §9's open
// question we leave the value operand on the stack for an invalid
// write/using address, but still consume the in-bytecode-stream USING
// operator byte for 0x26 so PC decoding never desyncs.
func (c *Cog) sprRead() {
	idx := c.popLong() & 0x1F
	if idx >= 16 {
		return
	}
	c.pushLong(*c.reg(uint16(0x1F0 + idx)))
}

func (c *Cog) sprWrite() {
	idx := c.popLong() & 0x1F
	if idx >= 16 {
		return
	}
	*c.reg(uint16(0x1F0+idx)) = c.popLong()
}

func (c *Cog) sprUsing() {
	idx := c.popLong() & 0x1F
	if idx >= 16 {
		c.fetchByte() // consume the using operator byte; PC must still advance
		return
	}
	addr := uint16(0x1F0 + idx)
	original := *c.reg(addr)
	res := c.InplaceUsingOp(original)
	*c.reg(addr) = res.stored
	if res.push {
		c.pushLong(res.result)
	}
}

// packedLiteral implements opcode 0x37: rotate-left(2, v&0x1F), then
// optionally decrement and/or complement per the top two bits of v.
func (c *Cog) packedLiteral() {
	v := c.fetchByte()
	n := uint(v & 0x1F)
	result := uint32(2)<<n | uint32(2)>>(32-n)
	if v&0x20 != 0 {
		result--
	}
	if v&0x40 != 0 {
		result = ^result
	}
	c.pushLong(result)
}

// valueLookup implements opcodes 0x10 (lookup=false) and 0x11
// (lookdown=true): one step of a VALUE LOOKUP/LOOKDOWN ladder over a
// four-entry (base, jump, key, current) state (spec §4.6).
func (c *Cog) valueLookup(lookdown bool) {
	current := c.popLong()
	key := c.popLong()
	jump := c.popLong()
	base := c.popLong()

	if lookdown {
		if current == key {
			c.PC = c.ObjectFrame + uint16(jump)
			c.pushLong(base)
			return
		}
	} else {
		if base == key {
			c.PC = c.ObjectFrame + uint16(jump)
			c.pushLong(current)
			return
		}
	}
	c.pushLong(base + 1)
	c.pushLong(jump)
	c.pushLong(key)
}

// rangeLookup implements opcodes 0x12 (lookup=false) and 0x13
// (lookdown=true): the range-aware variants that consume a whole
// contiguous span in one step (spec §4.6).
func (c *Cog) rangeLookup(lookdown bool) {
	if lookdown {
		hi := c.popLong()
		lo := c.popLong()
		if lo > hi {
			lo, hi = hi, lo
		}
		key := c.popLong()
		jump := c.popLong()
		base := c.popLong()
		if int32(key) >= int32(lo) && int32(key) <= int32(hi) {
			c.PC = c.ObjectFrame + uint16(jump)
			c.pushLong(base + (key - lo))
			return
		}
		c.pushLong(base + (hi - lo + 1))
		c.pushLong(jump)
		c.pushLong(key)
		return
	}

	count := c.popLong()
	current := c.popLong()
	key := c.popLong()
	jump := c.popLong()
	base := c.popLong()
	if key >= base && key < base+count {
		c.PC = c.ObjectFrame + uint16(jump)
		c.pushLong(current + (key - base))
		return
	}
	c.pushLong(base + count)
	c.pushLong(jump)
	c.pushLong(key)
}
