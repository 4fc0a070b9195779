// cog_stack.go - Value stack & frame engine (spec §4.1).
//
// The stack lives in hub RAM starting just above the cog's current frame;
// StackFrame is the byte address of the next free slot and always grows
// up. No alignment is enforced between pushes and pops — the bytecode
// stream is responsible for pairing them, exactly as spec §4.1 requires.
package cog

// pushLong writes v as a hub long at StackFrame and advances StackFrame
// by 4.
func (c *Cog) pushLong(v uint32) {
	c.hub.DirectWriteLong(c.StackFrame, v)
	c.StackFrame += 4
}

// popLong retreats StackFrame by 4 and reads the hub long left there.
func (c *Cog) popLong() uint32 {
	c.StackFrame -= 4
	return c.hub.DirectReadLong(c.StackFrame)
}

// pushWord writes v as a hub word at StackFrame and advances StackFrame
// by 2.
func (c *Cog) pushWord(v uint16) {
	c.hub.DirectWriteWord(c.StackFrame, v)
	c.StackFrame += 2
}

// popWord retreats StackFrame by 2 and reads the hub word left there.
func (c *Cog) popWord() uint16 {
	c.StackFrame -= 2
	return c.hub.DirectReadWord(c.StackFrame)
}

// pushCallType records the return-type mask for an active call onto the
// private CallStack (opcodes 0x00-0x03).
func (c *Cog) pushCallType(mask uint32) {
	c.CallStack = append(c.CallStack, mask)
}

// popCallType removes and returns the most recently pushed return-type
// mask. ok is false on CallStack underflow (spec §4.9: terminate the cog).
func (c *Cog) popCallType() (mask uint32, ok bool) {
	n := len(c.CallStack)
	if n == 0 {
		return 0, false
	}
	mask = c.CallStack[n-1]
	c.CallStack = c.CallStack[:n-1]
	return mask, true
}

// pushReturnSlot and popReturnSlot manage the saved-PC-slot address that
// frame prep notes and the immediately following call instruction
// consumes (spec §4.6, opcodes 0x00-0x03 then 0x05-0x07). They share the
// same LIFO storage as pushCallType/popCallType because the bytecode
// stream always interleaves them in that order.
func (c *Cog) pushReturnSlot(addr uint16) {
	c.CallStack = append(c.CallStack, uint32(addr))
}

func (c *Cog) popReturnSlot() (addr uint16, ok bool) {
	n := len(c.CallStack)
	if n == 0 {
		return 0, false
	}
	addr = uint16(c.CallStack[n-1])
	c.CallStack = c.CallStack[:n-1]
	return addr, true
}
