// cog_boot.go - Boot loader and COGINIT launch path (spec §4.7, §4.8).
package cog

// cogFreeSentinel marks a hub COGINIT request as "launch on the first
// free cog" rather than a specific numeric id (spec §4.7).
const cogFreeSentinel = 0x8

// stepBoot runs the BOOT_INTERPRETER sequence (spec §4.8). The first tick
// reads PAR as a hub-address-masked init-block pointer, seeds the frame
// registers and PC from the four words below it, stamps the handshake
// words the launching side expects back (sentinel at InitFrame-8, a
// cleared long at InitFrame-4), and sets StateCount = 48; the cog then
// paces through BOOT_INTERPRETER exactly like WAIT_INTERPRETER paces
// after an opcode, switching to EXEC_INTERPRETER once the count runs out.
func (c *Cog) stepBoot() {
	if c.StateCount > 0 {
		c.StateCount--
		if c.StateCount == 0 {
			c.State = StateExecInterpreter
		}
		return
	}

	initFrame := uint16(*c.reg(RegPAR) & 0xFFFC)

	objectFrame := c.hub.DirectReadWord(initFrame - 8)
	variableFrame := c.hub.DirectReadWord(initFrame - 6)
	pc := c.hub.DirectReadWord(initFrame - 4)
	stackSeed := c.hub.DirectReadWord(initFrame - 2)

	c.ObjectFrame = objectFrame
	c.VariableFrame = variableFrame
	c.PC = pc
	c.StackFrame = stackSeed - 4
	c.LocalFrame = initFrame - 4

	*c.reg(RegINITCOGID) = uint32(initFrame - 4)

	c.hub.DirectWriteWord(initFrame-8, 0xFFFF) // sentinel: init block consumed
	c.hub.DirectWriteLong(initFrame-4, 0)      // cleared: no longer a valid PC slot

	c.StateCount = 48
}

// execCoginit implements opcode 0x28/0x29 (spec §4.7). Two distinct
// launch conventions share the opcode, selected by InterpreterFlag (set
// one-shot by opcode 0x15):
//
//   - Interpreter launch: builds a fresh interpreter init block (the same
//     four-word shape stepBoot reads: ObjectFrame, VariableFrame, PC,
//     initial-stack-seed at InitFrame-8..-2) just below the popped stack
//     pointer, copies the call's argument longs into the space right
//     above it, and always requests the first free cog.
//   - Native boot: pops an explicit (parameter, address, cog id) triple
//     and forms the hub's packed launch code directly, keeping the
//     caller's chosen cog id when it names one of the eight physical cogs.
func (c *Cog) execCoginit() uint32 {
	var code uint32
	if c.InterpreterFlag {
		c.InterpreterFlag = false
		code = c.coginitInterpreted()
	} else {
		code = c.coginitNative()
	}

	var carry, zero bool
	return c.hub.HubOp(c, HubOpCogInit, code, &carry, &zero)
}

func (c *Cog) coginitInterpreted() uint32 {
	sp := uint16(c.popLong()) + 8
	descriptor := c.popLong()
	index := uint8(descriptor)
	argCount := descriptor >> 8

	sp = (sp + 3) &^ 3 // align up to a 4-byte boundary

	functionCode := c.ObjectFrame + uint16(index)*4
	functionOffset := c.hub.DirectReadWord(functionCode)
	functStack := c.hub.DirectReadWord(functionCode + 2)

	c.hub.DirectWriteWord(sp-8, c.ObjectFrame)
	c.hub.DirectWriteWord(sp-6, c.VariableFrame)
	c.hub.DirectWriteWord(sp-4, functionOffset)
	c.hub.DirectWriteWord(sp-2, functStack+4)

	for i := int(argCount) - 1; i >= 0; i-- {
		c.hub.DirectWriteLong(sp+uint16(i)*4, c.popLong())
	}

	return ((uint32(0xF004) & 0xFFFC) << 2) | (uint32(sp) << 16) | cogFreeSentinel
}

func (c *Cog) coginitNative() uint32 {
	bootParam := c.popLong()
	entryPoint := c.popLong()
	cogID := c.popLong()

	cogField := cogID
	if cogID >= 8 {
		cogField = cogFreeSentinel
	}

	return ((entryPoint & 0xFFFC) << 2) | ((bootParam & 0xFFFC) << 16) | cogField
}
