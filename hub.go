// hub.go - Hub contract consumed by the interpreted cog core.
//
// The hub is the shared main-memory and peripheral substrate arbitrated
// across all eight cogs of the host system. The interpreter core never
// implements it — it only calls through this interface, the way the
// teacher's CPU cores call through Z80Bus/Bus32 rather than owning memory
// directly (cpu_z80.go, machine_bus.go).
package cog

// HubOp identifies a hub-level operation requested via HubOp (coginit,
// lock allocation, lock return, lock set/clear). Clock mode is set
// through SetClockMode, not through HubOp.
type HubOp uint8

const (
	HubOpCogInit HubOp = iota
	HubOpLockNew
	HubOpLockRet
	HubOpLockSet
	HubOpLockClr
)

// Hub is the external collaborator this package consumes. Implementations
// own the 16-bit hub RAM, the pin buses, the counter, the lock table, cog
// identity/control, and clock mode. See spec §6.
type Hub interface {
	// DirectReadByte/Word/Long and DirectWriteByte/Word/Long access the
	// shared, 16-bit-addressed hub RAM. Multi-byte values are little-endian.
	DirectReadByte(addr uint16) uint8
	DirectReadWord(addr uint16) uint16
	DirectReadLong(addr uint16) uint32
	DirectWriteByte(addr uint16, v uint8)
	DirectWriteWord(addr uint16, v uint16)
	DirectWriteLong(addr uint16, v uint32)

	// INA/INB return the current state of pin buses A and B.
	INA() uint32
	INB() uint32

	// Counter returns the host's monotonically incrementing tick count.
	Counter() int64

	// CogID returns the numeric id of the calling cog.
	CogID(caller Caller) uint32

	// Stop forces the named cog out of execution (called on call-stack
	// underflow and on opcode 0x21).
	Stop(cogID uint32)

	// HubOp performs a hub-level operation (COGINIT et al). carry/zero are
	// out-parameters mirroring the host ALU condition flags some hub ops
	// report through; code is the packed operand the caller assembled
	// (see §4.7 for the COGINIT encoding).
	HubOp(caller Caller, op HubOp, code uint32, carry, zero *bool) uint32

	// NewLock allocates a lock id, LockReturn releases it, and LockSet
	// sets/clears a lock's value, returning the previous value.
	NewLock() uint32
	LockReturn(id uint32)
	LockSet(id uint32, value bool) bool

	// SetClockMode writes the host clock mode register.
	SetClockMode(mode uint8)
}

// Caller identifies the requesting cog to the hub for ops that are
// per-cog (CogID, HubOp). Video-frame delivery (Cog.GetVideoData) is a
// cog-level handoff, not a hub operation; see spec §6, §9.
type Caller interface {
	ID() uint32
}
