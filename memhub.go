// memhub.go - In-memory reference Hub implementation (spec §6, §10.3).
//
// MemHub is a minimal, single-process stand-in for the eight-cog host's
// shared hub: a contiguous byte slice for hub RAM, little-endian access
// via encoding/binary, and a sync.RWMutex guarding it — the same shape
// as the teacher's MachineBus (machine_bus.go). It exists so the
// interpreter core and its tests have something concrete to run
// against; a real host's hub (pins, real cog scheduling, lock
// arbitration across goroutines) is outside this package's scope.
package cog

import (
	"encoding/binary"
	"sync"
)

// HubSize is the full 16-bit hub address space.
const HubSize = 1 << 16

// MemHub is a bare-bones Hub for single-process use: one cog driven at a
// time by a test or a small host program. A cog's own Cog.GetVideoData
// and Cog.Step are not safe to call concurrently with each other; see
// spec §9.
type MemHub struct {
	mu  sync.RWMutex
	ram [HubSize]byte

	ina, inb uint32
	counter  int64
	clockMode uint8

	locks [8]lockState

	nextCogID uint32
	stopped   map[uint32]bool
}

type lockState struct {
	allocated bool
	value     bool
}

// NewMemHub constructs an empty hub with all RAM zeroed.
func NewMemHub() *MemHub {
	return &MemHub{stopped: make(map[uint32]bool)}
}

func (h *MemHub) DirectReadByte(addr uint16) uint8 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ram[addr]
}

func (h *MemHub) DirectReadWord(addr uint16) uint16 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.readWordLocked(addr)
}

func (h *MemHub) DirectReadLong(addr uint16) uint32 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.readLongLocked(addr)
}

func (h *MemHub) readWordLocked(addr uint16) uint16 {
	if int(addr)+2 > HubSize {
		return uint16(h.ram[addr])
	}
	return binary.LittleEndian.Uint16(h.ram[addr:])
}

func (h *MemHub) readLongLocked(addr uint16) uint32 {
	if int(addr)+4 > HubSize {
		var buf [4]byte
		copy(buf[:], h.ram[addr:])
		return binary.LittleEndian.Uint32(buf[:])
	}
	return binary.LittleEndian.Uint32(h.ram[addr:])
}

func (h *MemHub) DirectWriteByte(addr uint16, v uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ram[addr] = v
}

func (h *MemHub) DirectWriteWord(addr uint16, v uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(addr)+2 > HubSize {
		h.ram[addr] = uint8(v)
		return
	}
	binary.LittleEndian.PutUint16(h.ram[addr:], v)
}

func (h *MemHub) DirectWriteLong(addr uint16, v uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(addr)+4 > HubSize {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], v)
		copy(h.ram[addr:], buf[:])
		return
	}
	binary.LittleEndian.PutUint32(h.ram[addr:], v)
}

// SetPins sets the raw state of pin buses A and B; test rigs and a host
// loop use this to simulate external input before ticking a cog waiting
// in WAIT_PEQ/WAIT_PNE.
func (h *MemHub) SetPins(a, b uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ina, h.inb = a, b
}

func (h *MemHub) INA() uint32 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ina
}

func (h *MemHub) INB() uint32 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.inb
}

// Tick advances the hub's free-running counter by one; a host loop calls
// this alongside every cog's Step.
func (h *MemHub) Tick() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counter++
}

func (h *MemHub) Counter() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counter
}

func (h *MemHub) CogID(caller Caller) uint32 {
	return caller.ID()
}

func (h *MemHub) Stop(cogID uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped[cogID] = true
}

// Stopped reports whether Stop has been called for cogID; tests use this
// to assert on COGSTOP and call-stack-underflow behavior.
func (h *MemHub) Stopped(cogID uint32) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stopped[cogID]
}

// HubOp handles HubOpCogInit by allocating the next sequential cog id
// and clearing its stopped flag; it does not itself construct or run a
// new Cog (cog scheduling belongs to the host, not the hub). Other ops
// (lock management) are also reachable here for callers that prefer to
// go through HubOp rather than NewLock/LockSet/LockReturn directly.
func (h *MemHub) HubOp(caller Caller, op HubOp, code uint32, carry, zero *bool) uint32 {
	switch op {
	case HubOpCogInit:
		h.mu.Lock()
		id := h.nextCogID
		h.nextCogID++
		delete(h.stopped, id)
		h.mu.Unlock()
		if carry != nil {
			*carry = false
		}
		if zero != nil {
			*zero = id == 0
		}
		return id
	case HubOpLockNew:
		return h.NewLock()
	case HubOpLockRet:
		h.LockReturn(code)
		return 0
	case HubOpLockSet:
		return boolMask(h.LockSet(code, true))
	case HubOpLockClr:
		return boolMask(h.LockSet(code, false))
	default:
		return 0xFFFFFFFF
	}
}

func (h *MemHub) NewLock() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.locks {
		if !h.locks[i].allocated {
			h.locks[i] = lockState{allocated: true}
			return uint32(i)
		}
	}
	return 0xFFFFFFFF
}

func (h *MemHub) LockReturn(id uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(id) < len(h.locks) {
		h.locks[id] = lockState{}
	}
}

func (h *MemHub) LockSet(id uint32, value bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(id) >= len(h.locks) {
		return false
	}
	prev := h.locks[id].value
	h.locks[id].value = value
	return prev
}

func (h *MemHub) SetClockMode(mode uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clockMode = mode
}

// ClockMode reports the last mode written via SetClockMode.
func (h *MemHub) ClockMode() uint8 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clockMode
}
