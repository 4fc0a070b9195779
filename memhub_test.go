package cog

import "testing"

func TestMemHubReadWriteRoundTrip(t *testing.T) {
	h := NewMemHub()
	h.DirectWriteByte(0x10, 0xAB)
	if got := h.DirectReadByte(0x10); got != 0xAB {
		t.Fatalf("byte round trip = %#x, want 0xAB", got)
	}

	h.DirectWriteWord(0x20, 0xBEEF)
	if got := h.DirectReadWord(0x20); got != 0xBEEF {
		t.Fatalf("word round trip = %#x, want 0xBEEF", got)
	}

	h.DirectWriteLong(0x30, 0xDEADBEEF)
	if got := h.DirectReadLong(0x30); got != 0xDEADBEEF {
		t.Fatalf("long round trip = %#x, want 0xDEADBEEF", got)
	}
}

func TestMemHubLockLifecycle(t *testing.T) {
	h := NewMemHub()
	id := h.NewLock()
	if id == 0xFFFFFFFF {
		t.Fatalf("NewLock reported exhaustion on a fresh hub")
	}
	if prev := h.LockSet(id, true); prev {
		t.Fatalf("first LockSet previous = true, want false")
	}
	if prev := h.LockSet(id, true); !prev {
		t.Fatalf("second LockSet previous = false, want true")
	}
	h.LockReturn(id)
	if got := h.LockSet(id, false); got {
		t.Fatalf("lock value survived LockReturn")
	}
}

func TestMemHubHubOpCogInitAllocatesSequentialIDs(t *testing.T) {
	h := NewMemHub()
	caller := fakeCaller{id: 0}
	var carry, zero bool

	first := h.HubOp(caller, HubOpCogInit, 0, &carry, &zero)
	second := h.HubOp(caller, HubOpCogInit, 0, &carry, &zero)
	if first != 0 || second != 1 {
		t.Fatalf("HubOpCogInit ids = %d, %d, want 0, 1", first, second)
	}
}

type fakeCaller struct{ id uint32 }

func (f fakeCaller) ID() uint32 { return f.id }
