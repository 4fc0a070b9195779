package cog

import "testing"

func TestLFSRForwardReverseRoundTrip(t *testing.T) {
	seeds := []uint32{1, 2, 0xACE1, 0xDEADBEEF, 0x80000000, 0xFFFFFFFF}
	for _, seed := range seeds {
		forward := lfsrForward(seed)
		back := lfsrReverse(forward)
		if back != seed {
			t.Errorf("lfsrReverse(lfsrForward(%#x)) = %#x, want %#x", seed, back, seed)
		}
	}
}

func TestLFSRNeverLocksAtZero(t *testing.T) {
	if lfsrForward(0) == 0 {
		t.Fatalf("lfsrForward(0) stayed at 0")
	}
	if lfsrReverse(0) == 0 {
		t.Fatalf("lfsrReverse(0) stayed at 0")
	}
}

// usingOp drives InplaceUsingOp with a single operator byte written right
// after the current PC, the way the memory-operation decoder does.
func (r *testRig) usingOp(original uint32, opByte uint8) usingResult {
	r.hub.DirectWriteByte(r.cog.PC, opByte)
	return r.cog.InplaceUsingOp(original)
}

func TestInplaceUsingCopy(t *testing.T) {
	r := newTestRig()
	r.cog.pushLong(0x42)
	res := r.usingOp(0x99, 0x00|0x80) // COPY, push bit set
	if res.stored != 0x42 || res.result != 0x42 || !res.push {
		t.Fatalf("COPY result = %+v", res)
	}
}

func TestInplaceUsingPostResetAndSet(t *testing.T) {
	r := newTestRig()
	res := r.usingOp(0x1234, 0x18) // post-reset
	if res.stored != 0 || res.result != 0x1234 {
		t.Fatalf("post-reset = %+v", res)
	}

	r2 := newTestRig()
	res2 := r2.usingOp(0x1234, 0x1C) // post-set
	if res2.stored != 0xFFFFFFFF || res2.result != 0x1234 {
		t.Fatalf("post-set = %+v", res2)
	}
}

func TestInplaceUsingSignExtend(t *testing.T) {
	r := newTestRig()
	res := r.usingOp(0xFF, 0x10|0x80) // sign-extend bit 7, push
	if res.result != 0xFFFFFFFF {
		t.Fatalf("sign-extend bit7(0xFF) = %#x, want 0xFFFFFFFF", res.result)
	}

	r2 := newTestRig()
	res2 := r2.usingOp(0x7FFF, 0x14|0x80) // sign-extend bit 15
	if res2.result != 0x00007FFF {
		t.Fatalf("sign-extend bit15(0x7FFF) = %#x, want 0x00007FFF", res2.result)
	}
}

func TestIncDecWidthsAndVariants(t *testing.T) {
	cases := []struct {
		name     string
		op       uint8
		original uint32
		wantNew  uint32
		wantRes  uint32
	}{
		{"pre-inc bit", 0x20, 0, 1, 1},
		{"pre-dec bit", 0x22, 1, 0, 0},
		{"post-inc bit", 0x24, 0, 1, 0},
		{"post-dec bit", 0x26, 1, 0, 1},
		{"pre-inc byte", 0x28, 0xFF, 0x00, 0x00},
		{"pre-inc word", 0x30, 0xFFFF, 0x0000, 0x0000},
		{"pre-inc long", 0x38, 0xFFFFFFFF, 0x00000000, 0x00000000},
	}
	for _, c := range cases {
		r := newTestRig()
		res := r.usingOp(c.original, c.op)
		if res.stored != c.wantNew {
			t.Errorf("%s: stored = %#x, want %#x", c.name, res.stored, c.wantNew)
		}
		if res.result != c.wantRes {
			t.Errorf("%s: result = %#x, want %#x", c.name, res.result, c.wantRes)
		}
	}
}

func TestInplaceUsingMathInPlace(t *testing.T) {
	r := newTestRig()
	r.cog.pushLong(5)
	// 0x40-0x5F is math-in-place, not swapped: original ADD stackVal.
	res := r.usingOp(10, 0x40|uint8(mathAdd))
	if res.stored != 15 {
		t.Fatalf("math-in-place ADD: stored = %d, want 15", res.stored)
	}
}

func TestInplaceUsingRepeatCompare(t *testing.T) {
	r := newTestRig()
	r.cog.pushLong(0)  // start
	r.cog.pushLong(10) // end
	// branch offset +5, packed single-byte form: encode 5 as packed signed.
	r.hub.DirectWriteByte(r.cog.PC+1, 5)
	res := r.usingOp(3, 0x02)
	if res.stored != 4 {
		t.Fatalf("REPEAT_COMPARE stored = %d, want 4", res.stored)
	}
	// PC advances past the opcode byte and the one packed-branch byte
	// (0 -> 2), then the taken branch adds the offset of 5.
	if r.cog.PC != 7 {
		t.Fatalf("PC = %#x, want 7 after taken branch with offset 5", r.cog.PC)
	}
}
