package cog

import "testing"

// testRig bundles a Cog with its backing MemHub for package tests, the
// way the teacher's CPU tests build a bus-plus-cpu pair per test.
type testRig struct {
	hub *MemHub
	cog *Cog
}

func newTestRig() *testRig {
	hub := NewMemHub()
	c := NewCog(0, hub, nil)
	// Give the value stack and frames room to work with well away from
	// program text written at low addresses by individual tests.
	c.State = StateExecInterpreter
	c.StackFrame = 0x4000
	c.LocalFrame = 0x4000
	c.VariableFrame = 0x2000
	c.ObjectFrame = 0x1000
	return &testRig{hub: hub, cog: c}
}

// writeProgram writes bytes starting at addr and points PC at addr.
func (r *testRig) writeProgram(addr uint16, bytes ...uint8) {
	for i, b := range bytes {
		r.hub.DirectWriteByte(addr+uint16(i), b)
	}
	r.cog.PC = addr
}

func TestNewCogResetsToBoot(t *testing.T) {
	hub := NewMemHub()
	c := NewCog(5, hub, nil)
	if c.State != StateBootInterpreter {
		t.Fatalf("new cog state = %v, want BOOT_INTERPRETER", c.State)
	}
	if c.ID() != 5 {
		t.Fatalf("ID() = %d, want 5", c.ID())
	}
}

func TestStepPacesExecThroughWait(t *testing.T) {
	r := newTestRig()
	// 0x35 == PUSH 0, a one-byte opcode with no further side effects.
	r.writeProgram(0x0100, 0x35)

	r.cog.Step(nil)
	if r.cog.State != StateWaitInterpreter {
		t.Fatalf("state after one exec tick = %v, want WAIT_INTERPRETER", r.cog.State)
	}
	if r.cog.StateCount != execPaceTicks {
		t.Fatalf("StateCount = %d, want %d", r.cog.StateCount, execPaceTicks)
	}

	for i := 0; i < execPaceTicks-1; i++ {
		r.cog.Step(nil)
		if r.cog.State != StateWaitInterpreter {
			t.Fatalf("state went %v early, after %d wait ticks", r.cog.State, i+1)
		}
	}
	r.cog.Step(nil)
	if r.cog.State != StateExecInterpreter {
		t.Fatalf("state after full pace = %v, want EXEC_INTERPRETER", r.cog.State)
	}
}

func TestWaitPEQResumesOnPinMatch(t *testing.T) {
	r := newTestRig()
	r.cog.State = StateWaitPEQ
	r.cog.WaitPort = PortA
	r.cog.MaskValue = 0xFF
	r.cog.TargetValue = 0xA5

	r.hub.SetPins(0x00, 0)
	r.cog.Step(nil)
	if r.cog.State != StateWaitPEQ {
		t.Fatalf("resumed before pins matched")
	}

	r.hub.SetPins(0xA5, 0)
	r.cog.Step(nil)
	if r.cog.State != StateExecInterpreter {
		t.Fatalf("state = %v, want EXEC_INTERPRETER after matching pins", r.cog.State)
	}
}

func TestGetVideoDataDeliversOnlyWhileWaiting(t *testing.T) {
	r := newTestRig()

	if _, _, delivered := r.cog.GetVideoData(); delivered {
		t.Fatalf("GetVideoData delivered when not in WAIT_VID")
	}
	if r.cog.FrameFlag() != FrameMiss {
		t.Fatalf("FrameFlag = %v, want FrameMiss when not waiting", r.cog.FrameFlag())
	}

	// WAIT VID (0x27) pops (colors, pixels) and stages them for the
	// eventual GetVideoData call.
	r.cog.pushLong(0x1234) // colors
	r.cog.pushLong(0x5678) // pixels
	r.writeProgram(0x0100, 0x27)
	r.cog.execOne()
	if r.cog.State != StateWaitVID {
		t.Fatalf("state after WAIT VID = %v, want WAIT_VID", r.cog.State)
	}

	colors, pixels, delivered := r.cog.GetVideoData()
	if !delivered || colors != 0x1234 || pixels != 0x5678 {
		t.Fatalf("GetVideoData = (%#x, %#x, %v), want (0x1234, 0x5678, true)", colors, pixels, delivered)
	}
	if r.cog.FrameFlag() != FrameHit {
		t.Fatalf("FrameFlag = %v, want FrameHit while waiting", r.cog.FrameFlag())
	}
	if r.cog.State != StateExecInterpreter {
		t.Fatalf("state after frame delivery = %v, want EXEC_INTERPRETER", r.cog.State)
	}

	// A second delivery attempt finds nothing pending.
	if _, _, delivered := r.cog.GetVideoData(); delivered {
		t.Fatalf("GetVideoData delivered the same frame twice")
	}
}
