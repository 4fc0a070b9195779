// cogmon is an interactive single-cog inspector: load a hub memory
// image, step or run a cog against it, and poke at registers and
// breakpoints from a raw-terminal REPL. Grounded on the teacher's
// terminal_host.go (raw-mode stdin via golang.org/x/term) and
// debug_commands.go (a flat command-table monitor loop); never used by
// the cog package itself or its tests.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/oisee/spincog"
)

func main() {
	hubImage := flag.String("hub", "", "path to a raw 64KiB hub memory image")
	entry := flag.Uint("entry", 0, "entry PC to seed directly, bypassing boot (0 = run the boot loader)")
	flag.Parse()

	hub := cog.NewMemHub()
	if *hubImage != "" {
		if err := loadImage(hub, *hubImage); err != nil {
			log.Fatalf("cogmon: %v", err)
		}
	}

	logger := log.New(os.Stderr, "cog0: ", 0)
	c := cog.NewCog(0, hub, logger)

	if *entry != 0 {
		c.PC = uint16(*entry)
		c.State = cog.StateExecInterpreter
	}

	mon := &monitor{cog: c, hub: hub, breakpoints: map[uint16]bool{}}
	mon.run()
}

func loadImage(hub *cog.MemHub, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening hub image: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 1)
	var addr int
	for addr < cog.HubSize {
		n, err := f.Read(buf)
		if n == 1 {
			hub.DirectWriteByte(uint16(addr), buf[0])
			addr++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading hub image: %w", err)
		}
	}
	return nil
}

// monitor is the REPL state; it mirrors the teacher's MachineMonitor
// shape (a command table plus a reference to the thing being debugged)
// scaled down to one cog.
type monitor struct {
	cog         *cog.Cog
	hub         *cog.MemHub
	breakpoints map[uint16]bool
	running     bool
}

// termReadWriter adapts stdin/stdout into the single io.ReadWriter that
// term.NewTerminal wants.
type termReadWriter struct {
	r io.Reader
	w io.Writer
}

func (t termReadWriter) Read(p []byte) (int, error)  { return t.r.Read(p) }
func (t termReadWriter) Write(p []byte) (int, error) { return t.w.Write(p) }

func (m *monitor) run() {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not an interactive terminal (piped input, CI); fall back to a
		// plain, non-raw terminal so scripted sessions still work.
		m.loop(term.NewTerminal(termReadWriter{os.Stdin, os.Stdout}, "cogmon> "))
		return
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(termReadWriter{os.Stdin, os.Stdout}, "cogmon> ")
	m.loop(t)
}

func (m *monitor) loop(t *term.Terminal) {
	fmt.Fprintln(t, "cogmon - single-cog inspector. type 'help' for commands.")
	for {
		line, err := t.ReadLine()
		if err != nil {
			return
		}
		if m.dispatch(t, strings.TrimSpace(line)) {
			return
		}
	}
}

// dispatch executes one command line; it returns true when the session
// should end.
func (m *monitor) dispatch(t *term.Terminal, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "?":
		m.cmdHelp(t)
	case "step", "s":
		m.cmdStep(t, args)
	case "run", "r":
		m.cmdRun(t, args)
	case "regs":
		m.cmdRegs(t)
	case "mem", "m":
		m.cmdMem(t, args)
	case "break", "b":
		m.cmdBreak(t, args)
	case "clear":
		m.cmdClear(t, args)
	case "pins":
		m.cmdPins(t, args)
	case "quit", "q", "exit":
		return true
	default:
		fmt.Fprintf(t, "unknown command %q (try 'help')\n", cmd)
	}
	return false
}

func (m *monitor) cmdHelp(t *term.Terminal) {
	fmt.Fprintln(t, "step [n]        execute n ticks (default 1)")
	fmt.Fprintln(t, "run [maxticks]  execute until a breakpoint or maxticks ticks")
	fmt.Fprintln(t, "regs            show PC/frame registers and state")
	fmt.Fprintln(t, "mem addr [len]  dump len bytes (default 16) of hub ram from addr")
	fmt.Fprintln(t, "break addr      set a breakpoint on a PC value")
	fmt.Fprintln(t, "clear addr      clear a breakpoint")
	fmt.Fprintln(t, "pins a b        set pin bus A/B values")
	fmt.Fprintln(t, "quit            leave cogmon")
}

func (m *monitor) cmdStep(t *term.Terminal, args []string) {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	for i := 0; i < n; i++ {
		m.hub.Tick()
		m.cog.Step(nil)
	}
	m.cmdRegs(t)
}

func (m *monitor) cmdRun(t *term.Terminal, args []string) {
	max := 1_000_000
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			max = v
		}
	}
	for i := 0; i < max; i++ {
		m.hub.Tick()
		hit := m.cog.Step(func(pc uint16) bool { return m.breakpoints[pc] })
		if hit {
			fmt.Fprintf(t, "breakpoint at PC=0x%04X\n", m.cog.PC)
			m.cmdRegs(t)
			return
		}
	}
	fmt.Fprintf(t, "ran %d ticks without hitting a breakpoint\n", max)
}

func (m *monitor) cmdRegs(t *term.Terminal) {
	c := m.cog
	fmt.Fprintf(t, "state=%-16s pc=0x%04X stack=0x%04X local=0x%04X obj=0x%04X var=0x%04X\n",
		c.State, c.PC, c.StackFrame, c.LocalFrame, c.ObjectFrame, c.VariableFrame)
}

func (m *monitor) cmdMem(t *term.Terminal, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(t, "usage: mem addr [len]")
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 16)
	if err != nil {
		fmt.Fprintf(t, "bad address %q\n", args[0])
		return
	}
	length := 16
	if len(args) > 1 {
		if v, err := strconv.Atoi(args[1]); err == nil {
			length = v
		}
	}
	for i := 0; i < length; i++ {
		if i%16 == 0 {
			if i > 0 {
				fmt.Fprintln(t)
			}
			fmt.Fprintf(t, "%04X: ", uint16(addr)+uint16(i))
		}
		fmt.Fprintf(t, "%02X ", m.hub.DirectReadByte(uint16(addr)+uint16(i)))
	}
	fmt.Fprintln(t)
}

func (m *monitor) cmdBreak(t *term.Terminal, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(t, "usage: break addr")
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 16)
	if err != nil {
		fmt.Fprintf(t, "bad address %q\n", args[0])
		return
	}
	m.breakpoints[uint16(addr)] = true
	fmt.Fprintf(t, "breakpoint set at 0x%04X\n", addr)
}

func (m *monitor) cmdClear(t *term.Terminal, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(t, "usage: clear addr")
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 16)
	if err != nil {
		fmt.Fprintf(t, "bad address %q\n", args[0])
		return
	}
	delete(m.breakpoints, uint16(addr))
}

func (m *monitor) cmdPins(t *term.Terminal, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(t, "usage: pins a b")
		return
	}
	a, errA := strconv.ParseUint(args[0], 0, 32)
	b, errB := strconv.ParseUint(args[1], 0, 32)
	if errA != nil || errB != nil {
		fmt.Fprintln(t, "bad pin values")
		return
	}
	m.hub.SetPins(uint32(a), uint32(b))
}
