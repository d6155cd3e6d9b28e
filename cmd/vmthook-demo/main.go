//go:build amd64 && (linux || windows || darwin || freebsd)

package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"unsafe"

	"github.com/brahma-adshonor/vmthook"
	"github.com/brahma-adshonor/vmthook/logger"
)

const defaultConfig = `
[hook]
slot      = 3
patch_len = 12

[logger]
level = "info"
`

// routines of the fake object, all follow func() int
var routines = [][]byte{
	{0x31, 0xc0, 0xc3},                   // QueryInterface: xor eax, eax; ret
	{0xb8, 0x02, 0x00, 0x00, 0x00, 0xc3}, // AddRef: mov eax, 2; ret
	{0xb8, 0x01, 0x00, 0x00, 0x00, 0xc3}, // Release: mov eax, 1; ret
	{ // Compute: returns 45
		0x48, 0xc7, 0xc1, 0x2a, 0x00, 0x00, 0x00, // mov rcx, 42
		0x48, 0x83, 0xc1, 0x01, // add rcx, 1
		0x90,                   // nop
		0x48, 0x8d, 0x41, 0x02, // lea rax, [rcx+2]
		0xc3, // ret
	},
}

const routineAlign = 0x40

// comObject is laid out like a COM object, the table lives in code memory.
type comObject struct {
	vtbl uintptr
}

var original func() int

//go:noinline
func detour() int {
	return original() * 2
}

func main() {
	var (
		configPath string
		calls      int
		level      string
	)
	flag.StringVar(&configPath, "config", "", "hook config file path, empty for built-in")
	flag.IntVar(&calls, "calls", 5, "number of calls through the hooked slot")
	flag.StringVar(&level, "level", "", "override logger level")
	flag.Parse()

	data := []byte(defaultConfig)
	if configPath != "" {
		var err error
		data, err = os.ReadFile(configPath) // #nosec
		if err != nil {
			log.Fatalln(err)
		}
	}
	cfg, err := vmthook.LoadConfig(data)
	if err != nil {
		log.Fatalln(err)
	}
	if level != "" {
		_, err = logger.Parse(level)
		if err != nil {
			log.Fatalln(err)
		}
		cfg.Logger.Level = level
	}
	lg := logger.NewLevelLogger(cfg.LogLevel(), os.Stdout)

	platform := vmthook.SystemPlatform()
	mem, err := platform.Alloc(os.Getpagesize())
	if err != nil {
		log.Fatalln(err)
	}
	defer func() { _ = platform.Free(mem) }()
	obj := buildObject(mem)

	slot := cfg.Hook.Slot
	if slot >= len(routines) {
		log.Fatalf("slot %d out of range, object has %d slots\n", slot, len(routines))
	}
	code := routines[slot]
	n, err := vmthook.InstructionBoundary(code, cfg.Hook.PatchLen, 64)
	if err != nil {
		log.Fatalln("routine too short for patch:", err)
	}
	if n != cfg.Hook.PatchLen {
		log.Fatalf("patch_len %d cuts an instruction, next boundary is %d\n", cfg.Hook.PatchLen, n)
	}
	rel, err := vmthook.RelativeInstructions(code[:n], 64)
	if err != nil {
		log.Fatalln(err)
	}
	if len(rel) != 0 {
		log.Fatalf("relative instructions in patch window at %v\n", rel)
	}
	for _, line := range vmthook.Disassemble(code, 64) {
		fmt.Println(line)
	}

	fn, err := vmthook.LocateSlot(unsafe.Pointer(obj), slot)
	if err != nil {
		log.Fatalln(err)
	}
	var call func() int
	err = vmthook.BindFunc(&call, fn)
	if err != nil {
		log.Fatalln(err)
	}
	before := call()
	pristine := readCode(fn, n)

	hook, err := vmthook.NewFromConfig(unsafe.Pointer(obj), vmthook.FuncAddr(detour), cfg, lg)
	if err != nil {
		log.Fatalln(err)
	}
	gw, err := hook.Install()
	if err != nil {
		log.Fatalln(err)
	}
	err = vmthook.BindFunc(&original, gw)
	if err != nil {
		log.Fatalln(err)
	}
	for i := 0; i < calls; i++ {
		fmt.Printf("call %d: detour %d, original %d\n", i, call(), original())
	}

	err = hook.Restore()
	if err != nil {
		log.Fatalln(err)
	}
	if cfg.Hook.DeferRelease {
		err = hook.Release()
		if err != nil {
			log.Fatalln(err)
		}
	}
	after := call()
	fmt.Printf("before %d, after %d, bytes restored: %t\n",
		before, after, bytes.Equal(pristine, readCode(fn, n)))
}

// buildObject writes the routines and their table into mem.
func buildObject(mem []byte) *comObject {
	base := uintptr(unsafe.Pointer(&mem[0]))
	table := make([]uintptr, len(routines))
	for i, code := range routines {
		off := (i + 1) * routineAlign
		copy(mem[off:], code)
		table[i] = base + uintptr(off)
	}
	for i, fn := range table {
		*(*uintptr)(unsafe.Pointer(&mem[i*8])) = fn
	}
	return &comObject{vtbl: base}
}

func readCode(addr uintptr, n int) []byte {
	return append([]byte(nil), unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)...)
}
