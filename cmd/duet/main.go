// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/ezrec/duet/config"
	"github.com/ezrec/duet/cpu"
	"github.com/ezrec/duet/emulator"
	"github.com/ezrec/duet/internal"
	"github.com/ezrec/duet/io"
)

var log = commonlog.GetLogger("duet")

// defineFlags collects repeated '-D NAME=VALUE' options.
type defineFlags map[string]string

func (df defineFlags) String() string {
	var parts []string
	for k, v := range df {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (df defineFlags) Set(text string) error {
	name, value, ok := strings.Cut(text, "=")
	if !ok || len(name) == 0 {
		return fmt.Errorf("%q: expected NAME=VALUE", text)
	}
	df[name] = value
	return nil
}

// openInput opens a file for reading, '-' is stdin.
func openInput(name string) *os.File {
	if name == "-" {
		return os.Stdin
	}

	inf, err := os.Open(name)
	if err != nil {
		atexit.Fatalf("%v: %v", name, err)
	}
	atexit.Register(func() { inf.Close() })

	return inf
}

// openOutput creates a file for writing, '-' is stdout.
func openOutput(name string) *os.File {
	if name == "-" {
		return os.Stdout
	}

	ouf, err := os.Create(name)
	if err != nil {
		atexit.Fatalf("%v: %v", name, err)
	}
	atexit.Register(func() { ouf.Close() })

	return ouf
}

func main() {
	var compile string
	var configFile string
	var stepLimit int
	var trace string
	var report string
	var list bool
	var verbose bool
	defines := defineFlags{}

	flag.StringVar(&compile, "c", "", ".duet file to run ('-' for stdin)")
	flag.StringVar(&configFile, "f", "", "duet.toml configuration file")
	flag.IntVar(&stepLimit, "n", 0, "Step limit (0 is unlimited)")
	flag.StringVar(&trace, "t", "", "Trace channel traffic to file ('-' for stdout)")
	flag.StringVar(&report, "r", "", "Write CBOR report to file")
	flag.BoolVar(&list, "l", false, "List the assembled program, do not execute")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.Var(defines, "D", "Predefine an assembler equate NAME=VALUE (repeatable)")

	flag.Parse()

	if flag.NArg() != 0 {
		atexit.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	conf := &config.Config{Defines: map[string]string{}}
	if len(configFile) != 0 {
		var err error
		conf, err = config.Load(configFile)
		if err != nil {
			atexit.Fatalf("%v", err)
		}
	}

	// Explicit flags override the configuration file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "c":
			conf.Program = compile
		case "n":
			conf.StepLimit = stepLimit
		case "t":
			conf.Trace.Output = trace
		case "r":
			conf.Report.Output = report
		case "v":
			conf.Verbose = verbose
		}
	})
	for k, v := range defines {
		conf.Defines[k] = v
	}

	if conf.StepLimit < 0 {
		atexit.Fatalf("%v: step limit must not be negative", conf.StepLimit)
	}

	if conf.Verbose {
		commonlog.Configure(2, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = conf.Verbose
	emu.StepLimit = conf.StepLimit

	prog := &cpu.Program{}
	if len(conf.Program) != 0 {
		asm := &cpu.Assembler{Verbose: conf.Verbose}
		for k, v := range internal.IterSeq2Concat(emu.Defines(), maps.All(conf.Defines)) {
			asm.Predefine(k, v)
		}

		var err error
		prog, err = asm.Parse(openInput(conf.Program))
		if err != nil {
			atexit.Fatalf("%v: %v", conf.Program, err)
		}
		log.Infof("%v: %d instructions", conf.Program, prog.Len())
	}

	if list {
		err := cpu.Disassemble(prog, os.Stdout)
		if err != nil {
			atexit.Fatalf("%v", err)
		}
		atexit.Exit(0)
	}

	emu.Program = prog

	var taps []*io.Tap
	if len(conf.Trace.Output) != 0 {
		ouf := openOutput(conf.Trace.Output)
		for n, cp := range emu.Cpu {
			label := fmt.Sprintf("%d->%d", 1-n, n)
			tap := io.NewTap(cp.Inbox, label, ouf)
			cp.Inbox = tap
			taps = append(taps, tap)
		}
	}

	err := emu.Reset()
	if err != nil {
		atexit.Fatalf("%v", err)
	}

	err = emu.Run()
	for _, tap := range taps {
		if tap.Err != nil {
			log.Warningf("trace %v: %v", tap.Label, tap.Err)
		}
	}
	if err != nil {
		atexit.Fatalf("%v", err)
	}

	for _, cp := range emu.Cpu {
		fmt.Printf("instance %d: sent %d received %d pc %d %v\n",
			cp.Id, cp.Sent, cp.Received, cp.Pc, cp.State())
	}
	fmt.Printf("halt: %v after %d cycles, %d steps\n", emu.Halt(), emu.Cycles, emu.Steps)

	if len(conf.Report.Output) != 0 {
		data, err := emulator.MarshalReport(emu.Report())
		if err != nil {
			atexit.Fatalf("report: %v", err)
		}
		_, err = openOutput(conf.Report.Output).Write(data)
		if err != nil {
			atexit.Fatalf("%v: %v", conf.Report.Output, err)
		}
	}

	atexit.Exit(0)
}
