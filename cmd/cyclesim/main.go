// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command cyclesim is an interactive bench over the sample designs: peek
// and poke signals and step the clock from a prompt.
//
//	cyclesim -design gcd
//
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/db47h/cyclesim"
	"github.com/db47h/cyclesim/designs"
	"github.com/db47h/cyclesim/tester"
)

const (
	historyFile = ".cyclesim_history"
	prompt      = "sim> "
)

const helpText = `commands:
  symbols            list the design's ports
  peek <sig>         read a signal
  poke <sig> <val>   write an input (val accepts 0x/0b prefixes)
  step [n]           advance the clock by n cycles (default 1)
  count              show the user step count
  timeout <n>        set the idle cycle limit (0 disables)
  quit               exit
`

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

func buildDesign(name string) (*cyclesim.Sim, tester.Design, error) {
	switch name {
	case "gcd":
		return designs.GCD(16)
	case "counter":
		return designs.Counter(16)
	case "adder":
		return designs.Adder(16)
	case "ram":
		return designs.RAM(8, 4)
	case "accum":
		return designs.Accumulator()
	}
	return nil, tester.Design{}, fmt.Errorf("unknown design %q (gcd, counter, adder, ram, accum)", name)
}

func main() {
	design := flag.String("design", "gcd", "design to load: gcd, counter, adder, ram, accum")
	flag.Parse()

	sim, d, err := buildDesign(*design)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
	bench := tester.NewSingleBench(d, tester.NewEngineSim(sim))

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer(d))

	histPath := filepath.Join(os.TempDir(), historyFile)
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("cyclesim bench, design %s. Type help for commands, Ctrl+D exits.\n", blue(d.Name))
	for {
		in, err := line.Prompt(prompt)
		if err != nil { // io.EOF or liner.ErrPromptAborted
			fmt.Println()
			return
		}
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		line.AppendHistory(in)
		if in == "quit" || in == "exit" {
			return
		}
		if err := eval(bench, d, in); err != nil {
			fmt.Println(red(err.Error()))
		}
	}
}

func completer(d tester.Design) liner.Completer {
	words := []string{"symbols", "peek ", "poke ", "step ", "count", "timeout ", "help", "quit"}
	for _, p := range d.Ports {
		words = append(words, p.Name)
	}
	return func(line string) (c []string) {
		if i := strings.LastIndexByte(line, ' '); i >= 0 {
			for _, p := range d.Ports {
				if strings.HasPrefix(p.Name, line[i+1:]) {
					c = append(c, line[:i+1]+p.Name)
				}
			}
			return c
		}
		for _, w := range words {
			if strings.HasPrefix(w, line) {
				c = append(c, w)
			}
		}
		return c
	}
}

func eval(b *tester.SingleBench, d tester.Design, in string) error {
	args := strings.Fields(in)
	switch args[0] {
	case "help":
		fmt.Print(helpText)
	case "symbols":
		for _, p := range d.Ports {
			dir := "in "
			if p.Output {
				dir = "out"
			}
			fmt.Printf("  %s %-8s [%d]\n", dir, p.Name, p.Width)
		}
	case "peek":
		if len(args) != 2 {
			return fmt.Errorf("usage: peek <sig>")
		}
		v, err := b.PeekBits(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", args[1], blue("0x"+v.Text(16)))
	case "poke":
		if len(args) != 3 {
			return fmt.Errorf("usage: poke <sig> <val>")
		}
		v, ok := new(big.Int).SetString(args[2], 0)
		if !ok {
			return fmt.Errorf("invalid value %q", args[2])
		}
		return b.PokeBits(args[1], v)
	case "step":
		n := 1
		if len(args) > 1 {
			var err error
			if n, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid cycle count %q", args[1])
			}
		}
		if err := b.Step(d.Clock, n); err != nil {
			return err
		}
		cnt, _ := b.StepCount(d.Clock)
		fmt.Println(green("step " + strconv.Itoa(cnt)))
	case "count":
		cnt, _ := b.StepCount(d.Clock)
		fmt.Println(strconv.Itoa(cnt))
	case "timeout":
		if len(args) != 2 {
			return fmt.Errorf("usage: timeout <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid timeout %q", args[1])
		}
		return b.SetTimeout(d.Clock, n)
	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
	return nil
}
