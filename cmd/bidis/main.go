// Package main provides bidis, the Bifrost clause disassembler.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/bipack/config"
	"github.com/sarchlab/bipack/disasm"
	"github.com/sarchlab/bipack/fetch"
	"github.com/sarchlab/bipack/loader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main with its arguments and streams injected. It returns the exit
// code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bidis", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		gpu        = fs.String("gpu", "", "GPU name, e.g. G72")
		id         = fs.String("id", "", "Numeric GPU product ID")
		verbose    = fs.Bool("v", false, "Verbose output")
		showStats  = fs.Bool("stats", false, "Print an instruction fetch report")
		configPath = fs.String("config", "", "Path to debug options JSON file (default: $"+config.EnvVar+")")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bidis [options] --gpu <name>|--id <id> <shader.bin>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	gpuID, err := selectGPU(*gpu, *id)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if loader.Arch(gpuID) >= loader.ArchValhall {
		fmt.Fprintf(stderr, "Error: %s is a Valhall GPU, which this disassembler does not support\n",
			loader.GPUName(gpuID))
		return 1
	}

	var opts *config.Options
	if *configPath != "" {
		opts, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading debug config: %v\n", err)
			return 1
		}
	} else {
		opts, err = config.FromEnv()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: invalid debug config: %v\n", err)
		return 1
	}
	if *verbose {
		opts.Verbose = true
	}

	bin, err := loader.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error loading binary: %v\n", err)
		return 1
	}

	if opts.Verbose {
		fmt.Fprintf(stdout, "# %s, %d bytes", loader.GPUName(gpuID), len(bin.Code))
		if bin.Wrapped {
			fmt.Fprintf(stdout, " (unwrapped)")
		}
		fmt.Fprintln(stdout)
	}

	if err := disasm.Disassemble(stdout, bin.Code, opts.Verbose); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *showStats {
		report, err := fetch.NewUnit(bin.Code, fetch.DefaultConfig()).Run()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "\n# fetch: %s\n", report)
	}

	return 0
}

// selectGPU resolves the --gpu and --id flags. Exactly one must be given.
func selectGPU(name, id string) (uint32, error) {
	switch {
	case name != "" && id != "":
		return 0, fmt.Errorf("--gpu and --id are mutually exclusive")
	case name != "":
		return loader.GPUIDFromName(name)
	case id != "":
		return loader.ParseGPUID(id)
	default:
		return 0, fmt.Errorf("one of --gpu or --id is required")
	}
}
