// exc is the driver binary: it reads a source file, runs the five core pipeline stages, writes
// the generated assembly to a temporary .s file, and shells out to the system toolchain to
// produce a native executable. The CLI surface is built on spf13/cobra layered over
// config.Load, so the same flags, config file, and environment variables all feed one Config
// value before a single run begins.
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"exc/internal/check"
	"exc/internal/codegen/amd64"
	"exc/internal/config"
	"exc/internal/diag"
	"exc/internal/frontend"
	"exc/internal/ir"
	"exc/internal/util"
)

var (
	flagConfigFile  string
	flagOutput      string
	flagVerbose     bool
	flagTokenStream bool
	flagPrintIR     bool
	flagKeepAsm     bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "exc <source-file> [output-name]",
		Short:        "exc compiles a small statically typed expression language to a native x86-64 executable",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			out := flagOutput
			if out == "" && len(args) == 2 {
				out = args[1]
			}
			return run(src, out)
		},
	}
	cmd.Flags().StringVarP(&flagConfigFile, "config", "c", "", "path to .exc.yaml config file")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output executable name")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print progress lines to stdout")
	cmd.Flags().BoolVar(&flagTokenStream, "ts", false, "print the token stream and exit")
	cmd.Flags().BoolVar(&flagPrintIR, "vb", false, "print generated IR to stdout")
	cmd.Flags().BoolVar(&flagKeepAsm, "keep-asm", false, "keep the generated .s file next to the output binary")
	return cmd
}

// run executes ReadSource -> Parse -> Check -> GenIR -> GenAssembly -> assemble+link. Lexical,
// syntax and type errors are printed to stderr here via printDiag before being returned. Every
// returned error is also reported on stderr by cobra, since SilenceErrors is not set, so those
// diagnostics appear twice.
func run(srcPath, outName string) error {
	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	cfg.Verbose = cfg.Verbose || flagVerbose
	cfg.KeepAsm = cfg.KeepAsm || flagKeepAsm

	if outName == "" {
		outName = util.DefaultOutputName(srcPath)
	}

	progress := func(format string, args ...interface{}) {
		if cfg.Verbose {
			fmt.Printf(format+"\n", args...)
		}
	}

	src, err := util.ReadSource(srcPath)
	if err != nil {
		return fmt.Errorf("could not read source file %q: %w", srcPath, err)
	}

	if flagTokenStream {
		out, err := frontend.TokenStream(src)
		if err != nil {
			printDiag(err)
			return err
		}
		fmt.Print(out)
		return nil
	}

	progress("parsing %s", srcPath)
	mod, err := frontend.ParseModule(src)
	if err != nil {
		printDiag(err)
		return err
	}

	progress("type checking")
	if err := check.Check(mod); err != nil {
		printDiag(err)
		return err
	}

	progress("generating IR")
	module := ir.GenModule(mod)
	if flagPrintIR {
		dumpIR(module)
	}

	progress("generating assembly")
	asm := amd64.Generate(module)

	asmPath := outName + ".s"
	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return diag.New(diag.Assembly, diag.Builtin, "could not write assembly file %q: %s", asmPath, err)
	}
	if !cfg.KeepAsm {
		defer os.Remove(asmPath)
	}

	progress("assembling and linking %s", outName)
	if err := assemble(cfg, asmPath, outName); err != nil {
		return diag.New(diag.Assembly, diag.Builtin, "%s", err)
	}

	progress("wrote %s", outName)
	return nil
}

// assemble invokes the system toolchain to turn the generated assembly into a native
// executable linked against the runtime object. gcc is used by default since it handles
// assembling and linking in one invocation and locates the C runtime's startup files; as+ld is
// supported for environments that set EXC_ASSEMBLER=as+ld explicitly.
func assemble(cfg config.Config, asmPath, outName string) error {
	runtimeObj := cfg.RuntimeObj
	switch cfg.Assembler {
	case "as+ld":
		objPath := asmPath + ".o"
		if out, err := exec.Command("as", "--64", "-o", objPath, asmPath).CombinedOutput(); err != nil {
			return fmt.Errorf("as: %w: %s", err, out)
		}
		defer os.Remove(objPath)
		args := []string{"-o", outName, objPath}
		if runtimeObj != "" {
			args = append(args, runtimeObj)
		}
		args = append(args, "-lc", "-dynamic-linker", "/lib64/ld-linux-x86-64.so.2")
		if out, err := exec.Command("ld", args...).CombinedOutput(); err != nil {
			return fmt.Errorf("ld: %w: %s", err, out)
		}
	default:
		args := []string{"-no-pie", "-o", outName, asmPath}
		if runtimeObj != "" {
			if _, err := os.Stat(runtimeObj); err == nil {
				args = append(args, runtimeObj)
			}
		}
		if out, err := exec.Command("gcc", args...).CombinedOutput(); err != nil {
			return fmt.Errorf("gcc: %w: %s", err, out)
		}
	}
	return nil
}

func printDiag(err error) {
	if d, ok := err.(*diag.Diagnostic); ok {
		d.Print()
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func dumpIR(m *ir.Module) {
	dump := func(fn *ir.Function) {
		fmt.Printf("%s:\n", fn.Name)
		for _, instr := range fn.Instrs {
			fmt.Printf("  %s\n", instr)
		}
	}
	for _, fn := range m.Functions {
		dump(fn)
	}
	dump(m.Main)
}
