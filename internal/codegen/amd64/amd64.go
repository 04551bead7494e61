// Package amd64 implements the assembly generator: a naive one-variable-per-IR-name stack
// allocator and System V AMD64 calling convention, emitting GAS/AT&T syntax text.
//
// The overall shape -- collect a function's variables, assign frame slots, emit a prologue,
// lower instructions linearly, emit an epilogue -- needs no register allocator: every IR
// variable gets a fixed frame slot for its whole lifetime, and every operation round-trips
// through %rax/%rdx (and %rcx for division) rather than through a tracked register file. That trades register pressure
// for a generator simple enough to stay a single linear pass over each function's instructions.
package amd64

import (
	"fmt"

	"exc/internal/ir"
	"exc/internal/util"
)

// argRegs holds the System V AMD64 integer argument registers, in order.
var argRegs = [6]string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// intrinsics is the set of operator canonical names the generator lowers directly to
// instruction sequences rather than to a `call`. '==' and '!=' appear here under their
// type-specialized names (eq_int/eq_bool, ne_int/ne_bool); Int and Bool equality compile to the
// same cmpq/setcc sequence, since both are held as 64-bit integers.
var intrinsics = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"unary_-": true, "not": true,
	"eq_int": true, "eq_bool": true, "ne_int": true, "ne_bool": true,
}

// Generate lowers mod into a complete .s file: externs for the runtime built-ins, one label
// per user function, and a main entry point.
func Generate(mod *ir.Module) string {
	w := util.NewWriter()
	w.Write(".text\n")
	w.Write(".global main\n")
	for _, name := range []string{"print_int", "print_bool", "read_int"} {
		w.Write(".extern %s\n", name)
	}
	w.Write("\n")

	for _, fn := range mod.Functions {
		genFunction(w, fn)
		w.Write("\n")
	}
	genFunction(w, mod.Main)
	return w.String()
}

// genFunction emits one function's prologue, body, and epilogue.
func genFunction(w *util.Writer, fn *ir.Function) {
	slots, frameSize := assignSlots(fn)
	label := func(raw string) string { return labelFor(fn.Name, raw) }

	w.Label(fn.Name)
	w.Ins1("pushq", "%rbp")
	w.Ins2("movq", "%rsp", "%rbp")
	if frameSize > 0 {
		w.Ins2("subq", fmt.Sprintf("$%d", frameSize), "%rsp")
	}

	for i, p := range fn.Params {
		if i >= len(argRegs) {
			break // more than six parameters would need caller-side stack spill, unimplemented.
		}
		w.Ins2("movq", argRegs[i], slotOf(slots, p))
	}

	for _, instr := range fn.Instrs {
		genInstr(w, instr, slots, label)
	}
}

// genInstr lowers a single IR instruction to its AT&T-syntax sequence.
func genInstr(w *util.Writer, instr ir.Instr, slots map[string]int, label func(string) string) {
	switch instr.Op {
	case ir.OpLabel:
		w.Label(label(instr.Label))

	case ir.OpJump:
		w.Ins1("jmp", label(instr.Label))

	case ir.OpCondJump:
		w.Ins2("cmpq", "$0", slotOf(slots, instr.CondVar))
		w.Ins1("jne", label(instr.ThenLabel))
		w.Ins1("jmp", label(instr.ElseLabel))

	case ir.OpLoadIntConst:
		w.Ins2("movq", fmt.Sprintf("$%d", instr.IntVal), slotOf(slots, instr.Dest))

	case ir.OpLoadBoolConst:
		v := 0
		if instr.BoolVal {
			v = 1
		}
		w.Ins2("movq", fmt.Sprintf("$%d", v), slotOf(slots, instr.Dest))

	case ir.OpCopy:
		w.Ins2("movq", slotOf(slots, instr.Src), "%rax")
		w.Ins2("movq", "%rax", slotOf(slots, instr.Dest))

	case ir.OpCall:
		if intrinsics[instr.Callee] {
			genIntrinsic(w, instr, slots)
		} else {
			genCall(w, instr, slots)
		}

	case ir.OpReturn:
		if instr.Src != "" {
			w.Ins2("movq", slotOf(slots, instr.Src), "%rax")
		} else {
			// Only main's synthetic final return has no source variable; main returns 0.
			w.Ins2("movq", "$0", "%rax")
		}
		w.Ins2("movq", "%rbp", "%rsp")
		w.Ins1("popq", "%rbp")
		w.Ins0("ret")

	default:
		panic(fmt.Sprintf("internal error: unhandled IR op %v reached assembly generation", instr.Op))
	}
}

// genIntrinsic lowers an operator Call to its canonical instruction sequence.
func genIntrinsic(w *util.Writer, instr ir.Instr, slots map[string]int) {
	dst := slotOf(slots, instr.Dest)
	switch instr.Callee {
	case "unary_-":
		w.Ins2("movq", slotOf(slots, instr.Args[0]), "%rax")
		w.Ins1("negq", "%rax")
		w.Ins2("movq", "%rax", dst)

	case "not":
		w.Ins2("movq", slotOf(slots, instr.Args[0]), "%rax")
		w.Ins2("xorq", "$1", "%rax")
		w.Ins2("movq", "%rax", dst)

	case "+", "-", "*":
		w.Ins2("movq", slotOf(slots, instr.Args[0]), "%rax")
		w.Ins2("movq", slotOf(slots, instr.Args[1]), "%rdx")
		switch instr.Callee {
		case "+":
			w.Ins2("addq", "%rdx", "%rax")
		case "-":
			w.Ins2("subq", "%rdx", "%rax")
		case "*":
			w.Ins2("imulq", "%rdx", "%rax")
		}
		w.Ins2("movq", "%rax", dst)

	case "/", "%":
		w.Ins2("movq", slotOf(slots, instr.Args[0]), "%rax")
		w.Ins0("cqto")
		w.Ins2("movq", slotOf(slots, instr.Args[1]), "%rcx")
		w.Ins1("idivq", "%rcx")
		if instr.Callee == "/" {
			w.Ins2("movq", "%rax", dst)
		} else {
			w.Ins2("movq", "%rdx", dst)
		}

	case "<", "<=", ">", ">=", "eq_int", "eq_bool", "ne_int", "ne_bool":
		w.Ins2("movq", slotOf(slots, instr.Args[0]), "%rax")
		w.Ins2("movq", slotOf(slots, instr.Args[1]), "%rdx")
		w.Ins2("cmpq", "%rdx", "%rax")
		setcc := map[string]string{
			"<": "setl", "<=": "setle", ">": "setg", ">=": "setge",
			"eq_int": "sete", "eq_bool": "sete", "ne_int": "setne", "ne_bool": "setne",
		}[instr.Callee]
		w.Ins1(setcc, "%al")
		w.Ins2("movzbq", "%al", "%rax")
		w.Ins2("movq", "%rax", dst)

	default:
		panic(fmt.Sprintf("internal error: unknown intrinsic %q reached assembly generation", instr.Callee))
	}
}

// genCall lowers a call to a user-defined function or a runtime built-in. Arguments are
// materialized left-to-right before the call, matching System V argument-register order.
func genCall(w *util.Writer, instr ir.Instr, slots map[string]int) {
	for i, arg := range instr.Args {
		if i >= len(argRegs) {
			break // Non-goal: calls with more than six arguments.
		}
		w.Ins2("movq", slotOf(slots, arg), argRegs[i])
	}
	w.Ins1("call", instr.Callee)
	if instr.Dest != "" {
		w.Ins2("movq", "%rax", slotOf(slots, instr.Dest))
	}
}

// labelFor namespaces a function-local IR label into a globally unique assembly label: labels
// are function-unique at the IR level but share one flat symbol namespace once emitted as text.
func labelFor(funcName, raw string) string {
	return fmt.Sprintf(".L%s_%s", funcName, raw)
}

// assignSlots collects every distinct IR variable referenced by fn and assigns each an 8-byte
// frame slot, in first-appearance order, rounding the frame up to 16 bytes to keep %rsp aligned
// at call boundaries. Deterministic ordering (rather than Go map iteration order) keeps
// generated assembly stable across runs, which matters for diffing -vb output and for tests.
func assignSlots(fn *ir.Function) (map[string]int, int) {
	slots := map[string]int{}
	var order []string
	seen := map[string]bool{}
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		order = append(order, name)
	}

	for _, p := range fn.Params {
		add(p)
	}
	for _, instr := range fn.Instrs {
		add(instr.Dest)
		add(instr.Src)
		add(instr.CondVar)
		for _, a := range instr.Args {
			add(a)
		}
	}
	for i, name := range order {
		slots[name] = (i + 1) * 8
	}
	frame := len(order) * 8
	if frame%16 != 0 {
		frame += 8
	}
	return slots, frame
}

func slotOf(slots map[string]int, name string) string {
	return fmt.Sprintf("-%d(%%rbp)", slots[name])
}
