// Package predicate implements the JIT predicate compiler and runtime:
// the user's scoring expression is compiled once per worker against four
// bindings (in, out, in_freq_dist_error, out_freq_dist_error), with
// constant-argument call sites specialized at compile time so the
// per-key hot loop never re-checks bounds or re-derives a value that
// cannot change across the search.
//
// Compilation is built on github.com/expr-lang/expr: the user's
// expression is parsed once, an AST-patch pass folds or specializes
// constant-argument bindings, and the result is compiled to a reusable
// bytecode program via expr's Compile/Run.
package predicate

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"

	"github.com/dzita/eye-search/internal/alphabet"
	"github.com/dzita/eye-search/internal/cipher"
	"github.com/dzita/eye-search/internal/searcherr"
)

// Env is the compile-time context a predicate is compiled against: the
// ciphertext input (constant across the whole search) and the registered
// language frequency vectors, indexed in CLI --language order.
type Env struct {
	Input     cipher.Input
	Languages [][]float64
}

// Slab is the per-invocation pointer table the compiled predicate reads
// through every key: the codec context pointer is rebound every key, and
// the output-frequency cache is a single write-once cell invalidated
// every key. The slab itself is reused across keys, only its codec
// pointer is rebound; the output-frequency vector is freshly allocated on
// the first out_freq_dist_error call of each key.
type Slab struct {
	input cipher.Input
	Codec cipher.CodecContext

	outFreq      []float64
	outFreqValid bool
}

// Reset rebinds the slab to a new key's codec context and invalidates the
// output-frequency cache, so evaluating the next key never sees stale
// data from the previous one.
func (s *Slab) Reset(codec cipher.CodecContext) {
	s.Codec = codec
	s.outFreqValid = false
}

// outFreqVector lazily materializes the current key's output-frequency
// distribution from all M messages on first use, and reuses it for the
// rest of this key's evaluation. Every (m, u) pair here comes from the
// loop bounds themselves (0..UnitCount(m)), never from user input, so the
// scan reads through the codec's unchecked accessor rather than paying a
// bounds check per unit.
func (s *Slab) outFreqVector() []float64 {
	if s.outFreqValid {
		return s.outFreq
	}
	var counts [alphabet.Size]float64
	for m := 0; m < s.input.M(); m++ {
		uc := s.input.UnitCount(m)
		for u := 0; u < uc; u++ {
			counts[s.Codec.OutputUnchecked(m, u)]++
		}
	}
	s.outFreq = alphabet.SortedNormalized(counts[:])
	s.outFreqValid = true
	return s.outFreq
}

// CompiledPredicate is a predicate JIT-compiled for one worker. Its slab
// closes over that worker's codec context, so it must never be shared
// across workers; each worker compiles its own copy.
type CompiledPredicate struct {
	program *vm.Program
	env     map[string]any
	slab    *Slab
}

// Slab exposes the per-key pointer table the caller must Reset before
// each Evaluate call.
func (p *CompiledPredicate) Slab() *Slab { return p.slab }

// Evaluate runs the compiled expression against the slab's current key
// and reports whether it matches (expression > 0).
func (p *CompiledPredicate) Evaluate() (bool, error) {
	result, err := expr.Run(p.program, p.env)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("predicate: expected bool result, got %T", result)
	}
	return b, nil
}

func inputFrequency(in cipher.Input) []float64 {
	var counts [alphabet.Size]float64
	for m := 0; m < in.M(); m++ {
		uc := in.UnitCount(m)
		for u := 0; u < uc; u++ {
			counts[in.At(m, u)]++
		}
	}
	return alphabet.SortedNormalized(counts[:])
}

// Compile compiles source against env, performing constant-argument
// specialization. source is the user's bare scoring expression; it is
// wrapped as "(source) > 0" and compiled with a boolean result
// requirement, so a non-numeric expression fails to type-check and
// surfaces as a PredicateCompile error rather than panicking later at
// evaluation time.
func Compile(source string, env *Env) (*CompiledPredicate, error) {
	slab := &Slab{input: env.Input}
	inFreq := inputFrequency(env.Input)

	envMap := map[string]any{
		"in": func(m, u int) int {
			if m < 0 || m >= env.Input.M() || u < 0 || u >= env.Input.UnitCount(m) {
				panic(fmt.Sprintf("in(%d,%d): index out of range", m, u))
			}
			return int(env.Input.At(m, u))
		},
		"out": func(m, u int) int {
			return int(slab.Codec.Output(m, u))
		},
		"in_freq_dist_error": func(l int) float64 {
			if l < 0 || l >= len(env.Languages) {
				panic(fmt.Sprintf("in_freq_dist_error(%d): unknown language index", l))
			}
			return alphabet.L1Distance(inFreq, env.Languages[l])
		},
		"out_freq_dist_error": func(l int) float64 {
			if l < 0 || l >= len(env.Languages) {
				panic(fmt.Sprintf("out_freq_dist_error(%d): unknown language index", l))
			}
			return alphabet.L1Distance(slab.outFreqVector(), env.Languages[l])
		},
	}

	spec := &specializer{env: env, inFreq: inFreq, slab: slab, envMap: envMap}
	full := fmt.Sprintf("(%s) > 0", source)

	program, err := expr.Compile(full, expr.Env(envMap), expr.AsBool(), expr.Patch(spec))
	if err != nil {
		return nil, searcherr.Wrapf(searcherr.PredicateCompile, err, "compiling predicate %q", source)
	}
	if spec.err != nil {
		return nil, searcherr.Wrapf(searcherr.PredicateCompile, spec.err, "specializing predicate %q", source)
	}

	return &CompiledPredicate{program: program, env: envMap, slab: slab}, nil
}

// specializer is the expr ast.Visitor that performs constant-argument
// specialization: calls whose argument positions are all compile-time
// integer constants are either folded to a literal (case 1), rewritten
// to call a per-call-site specialized closure injected into envMap
// (case 2), or rejected with a compile error when the constant indices
// are out of range (case 3).
type specializer struct {
	env    *Env
	inFreq []float64
	slab   *Slab
	envMap map[string]any
	err    error
}

func constIntArgs(args []ast.Node, n int) ([]int, bool) {
	if len(args) != n {
		return nil, false
	}
	out := make([]int, n)
	for i, a := range args {
		lit, ok := a.(*ast.IntegerNode)
		if !ok {
			return nil, false
		}
		out[i] = lit.Value
	}
	return out, true
}

func (s *specializer) reject(format string, args ...any) {
	if s.err == nil {
		s.err = fmt.Errorf(format, args...)
	}
}

func (s *specializer) Visit(node *ast.Node) {
	if s.err != nil {
		return
	}
	call, ok := (*node).(*ast.CallExpr)
	if !ok {
		return
	}
	ident, ok := call.Callee.(*ast.IdentifierNode)
	if !ok {
		return
	}

	switch ident.Value {
	case "in":
		args, ok := constIntArgs(call.Arguments, 2)
		if !ok {
			return
		}
		m, u := args[0], args[1]
		if m < 0 || m >= s.env.Input.M() || u < 0 || u >= s.env.Input.UnitCount(m) {
			s.reject("in(%d,%d): constant index out of range", m, u)
			return
		}
		// Case 1: in() never changes over the search, so a constant
		// call reduces to a literal byte.
		v := int(s.env.Input.At(m, u))
		ast.Patch(node, &ast.IntegerNode{Value: v})

	case "out":
		args, ok := constIntArgs(call.Arguments, 2)
		if !ok {
			return
		}
		m, u := args[0], args[1]
		if m < 0 || m >= s.env.Input.M() || u < 0 || u >= s.env.Input.UnitCount(m) {
			s.reject("out(%d,%d): constant index out of range", m, u)
			return
		}
		// Case 2: in-bounds constant indices specialize to a dedicated
		// per-call-site getter that skips the bounds check Output
		// performs on every call, since m and u were already validated
		// once, here, at compile time.
		name := fmt.Sprintf("__out_%d_%d", m, u)
		if _, exists := s.envMap[name]; !exists {
			slab := s.slab
			s.envMap[name] = func() int { return int(slab.Codec.OutputUnchecked(m, u)) }
		}
		ast.Patch(node, &ast.CallExpr{Callee: &ast.IdentifierNode{Value: name}})

	case "in_freq_dist_error":
		args, ok := constIntArgs(call.Arguments, 1)
		if !ok {
			return
		}
		l := args[0]
		if l < 0 || l >= len(s.env.Languages) {
			s.reject("in_freq_dist_error(%d): unknown language index", l)
			return
		}
		// Case 1: constant over the search.
		v := alphabet.L1Distance(s.inFreq, s.env.Languages[l])
		ast.Patch(node, &ast.FloatNode{Value: v})

	case "out_freq_dist_error":
		args, ok := constIntArgs(call.Arguments, 1)
		if !ok {
			return
		}
		l := args[0]
		if l < 0 || l >= len(s.env.Languages) {
			s.reject("out_freq_dist_error(%d): unknown language index", l)
			return
		}
		// Case 2: language index is baked in; the per-key output-frequency
		// scan stays dynamic, since it depends on the key currently being
		// tried (outFreqVector itself already reads through the codec's
		// unchecked accessor, since its own loop bounds are always valid).
		name := fmt.Sprintf("__outfreq_%d", l)
		if _, exists := s.envMap[name]; !exists {
			slab := s.slab
			langs := s.env.Languages
			s.envMap[name] = func() float64 { return alphabet.L1Distance(slab.outFreqVector(), langs[l]) }
		}
		ast.Patch(node, &ast.CallExpr{Callee: &ast.IdentifierNode{Value: name}})
	}
}
