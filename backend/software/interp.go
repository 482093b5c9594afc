package software

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/replay/backend"
)

// pointer addresses a typed region of byte-backed memory. Storage and
// uniform pointers alias the caller's binding slices directly; workgroup,
// private and function memory is allocated by the machine. All scalar
// accesses are little-endian.
type pointer struct {
	data     []byte
	offset   uint32
	inner    ir.TypeInner
	readOnly bool
}

// value is one interpreter value. Exactly one representation is active:
// scalars use kind and bits, composites use elems, pointers use ptr.
type value struct {
	kind  ir.ScalarKind
	bits  uint64
	elems []value
	ptr   *pointer
}

func u32Val(v uint32) value  { return value{kind: ir.ScalarUint, bits: uint64(v)} }
func i32Val(v int32) value   { return value{kind: ir.ScalarSint, bits: uint64(uint32(v))} }
func f32Val(v float32) value { return value{kind: ir.ScalarFloat, bits: uint64(math.Float32bits(v))} }

func boolVal(v bool) value {
	var bits uint64
	if v {
		bits = 1
	}
	return value{kind: ir.ScalarBool, bits: bits}
}

func (v value) asU32() uint32   { return uint32(v.bits) }
func (v value) asI32() int32    { return int32(uint32(v.bits)) }
func (v value) asF32() float32  { return math.Float32frombits(uint32(v.bits)) }
func (v value) asBool() bool    { return v.bits != 0 }
func (v value) isScalar() bool  { return v.elems == nil && v.ptr == nil }
func (v value) isPointer() bool { return v.ptr != nil }

func vec3u(x, y, z uint32) value {
	return value{elems: []value{u32Val(x), u32Val(y), u32Val(z)}}
}

// builtins carries the per-invocation built-in inputs.
type builtins struct {
	global [3]uint32
	local  [3]uint32
	group  [3]uint32
	num    [3]uint32
	index  uint32
}

// machine executes one dispatch. globals holds the storage and uniform
// pointers shared by every invocation; workgroup and private slots are
// filled per scope.
type machine struct {
	module    *ir.Module
	globals   []*pointer
	groups    [3]uint32
	workgroup [3]uint32
}

func (m *machine) typeInner(h ir.TypeHandle) (ir.TypeInner, error) {
	if int(h) >= len(m.module.Types) {
		return nil, fmt.Errorf("type handle %d out of range", h)
	}
	return m.module.Types[h].Inner, nil
}

// runWorkgroup executes every invocation of one workgroup. Workgroup
// memory is zeroed at workgroup entry, private memory at invocation
// entry.
func (m *machine) runWorkgroup(fn *ir.Function, group [3]uint32) error {
	wgGlobals := slices.Clone(m.globals)
	for i := range m.module.GlobalVariables {
		gv := &m.module.GlobalVariables[i]
		if gv.Space != ir.SpaceWorkGroup {
			continue
		}
		p, err := m.allocGlobal(gv)
		if err != nil {
			return err
		}
		wgGlobals[i] = p
	}

	for lz := uint32(0); lz < m.workgroup[2]; lz++ {
		for ly := uint32(0); ly < m.workgroup[1]; ly++ {
			for lx := uint32(0); lx < m.workgroup[0]; lx++ {
				globals := slices.Clone(wgGlobals)
				for i := range m.module.GlobalVariables {
					gv := &m.module.GlobalVariables[i]
					if gv.Space != ir.SpacePrivate {
						continue
					}
					p, err := m.allocGlobal(gv)
					if err != nil {
						return err
					}
					globals[i] = p
				}

				local := [3]uint32{lx, ly, lz}
				b := builtins{
					global: [3]uint32{
						group[0]*m.workgroup[0] + lx,
						group[1]*m.workgroup[1] + ly,
						group[2]*m.workgroup[2] + lz,
					},
					local: local,
					group: group,
					num:   m.groups,
					index: lz*m.workgroup[0]*m.workgroup[1] + ly*m.workgroup[0] + lx,
				}
				args, err := m.entryArgs(fn, b)
				if err != nil {
					return err
				}
				if _, err := m.call(fn, args, globals, b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// allocGlobal allocates zeroed backing memory for a workgroup or private
// global, applying its constant initializer when present.
func (m *machine) allocGlobal(gv *ir.GlobalVariable) (*pointer, error) {
	inner, err := m.typeInner(gv.Type)
	if err != nil {
		return nil, err
	}
	size, err := m.sizeOf(inner)
	if err != nil {
		return nil, err
	}
	p := &pointer{data: make([]byte, size), inner: inner}
	if gv.Init != nil {
		v, err := m.constantValue(*gv.Init)
		if err != nil {
			return nil, err
		}
		if err := m.store(p, v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// entryArgs builds the entry point arguments from built-in bindings. A
// struct argument composes its members from per-member bindings.
func (m *machine) entryArgs(fn *ir.Function, b builtins) ([]value, error) {
	args := make([]value, len(fn.Arguments))
	for i := range fn.Arguments {
		arg := &fn.Arguments[i]
		if arg.Binding != nil {
			v, err := builtinValue(arg.Binding, b)
			if err != nil {
				return nil, err
			}
			args[i] = v
			continue
		}
		inner, err := m.typeInner(arg.Type)
		if err != nil {
			return nil, err
		}
		st, ok := inner.(ir.StructType)
		if !ok {
			return nil, fmt.Errorf("%w: entry argument %q has no binding", backend.ErrUnsupportedShader, arg.Name)
		}
		members := make([]value, len(st.Members))
		for j := range st.Members {
			v, err := builtinValue(st.Members[j].Binding, b)
			if err != nil {
				return nil, err
			}
			members[j] = v
		}
		args[i] = value{elems: members}
	}
	return args, nil
}

func builtinValue(binding *ir.Binding, b builtins) (value, error) {
	if binding == nil {
		return value{}, fmt.Errorf("%w: entry argument member has no binding", backend.ErrUnsupportedShader)
	}
	bb, ok := (*binding).(ir.BuiltinBinding)
	if !ok {
		return value{}, fmt.Errorf("%w: entry argument binding %T", backend.ErrUnsupportedShader, *binding)
	}
	switch bb.Builtin {
	case ir.BuiltinGlobalInvocationID:
		return vec3u(b.global[0], b.global[1], b.global[2]), nil
	case ir.BuiltinLocalInvocationID:
		return vec3u(b.local[0], b.local[1], b.local[2]), nil
	case ir.BuiltinLocalInvocationIndex:
		return u32Val(b.index), nil
	case ir.BuiltinWorkGroupID:
		return vec3u(b.group[0], b.group[1], b.group[2]), nil
	case ir.BuiltinNumWorkGroups:
		return vec3u(b.num[0], b.num[1], b.num[2]), nil
	default:
		return value{}, fmt.Errorf("%w: builtin %d", backend.ErrUnsupportedShader, bb.Builtin)
	}
}

// call executes one function invocation and returns its result, nil for
// functions without one.
func (m *machine) call(fn *ir.Function, args []value, globals []*pointer, b builtins) (*value, error) {
	f := &frame{
		mach:     m,
		fn:       fn,
		args:     args,
		values:   make([]*value, len(fn.Expressions)),
		locals:   make([]pointer, len(fn.LocalVars)),
		globals:  globals,
		builtins: b,
	}
	for i := range fn.LocalVars {
		lv := &fn.LocalVars[i]
		inner, err := m.typeInner(lv.Type)
		if err != nil {
			return nil, err
		}
		size, err := m.sizeOf(inner)
		if err != nil {
			return nil, err
		}
		f.locals[i] = pointer{data: make([]byte, size), inner: inner}
	}
	for i := range fn.LocalVars {
		lv := &fn.LocalVars[i]
		if lv.Init == nil {
			continue
		}
		v, err := f.eval(*lv.Init)
		if err != nil {
			return nil, err
		}
		if err := m.store(&f.locals[i], v); err != nil {
			return nil, err
		}
	}
	if _, err := f.execBlock(fn.Body); err != nil {
		return nil, err
	}
	return f.ret, nil
}

// ==============================
// Frame and control flow
// ==============================

type control uint8

const (
	ctrlNone control = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

// frame is one function activation.
type frame struct {
	mach     *machine
	fn       *ir.Function
	args     []value
	values   []*value
	locals   []pointer
	globals  []*pointer
	builtins builtins
	ret      *value
}

func (f *frame) execBlock(block ir.Block) (control, error) {
	for i := range block {
		ctrl, err := f.execStmt(&block[i])
		if err != nil {
			return ctrlNone, err
		}
		if ctrl != ctrlNone {
			return ctrl, nil
		}
	}
	return ctrlNone, nil
}

func (f *frame) execStmt(st *ir.Statement) (control, error) {
	switch k := st.Kind.(type) {
	case ir.StmtEmit:
		// An emit inside a loop body executes once per iteration, so the
		// range is invalidated before re-evaluation: loads must observe
		// the current memory state, not the first iteration's.
		for h := k.Range.Start; h < k.Range.End && int(h) < len(f.values); h++ {
			f.values[h] = nil
		}
		for h := k.Range.Start; h < k.Range.End; h++ {
			if _, err := f.eval(h); err != nil {
				return ctrlNone, err
			}
		}
		return ctrlNone, nil

	case ir.StmtBlock:
		return f.execBlock(k.Block)

	case ir.StmtIf:
		cond, err := f.eval(k.Condition)
		if err != nil {
			return ctrlNone, err
		}
		if cond.asBool() {
			return f.execBlock(k.Accept)
		}
		return f.execBlock(k.Reject)

	case ir.StmtSwitch:
		return f.execSwitch(k)

	case ir.StmtLoop:
		return f.execLoop(k)

	case ir.StmtBreak:
		return ctrlBreak, nil

	case ir.StmtContinue:
		return ctrlContinue, nil

	case ir.StmtReturn:
		if k.Value != nil {
			v, err := f.eval(*k.Value)
			if err != nil {
				return ctrlNone, err
			}
			f.ret = &v
		}
		return ctrlReturn, nil

	case ir.StmtKill:
		return ctrlReturn, nil

	case ir.StmtBarrier:
		// Sequential execution keeps all prior writes visible.
		return ctrlNone, nil

	case ir.StmtStore:
		p, err := f.evalPointer(k.Pointer)
		if err != nil {
			return ctrlNone, err
		}
		v, err := f.eval(k.Value)
		if err != nil {
			return ctrlNone, err
		}
		return ctrlNone, f.mach.store(p, v)

	case ir.StmtCall:
		return ctrlNone, f.execCall(k)

	default:
		return ctrlNone, fmt.Errorf("%w: statement %T", backend.ErrUnsupportedShader, st.Kind)
	}
}

func (f *frame) execSwitch(k ir.StmtSwitch) (control, error) {
	sel, err := f.eval(k.Selector)
	if err != nil {
		return ctrlNone, err
	}
	start := -1
	deflt := -1
	for i := range k.Cases {
		switch v := k.Cases[i].Value.(type) {
		case ir.SwitchValueI32:
			if sel.asI32() == int32(v) {
				start = i
			}
		case ir.SwitchValueU32:
			if sel.asU32() == uint32(v) {
				start = i
			}
		case ir.SwitchValueDefault:
			deflt = i
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		start = deflt
	}
	if start < 0 {
		return ctrlNone, nil
	}
	for i := start; i < len(k.Cases); i++ {
		ctrl, err := f.execBlock(k.Cases[i].Body)
		if err != nil {
			return ctrlNone, err
		}
		if ctrl == ctrlBreak {
			return ctrlNone, nil
		}
		if ctrl != ctrlNone {
			return ctrl, nil
		}
		if !k.Cases[i].FallThrough {
			break
		}
	}
	return ctrlNone, nil
}

func (f *frame) execLoop(k ir.StmtLoop) (control, error) {
	for {
		ctrl, err := f.execBlock(k.Body)
		if err != nil {
			return ctrlNone, err
		}
		if ctrl == ctrlBreak {
			return ctrlNone, nil
		}
		if ctrl == ctrlReturn {
			return ctrl, nil
		}
		ctrl, err = f.execBlock(k.Continuing)
		if err != nil {
			return ctrlNone, err
		}
		if ctrl == ctrlReturn {
			return ctrl, nil
		}
		if k.BreakIf != nil {
			cond, err := f.eval(*k.BreakIf)
			if err != nil {
				return ctrlNone, err
			}
			if cond.asBool() {
				return ctrlNone, nil
			}
		}
	}
}

func (f *frame) execCall(k ir.StmtCall) error {
	if int(k.Function) >= len(f.mach.module.Functions) {
		return fmt.Errorf("function handle %d out of range", k.Function)
	}
	callee := &f.mach.module.Functions[k.Function]
	args := make([]value, len(k.Arguments))
	for i, h := range k.Arguments {
		v, err := f.eval(h)
		if err != nil {
			return err
		}
		args[i] = v
	}
	ret, err := f.mach.call(callee, args, f.globals, f.builtins)
	if err != nil {
		return err
	}
	if k.Result != nil {
		if ret == nil {
			return fmt.Errorf("call to %q produced no result", callee.Name)
		}
		f.values[*k.Result] = ret
	}
	return nil
}

// ==============================
// Expression evaluation
// ==============================

// eval evaluates one expression, caching the result. Emit statements
// drive evaluation order; operand references always hit either the cache
// or an order-independent expression kind.
func (f *frame) eval(h ir.ExpressionHandle) (value, error) {
	if int(h) >= len(f.values) {
		return value{}, fmt.Errorf("expression handle %d out of range", h)
	}
	if f.values[h] != nil {
		return *f.values[h], nil
	}
	v, err := f.evalKind(f.fn.Expressions[h].Kind)
	if err != nil {
		return value{}, err
	}
	f.values[h] = &v
	return v, nil
}

func (f *frame) evalPointer(h ir.ExpressionHandle) (*pointer, error) {
	v, err := f.eval(h)
	if err != nil {
		return nil, err
	}
	if v.ptr == nil {
		return nil, fmt.Errorf("expression %d is not a pointer", h)
	}
	return v.ptr, nil
}

func (f *frame) evalKind(kind ir.ExpressionKind) (value, error) {
	m := f.mach
	switch k := kind.(type) {
	case ir.Literal:
		return literalValue(k.Value)

	case ir.ExprConstant:
		return m.constantValue(k.Constant)

	case ir.ExprZeroValue:
		inner, err := m.typeInner(k.Type)
		if err != nil {
			return value{}, err
		}
		return m.zeroValue(inner)

	case ir.ExprCompose:
		elems := make([]value, len(k.Components))
		for i, c := range k.Components {
			v, err := f.eval(c)
			if err != nil {
				return value{}, err
			}
			elems[i] = v
		}
		return value{elems: elems}, nil

	case ir.ExprSplat:
		v, err := f.eval(k.Value)
		if err != nil {
			return value{}, err
		}
		elems := make([]value, k.Size)
		for i := range elems {
			elems[i] = v
		}
		return value{elems: elems}, nil

	case ir.ExprSwizzle:
		v, err := f.eval(k.Vector)
		if err != nil {
			return value{}, err
		}
		if v.elems == nil {
			return value{}, fmt.Errorf("swizzle of non-vector value")
		}
		elems := make([]value, k.Size)
		for i := range elems {
			c := int(k.Pattern[i])
			if c >= len(v.elems) {
				return value{}, fmt.Errorf("swizzle component %d out of range", c)
			}
			elems[i] = v.elems[c]
		}
		return value{elems: elems}, nil

	case ir.ExprAccess:
		base, err := f.eval(k.Base)
		if err != nil {
			return value{}, err
		}
		idx, err := f.eval(k.Index)
		if err != nil {
			return value{}, err
		}
		return f.access(base, idx.asU32())

	case ir.ExprAccessIndex:
		base, err := f.eval(k.Base)
		if err != nil {
			return value{}, err
		}
		return f.access(base, k.Index)

	case ir.ExprFunctionArgument:
		if int(k.Index) >= len(f.args) {
			return value{}, fmt.Errorf("argument %d out of range", k.Index)
		}
		return f.args[k.Index], nil

	case ir.ExprGlobalVariable:
		if int(k.Variable) >= len(f.globals) {
			return value{}, fmt.Errorf("global handle %d out of range", k.Variable)
		}
		p := f.globals[k.Variable]
		if p == nil {
			return value{}, fmt.Errorf("%w: global %d is unbound", backend.ErrUnsupportedShader, k.Variable)
		}
		return value{ptr: p}, nil

	case ir.ExprLocalVariable:
		if int(k.Variable) >= len(f.locals) {
			return value{}, fmt.Errorf("local %d out of range", k.Variable)
		}
		return value{ptr: &f.locals[k.Variable]}, nil

	case ir.ExprLoad:
		p, err := f.evalPointer(k.Pointer)
		if err != nil {
			return value{}, err
		}
		return m.load(p)

	case ir.ExprUnary:
		v, err := f.eval(k.Expr)
		if err != nil {
			return value{}, err
		}
		return unaryOp(k.Op, v)

	case ir.ExprBinary:
		left, err := f.eval(k.Left)
		if err != nil {
			return value{}, err
		}
		right, err := f.eval(k.Right)
		if err != nil {
			return value{}, err
		}
		return binaryOp(k.Op, left, right)

	case ir.ExprSelect:
		cond, err := f.eval(k.Condition)
		if err != nil {
			return value{}, err
		}
		if cond.asBool() {
			return f.eval(k.Accept)
		}
		return f.eval(k.Reject)

	case ir.ExprAs:
		v, err := f.eval(k.Expr)
		if err != nil {
			return value{}, err
		}
		return convertValue(v, k.Kind, k.Convert)

	case ir.ExprMath:
		return f.evalMath(k)

	case ir.ExprArrayLength:
		p, err := f.evalPointer(k.Array)
		if err != nil {
			return value{}, err
		}
		arr, ok := p.inner.(ir.ArrayType)
		if !ok {
			return value{}, fmt.Errorf("arrayLength of non-array pointer")
		}
		if arr.Size.Constant != nil {
			return u32Val(*arr.Size.Constant), nil
		}
		if arr.Stride == 0 {
			return value{}, fmt.Errorf("runtime array with zero stride")
		}
		avail := uint32(len(p.data)) - p.offset
		return u32Val(avail / arr.Stride), nil

	case ir.ExprCallResult:
		return value{}, fmt.Errorf("call result %d referenced before its call", k.Function)

	default:
		return value{}, fmt.Errorf("%w: expression %T", backend.ErrUnsupportedShader, kind)
	}
}

// access indexes a composite value or derives an element pointer.
func (f *frame) access(base value, idx uint32) (value, error) {
	if base.ptr == nil {
		if int(idx) >= len(base.elems) {
			return value{}, fmt.Errorf("index %d out of range for composite of %d", idx, len(base.elems))
		}
		return base.elems[idx], nil
	}

	m := f.mach
	p := base.ptr
	switch inner := p.inner.(type) {
	case ir.ArrayType:
		if inner.Stride == 0 {
			return value{}, fmt.Errorf("array with zero stride")
		}
		count := uint32(len(p.data)-int(p.offset)) / inner.Stride
		if inner.Size.Constant != nil {
			count = *inner.Size.Constant
		}
		if idx >= count {
			return value{}, fmt.Errorf("array index %d out of range for length %d", idx, count)
		}
		elem, err := m.typeInner(inner.Base)
		if err != nil {
			return value{}, err
		}
		return value{ptr: &pointer{
			data:     p.data,
			offset:   p.offset + idx*inner.Stride,
			inner:    elem,
			readOnly: p.readOnly,
		}}, nil

	case ir.VectorType:
		if idx >= uint32(inner.Size) {
			return value{}, fmt.Errorf("vector index %d out of range", idx)
		}
		return value{ptr: &pointer{
			data:     p.data,
			offset:   p.offset + idx*uint32(inner.Scalar.Width),
			inner:    inner.Scalar,
			readOnly: p.readOnly,
		}}, nil

	case ir.StructType:
		if int(idx) >= len(inner.Members) {
			return value{}, fmt.Errorf("struct member %d out of range", idx)
		}
		member := &inner.Members[idx]
		elem, err := m.typeInner(member.Type)
		if err != nil {
			return value{}, err
		}
		return value{ptr: &pointer{
			data:     p.data,
			offset:   p.offset + member.Offset,
			inner:    elem,
			readOnly: p.readOnly,
		}}, nil

	default:
		return value{}, fmt.Errorf("%w: indexed access through %T", backend.ErrUnsupportedShader, p.inner)
	}
}

// ==============================
// Memory access
// ==============================

// sizeOf computes the byte size of a type. Arrays use the lowered stride,
// structs their span, so sizes agree with WGSL storage layout.
func (m *machine) sizeOf(inner ir.TypeInner) (uint32, error) {
	switch t := inner.(type) {
	case ir.ScalarType:
		return uint32(t.Width), nil
	case ir.VectorType:
		return uint32(t.Size) * uint32(t.Scalar.Width), nil
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return 0, fmt.Errorf("%w: runtime-sized array outside storage", backend.ErrUnsupportedShader)
		}
		return *t.Size.Constant * t.Stride, nil
	case ir.StructType:
		return t.Span, nil
	default:
		return 0, fmt.Errorf("%w: size of %T", backend.ErrUnsupportedShader, inner)
	}
}

func (m *machine) load(p *pointer) (value, error) {
	switch t := p.inner.(type) {
	case ir.ScalarType:
		return loadScalar(p, t)

	case ir.VectorType:
		elems := make([]value, t.Size)
		for i := range elems {
			ep := pointer{data: p.data, offset: p.offset + uint32(i)*uint32(t.Scalar.Width), inner: t.Scalar}
			v, err := loadScalar(&ep, t.Scalar)
			if err != nil {
				return value{}, err
			}
			elems[i] = v
		}
		return value{elems: elems}, nil

	case ir.ArrayType:
		if t.Size.Constant == nil {
			return value{}, fmt.Errorf("%w: load of runtime-sized array", backend.ErrUnsupportedShader)
		}
		elemInner, err := m.typeInner(t.Base)
		if err != nil {
			return value{}, err
		}
		elems := make([]value, *t.Size.Constant)
		for i := range elems {
			ep := pointer{data: p.data, offset: p.offset + uint32(i)*t.Stride, inner: elemInner}
			v, err := m.load(&ep)
			if err != nil {
				return value{}, err
			}
			elems[i] = v
		}
		return value{elems: elems}, nil

	case ir.StructType:
		elems := make([]value, len(t.Members))
		for i := range t.Members {
			elemInner, err := m.typeInner(t.Members[i].Type)
			if err != nil {
				return value{}, err
			}
			ep := pointer{data: p.data, offset: p.offset + t.Members[i].Offset, inner: elemInner}
			v, err := m.load(&ep)
			if err != nil {
				return value{}, err
			}
			elems[i] = v
		}
		return value{elems: elems}, nil

	default:
		return value{}, fmt.Errorf("%w: load of %T", backend.ErrUnsupportedShader, p.inner)
	}
}

func (m *machine) store(p *pointer, v value) error {
	if p.readOnly {
		return fmt.Errorf("store through read-only binding")
	}
	switch t := p.inner.(type) {
	case ir.ScalarType:
		return storeScalar(p, t, v)

	case ir.VectorType:
		if len(v.elems) != int(t.Size) {
			return fmt.Errorf("vector store arity mismatch: %d != %d", len(v.elems), t.Size)
		}
		for i := range v.elems {
			ep := pointer{data: p.data, offset: p.offset + uint32(i)*uint32(t.Scalar.Width), inner: t.Scalar}
			if err := storeScalar(&ep, t.Scalar, v.elems[i]); err != nil {
				return err
			}
		}
		return nil

	case ir.ArrayType:
		if t.Size.Constant == nil || len(v.elems) != int(*t.Size.Constant) {
			return fmt.Errorf("array store arity mismatch")
		}
		elemInner, err := m.typeInner(t.Base)
		if err != nil {
			return err
		}
		for i := range v.elems {
			ep := pointer{data: p.data, offset: p.offset + uint32(i)*t.Stride, inner: elemInner}
			if err := m.store(&ep, v.elems[i]); err != nil {
				return err
			}
		}
		return nil

	case ir.StructType:
		if len(v.elems) != len(t.Members) {
			return fmt.Errorf("struct store arity mismatch: %d != %d", len(v.elems), len(t.Members))
		}
		for i := range t.Members {
			elemInner, err := m.typeInner(t.Members[i].Type)
			if err != nil {
				return err
			}
			ep := pointer{data: p.data, offset: p.offset + t.Members[i].Offset, inner: elemInner}
			if err := m.store(&ep, v.elems[i]); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: store of %T", backend.ErrUnsupportedShader, p.inner)
	}
}

func loadScalar(p *pointer, t ir.ScalarType) (value, error) {
	if t.Kind == ir.ScalarBool {
		if int(p.offset) >= len(p.data) {
			return value{}, fmt.Errorf("read at %d past end of %d-byte memory", p.offset, len(p.data))
		}
		return boolVal(p.data[p.offset] != 0), nil
	}
	if t.Width != 4 {
		return value{}, fmt.Errorf("%w: %d-byte scalar", backend.ErrUnsupportedShader, t.Width)
	}
	end := int(p.offset) + 4
	if end > len(p.data) {
		return value{}, fmt.Errorf("read at %d past end of %d-byte memory", p.offset, len(p.data))
	}
	bits := binary.LittleEndian.Uint32(p.data[p.offset:end])
	return value{kind: t.Kind, bits: uint64(bits)}, nil
}

func storeScalar(p *pointer, t ir.ScalarType, v value) error {
	if !v.isScalar() {
		return fmt.Errorf("scalar store of composite value")
	}
	if t.Kind == ir.ScalarBool {
		if int(p.offset) >= len(p.data) {
			return fmt.Errorf("write at %d past end of %d-byte memory", p.offset, len(p.data))
		}
		if v.asBool() {
			p.data[p.offset] = 1
		} else {
			p.data[p.offset] = 0
		}
		return nil
	}
	if t.Width != 4 {
		return fmt.Errorf("%w: %d-byte scalar", backend.ErrUnsupportedShader, t.Width)
	}
	end := int(p.offset) + 4
	if end > len(p.data) {
		return fmt.Errorf("write at %d past end of %d-byte memory", p.offset, len(p.data))
	}
	binary.LittleEndian.PutUint32(p.data[p.offset:end], uint32(v.bits))
	return nil
}

// ==============================
// Constants and literals
// ==============================

func literalValue(lit ir.LiteralValue) (value, error) {
	switch v := lit.(type) {
	case ir.LiteralU32:
		return u32Val(uint32(v)), nil
	case ir.LiteralI32:
		return i32Val(int32(v)), nil
	case ir.LiteralF32:
		return f32Val(float32(v)), nil
	case ir.LiteralBool:
		return boolVal(bool(v)), nil
	case ir.LiteralAbstractInt:
		return i32Val(int32(v)), nil
	case ir.LiteralAbstractFloat:
		return f32Val(float32(v)), nil
	default:
		return value{}, fmt.Errorf("%w: literal %T", backend.ErrUnsupportedShader, lit)
	}
}

func (m *machine) constantValue(h ir.ConstantHandle) (value, error) {
	if int(h) >= len(m.module.Constants) {
		return value{}, fmt.Errorf("constant handle %d out of range", h)
	}
	switch v := m.module.Constants[h].Value.(type) {
	case ir.ScalarValue:
		return value{kind: v.Kind, bits: v.Bits}, nil
	case ir.CompositeValue:
		elems := make([]value, len(v.Components))
		for i, c := range v.Components {
			ev, err := m.constantValue(c)
			if err != nil {
				return value{}, err
			}
			elems[i] = ev
		}
		return value{elems: elems}, nil
	default:
		return value{}, fmt.Errorf("%w: constant %T", backend.ErrUnsupportedShader, v)
	}
}

func (m *machine) zeroValue(inner ir.TypeInner) (value, error) {
	switch t := inner.(type) {
	case ir.ScalarType:
		return value{kind: t.Kind}, nil
	case ir.VectorType:
		elems := make([]value, t.Size)
		for i := range elems {
			elems[i] = value{kind: t.Scalar.Kind}
		}
		return value{elems: elems}, nil
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return value{}, fmt.Errorf("%w: zero value of runtime-sized array", backend.ErrUnsupportedShader)
		}
		elemInner, err := m.typeInner(t.Base)
		if err != nil {
			return value{}, err
		}
		elems := make([]value, *t.Size.Constant)
		for i := range elems {
			v, err := m.zeroValue(elemInner)
			if err != nil {
				return value{}, err
			}
			elems[i] = v
		}
		return value{elems: elems}, nil
	case ir.StructType:
		elems := make([]value, len(t.Members))
		for i := range t.Members {
			elemInner, err := m.typeInner(t.Members[i].Type)
			if err != nil {
				return value{}, err
			}
			v, err := m.zeroValue(elemInner)
			if err != nil {
				return value{}, err
			}
			elems[i] = v
		}
		return value{elems: elems}, nil
	default:
		return value{}, fmt.Errorf("%w: zero value of %T", backend.ErrUnsupportedShader, inner)
	}
}
