package software

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/gogpu/naga/ir"

	"github.com/gogpu/replay/backend"
)

// unaryOp applies a unary operator, componentwise for vectors.
func unaryOp(op ir.UnaryOperator, v value) (value, error) {
	if v.elems != nil {
		elems := make([]value, len(v.elems))
		for i := range v.elems {
			e, err := unaryOp(op, v.elems[i])
			if err != nil {
				return value{}, err
			}
			elems[i] = e
		}
		return value{elems: elems}, nil
	}
	switch op {
	case ir.UnaryNegate:
		switch v.kind {
		case ir.ScalarFloat:
			return f32Val(-v.asF32()), nil
		case ir.ScalarSint:
			return i32Val(-v.asI32()), nil
		case ir.ScalarUint:
			return u32Val(-v.asU32()), nil
		}
	case ir.UnaryLogicalNot:
		return boolVal(!v.asBool()), nil
	case ir.UnaryBitwiseNot:
		switch v.kind {
		case ir.ScalarUint:
			return u32Val(^v.asU32()), nil
		case ir.ScalarSint:
			return i32Val(^v.asI32()), nil
		}
	}
	return value{}, fmt.Errorf("%w: unary op %d on kind %d", backend.ErrUnsupportedShader, op, v.kind)
}

// binaryOp applies a binary operator. Vector operands work componentwise;
// a scalar operand against a vector broadcasts.
func binaryOp(op ir.BinaryOperator, a, b value) (value, error) {
	if a.elems != nil || b.elems != nil {
		n := len(a.elems)
		if n == 0 {
			n = len(b.elems)
		}
		if a.elems != nil && b.elems != nil && len(a.elems) != len(b.elems) {
			return value{}, fmt.Errorf("binary op arity mismatch: %d != %d", len(a.elems), len(b.elems))
		}
		elems := make([]value, n)
		for i := range elems {
			ea, eb := a, b
			if a.elems != nil {
				ea = a.elems[i]
			}
			if b.elems != nil {
				eb = b.elems[i]
			}
			e, err := binaryOp(op, ea, eb)
			if err != nil {
				return value{}, err
			}
			elems[i] = e
		}
		return value{elems: elems}, nil
	}
	return scalarBinary(op, a, b)
}

func scalarBinary(op ir.BinaryOperator, a, b value) (value, error) {
	switch op {
	case ir.BinaryLogicalAnd:
		return boolVal(a.asBool() && b.asBool()), nil
	case ir.BinaryLogicalOr:
		return boolVal(a.asBool() || b.asBool()), nil
	}

	switch a.kind {
	case ir.ScalarFloat:
		x, y := a.asF32(), b.asF32()
		switch op {
		case ir.BinaryAdd:
			return f32Val(x + y), nil
		case ir.BinarySubtract:
			return f32Val(x - y), nil
		case ir.BinaryMultiply:
			return f32Val(x * y), nil
		case ir.BinaryDivide:
			return f32Val(x / y), nil
		case ir.BinaryModulo:
			return f32Val(float32(math.Mod(float64(x), float64(y)))), nil
		case ir.BinaryEqual:
			return boolVal(x == y), nil
		case ir.BinaryNotEqual:
			return boolVal(x != y), nil
		case ir.BinaryLess:
			return boolVal(x < y), nil
		case ir.BinaryLessEqual:
			return boolVal(x <= y), nil
		case ir.BinaryGreater:
			return boolVal(x > y), nil
		case ir.BinaryGreaterEqual:
			return boolVal(x >= y), nil
		}

	case ir.ScalarUint:
		x, y := a.asU32(), b.asU32()
		switch op {
		case ir.BinaryAdd:
			return u32Val(x + y), nil
		case ir.BinarySubtract:
			return u32Val(x - y), nil
		case ir.BinaryMultiply:
			return u32Val(x * y), nil
		case ir.BinaryDivide:
			// Division by zero yields the dividend, per WGSL.
			if y == 0 {
				return u32Val(x), nil
			}
			return u32Val(x / y), nil
		case ir.BinaryModulo:
			if y == 0 {
				return u32Val(0), nil
			}
			return u32Val(x % y), nil
		case ir.BinaryEqual:
			return boolVal(x == y), nil
		case ir.BinaryNotEqual:
			return boolVal(x != y), nil
		case ir.BinaryLess:
			return boolVal(x < y), nil
		case ir.BinaryLessEqual:
			return boolVal(x <= y), nil
		case ir.BinaryGreater:
			return boolVal(x > y), nil
		case ir.BinaryGreaterEqual:
			return boolVal(x >= y), nil
		case ir.BinaryAnd:
			return u32Val(x & y), nil
		case ir.BinaryExclusiveOr:
			return u32Val(x ^ y), nil
		case ir.BinaryInclusiveOr:
			return u32Val(x | y), nil
		case ir.BinaryShiftLeft:
			return u32Val(x << (y & 31)), nil
		case ir.BinaryShiftRight:
			return u32Val(x >> (y & 31)), nil
		}

	case ir.ScalarSint:
		x, y := a.asI32(), b.asI32()
		switch op {
		case ir.BinaryAdd:
			return i32Val(x + y), nil
		case ir.BinarySubtract:
			return i32Val(x - y), nil
		case ir.BinaryMultiply:
			return i32Val(x * y), nil
		case ir.BinaryDivide:
			if y == 0 || (x == math.MinInt32 && y == -1) {
				return i32Val(x), nil
			}
			return i32Val(x / y), nil
		case ir.BinaryModulo:
			if y == 0 || (x == math.MinInt32 && y == -1) {
				return i32Val(0), nil
			}
			return i32Val(x % y), nil
		case ir.BinaryEqual:
			return boolVal(x == y), nil
		case ir.BinaryNotEqual:
			return boolVal(x != y), nil
		case ir.BinaryLess:
			return boolVal(x < y), nil
		case ir.BinaryLessEqual:
			return boolVal(x <= y), nil
		case ir.BinaryGreater:
			return boolVal(x > y), nil
		case ir.BinaryGreaterEqual:
			return boolVal(x >= y), nil
		case ir.BinaryAnd:
			return i32Val(x & y), nil
		case ir.BinaryExclusiveOr:
			return i32Val(x ^ y), nil
		case ir.BinaryInclusiveOr:
			return i32Val(x | y), nil
		case ir.BinaryShiftLeft:
			return i32Val(x << (uint32(y) & 31)), nil
		case ir.BinaryShiftRight:
			return i32Val(x >> (uint32(y) & 31)), nil
		}

	case ir.ScalarBool:
		switch op {
		case ir.BinaryEqual:
			return boolVal(a.asBool() == b.asBool()), nil
		case ir.BinaryNotEqual:
			return boolVal(a.asBool() != b.asBool()), nil
		}
	}
	return value{}, fmt.Errorf("%w: binary op %d on kind %d", backend.ErrUnsupportedShader, op, a.kind)
}

// convertValue implements As expressions. A nil width reinterprets the
// bits; a set width performs a numeric conversion. Only 32-bit targets
// are supported.
func convertValue(v value, kind ir.ScalarKind, width *uint8) (value, error) {
	if v.elems != nil {
		elems := make([]value, len(v.elems))
		for i := range v.elems {
			e, err := convertValue(v.elems[i], kind, width)
			if err != nil {
				return value{}, err
			}
			elems[i] = e
		}
		return value{elems: elems}, nil
	}
	if width == nil {
		return value{kind: kind, bits: v.bits & 0xffffffff}, nil
	}
	if *width != 4 && !(kind == ir.ScalarBool && *width == 1) {
		return value{}, fmt.Errorf("%w: conversion to %d-byte scalar", backend.ErrUnsupportedShader, *width)
	}

	switch kind {
	case ir.ScalarFloat:
		switch v.kind {
		case ir.ScalarFloat:
			return v, nil
		case ir.ScalarUint:
			return f32Val(float32(v.asU32())), nil
		case ir.ScalarSint:
			return f32Val(float32(v.asI32())), nil
		case ir.ScalarBool:
			if v.asBool() {
				return f32Val(1), nil
			}
			return f32Val(0), nil
		}
	case ir.ScalarUint:
		switch v.kind {
		case ir.ScalarFloat:
			return u32Val(uint32(v.asF32())), nil
		case ir.ScalarUint:
			return v, nil
		case ir.ScalarSint:
			return u32Val(uint32(v.asI32())), nil
		case ir.ScalarBool:
			return u32Val(uint32(v.bits & 1)), nil
		}
	case ir.ScalarSint:
		switch v.kind {
		case ir.ScalarFloat:
			return i32Val(int32(v.asF32())), nil
		case ir.ScalarUint:
			return i32Val(int32(v.asU32())), nil
		case ir.ScalarSint:
			return v, nil
		case ir.ScalarBool:
			return i32Val(int32(v.bits & 1)), nil
		}
	case ir.ScalarBool:
		return boolVal(v.bits != 0), nil
	}
	return value{}, fmt.Errorf("%w: conversion from kind %d to kind %d", backend.ErrUnsupportedShader, v.kind, kind)
}

// evalMath implements the supported built-in math functions. Scalar
// functions apply componentwise to vectors.
func (f *frame) evalMath(k ir.ExprMath) (value, error) {
	arg, err := f.eval(k.Arg)
	if err != nil {
		return value{}, err
	}
	var arg1, arg2 value
	if k.Arg1 != nil {
		if arg1, err = f.eval(*k.Arg1); err != nil {
			return value{}, err
		}
	}
	if k.Arg2 != nil {
		if arg2, err = f.eval(*k.Arg2); err != nil {
			return value{}, err
		}
	}

	switch k.Fun {
	case ir.MathDot:
		return mathDot(arg, arg1)
	case ir.MathLength:
		return mathLength(arg)
	case ir.MathDistance:
		diff, err := binaryOp(ir.BinarySubtract, arg, arg1)
		if err != nil {
			return value{}, err
		}
		return mathLength(diff)
	case ir.MathNormalize:
		length, err := mathLength(arg)
		if err != nil {
			return value{}, err
		}
		return binaryOp(ir.BinaryDivide, arg, length)
	}

	switch k.Fun {
	case ir.MathAbs, ir.MathFloor, ir.MathCeil, ir.MathRound, ir.MathTrunc, ir.MathFract,
		ir.MathSqrt, ir.MathInverseSqrt, ir.MathExp, ir.MathExp2, ir.MathLog, ir.MathLog2,
		ir.MathSin, ir.MathCos, ir.MathTan, ir.MathSign, ir.MathSaturate,
		ir.MathCountOneBits, ir.MathReverseBits, ir.MathCountTrailingZeros, ir.MathCountLeadingZeros:
		return mapComponents1(arg, func(a value) (value, error) { return mathUnary(k.Fun, a) })

	case ir.MathMin, ir.MathMax, ir.MathPow, ir.MathStep, ir.MathAtan2:
		return mapComponents2(arg, arg1, func(a, b value) (value, error) { return mathBinary(k.Fun, a, b) })

	case ir.MathClamp, ir.MathMix, ir.MathFma:
		return mapComponents3(arg, arg1, arg2, func(a, b, c value) (value, error) { return mathTernary(k.Fun, a, b, c) })

	default:
		return value{}, fmt.Errorf("%w: math function %d", backend.ErrUnsupportedShader, k.Fun)
	}
}

func mapComponents1(a value, fn func(value) (value, error)) (value, error) {
	if a.elems == nil {
		return fn(a)
	}
	elems := make([]value, len(a.elems))
	for i := range a.elems {
		v, err := fn(a.elems[i])
		if err != nil {
			return value{}, err
		}
		elems[i] = v
	}
	return value{elems: elems}, nil
}

func mapComponents2(a, b value, fn func(value, value) (value, error)) (value, error) {
	if a.elems == nil && b.elems == nil {
		return fn(a, b)
	}
	n := len(a.elems)
	if n == 0 {
		n = len(b.elems)
	}
	elems := make([]value, n)
	for i := range elems {
		ea, eb := a, b
		if a.elems != nil {
			ea = a.elems[i]
		}
		if b.elems != nil {
			eb = b.elems[i]
		}
		v, err := fn(ea, eb)
		if err != nil {
			return value{}, err
		}
		elems[i] = v
	}
	return value{elems: elems}, nil
}

func mapComponents3(a, b, c value, fn func(value, value, value) (value, error)) (value, error) {
	if a.elems == nil && b.elems == nil && c.elems == nil {
		return fn(a, b, c)
	}
	n := len(a.elems)
	if n == 0 {
		n = len(b.elems)
	}
	if n == 0 {
		n = len(c.elems)
	}
	elems := make([]value, n)
	for i := range elems {
		ea, eb, ec := a, b, c
		if a.elems != nil {
			ea = a.elems[i]
		}
		if b.elems != nil {
			eb = b.elems[i]
		}
		if c.elems != nil {
			ec = c.elems[i]
		}
		v, err := fn(ea, eb, ec)
		if err != nil {
			return value{}, err
		}
		elems[i] = v
	}
	return value{elems: elems}, nil
}

func mathUnary(fun ir.MathFunction, a value) (value, error) {
	if a.kind == ir.ScalarFloat {
		x := float64(a.asF32())
		switch fun {
		case ir.MathAbs:
			return f32Val(float32(math.Abs(x))), nil
		case ir.MathFloor:
			return f32Val(float32(math.Floor(x))), nil
		case ir.MathCeil:
			return f32Val(float32(math.Ceil(x))), nil
		case ir.MathRound:
			return f32Val(float32(math.RoundToEven(x))), nil
		case ir.MathTrunc:
			return f32Val(float32(math.Trunc(x))), nil
		case ir.MathFract:
			return f32Val(float32(x - math.Floor(x))), nil
		case ir.MathSqrt:
			return f32Val(float32(math.Sqrt(x))), nil
		case ir.MathInverseSqrt:
			return f32Val(float32(1 / math.Sqrt(x))), nil
		case ir.MathExp:
			return f32Val(float32(math.Exp(x))), nil
		case ir.MathExp2:
			return f32Val(float32(math.Exp2(x))), nil
		case ir.MathLog:
			return f32Val(float32(math.Log(x))), nil
		case ir.MathLog2:
			return f32Val(float32(math.Log2(x))), nil
		case ir.MathSin:
			return f32Val(float32(math.Sin(x))), nil
		case ir.MathCos:
			return f32Val(float32(math.Cos(x))), nil
		case ir.MathTan:
			return f32Val(float32(math.Tan(x))), nil
		case ir.MathSign:
			switch {
			case x > 0:
				return f32Val(1), nil
			case x < 0:
				return f32Val(-1), nil
			default:
				return f32Val(0), nil
			}
		case ir.MathSaturate:
			return f32Val(float32(math.Min(math.Max(x, 0), 1))), nil
		}
	}

	switch fun {
	case ir.MathAbs:
		if a.kind == ir.ScalarSint {
			x := a.asI32()
			if x < 0 {
				x = -x
			}
			return i32Val(x), nil
		}
		if a.kind == ir.ScalarUint {
			return a, nil
		}
	case ir.MathSign:
		if a.kind == ir.ScalarSint {
			switch x := a.asI32(); {
			case x > 0:
				return i32Val(1), nil
			case x < 0:
				return i32Val(-1), nil
			default:
				return i32Val(0), nil
			}
		}
	case ir.MathCountOneBits:
		return value{kind: a.kind, bits: uint64(bits.OnesCount32(a.asU32()))}, nil
	case ir.MathReverseBits:
		return value{kind: a.kind, bits: uint64(bits.Reverse32(a.asU32()))}, nil
	case ir.MathCountTrailingZeros:
		return value{kind: a.kind, bits: uint64(bits.TrailingZeros32(a.asU32()))}, nil
	case ir.MathCountLeadingZeros:
		return value{kind: a.kind, bits: uint64(bits.LeadingZeros32(a.asU32()))}, nil
	}
	return value{}, fmt.Errorf("%w: math function %d on kind %d", backend.ErrUnsupportedShader, fun, a.kind)
}

func mathBinary(fun ir.MathFunction, a, b value) (value, error) {
	switch fun {
	case ir.MathMin:
		less, err := scalarBinary(ir.BinaryLess, a, b)
		if err != nil {
			return value{}, err
		}
		if less.asBool() {
			return a, nil
		}
		return b, nil
	case ir.MathMax:
		less, err := scalarBinary(ir.BinaryLess, a, b)
		if err != nil {
			return value{}, err
		}
		if less.asBool() {
			return b, nil
		}
		return a, nil
	case ir.MathPow:
		if a.kind == ir.ScalarFloat {
			return f32Val(float32(math.Pow(float64(a.asF32()), float64(b.asF32())))), nil
		}
	case ir.MathStep:
		if a.kind == ir.ScalarFloat {
			if b.asF32() < a.asF32() {
				return f32Val(0), nil
			}
			return f32Val(1), nil
		}
	case ir.MathAtan2:
		if a.kind == ir.ScalarFloat {
			return f32Val(float32(math.Atan2(float64(a.asF32()), float64(b.asF32())))), nil
		}
	}
	return value{}, fmt.Errorf("%w: math function %d on kind %d", backend.ErrUnsupportedShader, fun, a.kind)
}

func mathTernary(fun ir.MathFunction, a, b, c value) (value, error) {
	switch fun {
	case ir.MathClamp:
		low, err := mathBinary(ir.MathMax, a, b)
		if err != nil {
			return value{}, err
		}
		return mathBinary(ir.MathMin, low, c)
	case ir.MathMix:
		if a.kind == ir.ScalarFloat {
			x, y, t := a.asF32(), b.asF32(), c.asF32()
			return f32Val(x*(1-t) + y*t), nil
		}
	case ir.MathFma:
		if a.kind == ir.ScalarFloat {
			return f32Val(float32(math.FMA(float64(a.asF32()), float64(b.asF32()), float64(c.asF32())))), nil
		}
	}
	return value{}, fmt.Errorf("%w: math function %d on kind %d", backend.ErrUnsupportedShader, fun, a.kind)
}

func mathDot(a, b value) (value, error) {
	if a.elems == nil || b.elems == nil || len(a.elems) != len(b.elems) {
		return value{}, fmt.Errorf("dot of non-vector operands")
	}
	prod, err := binaryOp(ir.BinaryMultiply, a, b)
	if err != nil {
		return value{}, err
	}
	sum := prod.elems[0]
	for i := 1; i < len(prod.elems); i++ {
		if sum, err = scalarBinary(ir.BinaryAdd, sum, prod.elems[i]); err != nil {
			return value{}, err
		}
	}
	return sum, nil
}

func mathLength(a value) (value, error) {
	if a.elems == nil {
		return mathUnary(ir.MathAbs, a)
	}
	sq, err := mathDot(a, a)
	if err != nil {
		return value{}, err
	}
	return mathUnary(ir.MathSqrt, sq)
}
