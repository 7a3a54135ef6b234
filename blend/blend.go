// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package blend emulates the legacy fixed-function blend stage used by the
// per-pixel linked-list compositor.
//
// The model is the classic programmable-factor equation:
//
//	result = op(src * weight(srcFactor), dst * weight(dstFactor))
//
// Factor and Op enumerants start at 1, matching the 4-bit fields of the
// fragment control word where 0 is "never written". Dispatch goes through
// fixed 16-entry tables of pure functions, one slot per representable field
// value, so a control word is never a branch-miss and never an error: slots
// outside the defined sets resolve to [DiagnosticColor].
//
// Channel values are not clamped. Factors and operations may push results
// outside [0,1]; quantization to 8-bit storage clamps at that boundary
// instead.
package blend

import (
	"fmt"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Factor selects the weight applied to one blend input.
type Factor uint8

// Blend factors. Values start at 1 so that a zeroed control word is
// recognizably malformed rather than a valid "zero weight".
const (
	FactorZero Factor = iota + 1
	FactorOne
	FactorSourceColor
	FactorInverseSourceColor
	FactorSourceAlpha
	FactorInverseSourceAlpha
	FactorDestinationAlpha
	FactorInverseDestinationAlpha
	FactorDestinationColor
	FactorInverseDestinationColor
	FactorSourceAlphaSaturate
)

// Op combines the two weighted blend inputs.
type Op uint8

// Blend operations.
const (
	OpAdd Op = iota + 1
	OpSubtract
	OpReverseSubtract
	OpMin
	OpMax
)

// DiagnosticColor is produced whenever a control word carries an enumerant
// outside the defined Factor or Op sets: opaque red. Malformed blend state
// renders visibly instead of dropping the fragment.
var DiagnosticColor = f32.Vec4{1, 0, 0, 1}

// Valid reports whether f is one of the defined blend factors.
func (f Factor) Valid() bool {
	return f >= FactorZero && f <= FactorSourceAlphaSaturate
}

// Valid reports whether op is one of the defined blend operations.
func (op Op) Valid() bool {
	return op >= OpAdd && op <= OpMax
}

func (f Factor) String() string {
	switch f {
	case FactorZero:
		return "Zero"
	case FactorOne:
		return "One"
	case FactorSourceColor:
		return "SourceColor"
	case FactorInverseSourceColor:
		return "InverseSourceColor"
	case FactorSourceAlpha:
		return "SourceAlpha"
	case FactorInverseSourceAlpha:
		return "InverseSourceAlpha"
	case FactorDestinationAlpha:
		return "DestinationAlpha"
	case FactorInverseDestinationAlpha:
		return "InverseDestinationAlpha"
	case FactorDestinationColor:
		return "DestinationColor"
	case FactorInverseDestinationColor:
		return "InverseDestinationColor"
	case FactorSourceAlphaSaturate:
		return "SourceAlphaSaturate"
	default:
		return fmt.Sprintf("Factor(%d)", uint8(f))
	}
}

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "Add"
	case OpSubtract:
		return "Subtract"
	case OpReverseSubtract:
		return "ReverseSubtract"
	case OpMin:
		return "Min"
	case OpMax:
		return "Max"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

// WeightFunc computes the weight vector for one blend input from the
// unweighted source and destination colors.
type WeightFunc func(src, dst f32.Vec4) f32.Vec4

// CombineFunc folds the two weighted blend inputs into one color.
type CombineFunc func(src, dst f32.Vec4) f32.Vec4

// enumMask confines table lookups to the 4-bit control-word field width.
const enumMask = 0xF

var weightFuncs = [enumMask + 1]WeightFunc{
	FactorZero:                    weightZero,
	FactorOne:                     weightOne,
	FactorSourceColor:             weightSourceColor,
	FactorInverseSourceColor:      weightInverseSourceColor,
	FactorSourceAlpha:             weightSourceAlpha,
	FactorInverseSourceAlpha:      weightInverseSourceAlpha,
	FactorDestinationAlpha:        weightDestinationAlpha,
	FactorInverseDestinationAlpha: weightInverseDestinationAlpha,
	FactorDestinationColor:        weightDestinationColor,
	FactorInverseDestinationColor: weightInverseDestinationColor,
	FactorSourceAlphaSaturate:     weightSourceAlphaSaturate,
}

// OpReverseSubtract maps to the same function as OpSubtract. The hardware
// path this table emulates computed src-dst for both, and composited output
// depends on that behavior.
var combineFuncs = [enumMask + 1]CombineFunc{
	OpAdd:             combineAdd,
	OpSubtract:        combineSubtract,
	OpReverseSubtract: combineSubtract,
	OpMin:             combineMin,
	OpMax:             combineMax,
}

func init() {
	// Undefined slots render the diagnostic color.
	for i, fn := range weightFuncs {
		if fn == nil {
			weightFuncs[i] = diagnostic
		}
	}
	for i, fn := range combineFuncs {
		if fn == nil {
			combineFuncs[i] = diagnostic
		}
	}
}

// Weight returns the weight vector f produces for the given unweighted
// source and destination colors.
func Weight(f Factor, src, dst f32.Vec4) f32.Vec4 {
	return weightFuncs[f&enumMask](src, dst)
}

// Combine folds pre-weighted source and destination colors with op.
func Combine(op Op, src, dst f32.Vec4) f32.Vec4 {
	return combineFuncs[op&enumMask](src, dst)
}

// Blend evaluates the full equation for one fragment: weight both inputs,
// combine them, and force the result opaque. The destination of a composite
// pass is an opaque surface by the time fragments fold over it, so alpha is
// pinned to 1 regardless of the factors involved.
func Blend(op Op, srcFactor, dstFactor Factor, src, dst f32.Vec4) f32.Vec4 {
	s := mul(src, Weight(srcFactor, src, dst))
	d := mul(dst, Weight(dstFactor, src, dst))
	out := Combine(op, s, d)
	out[3] = 1
	return out
}

func weightZero(_, _ f32.Vec4) f32.Vec4 { return f32.Vec4{} }

func weightOne(_, _ f32.Vec4) f32.Vec4 { return f32.Vec4{1, 1, 1, 1} }

func weightSourceColor(src, _ f32.Vec4) f32.Vec4 { return src }

func weightInverseSourceColor(src, _ f32.Vec4) f32.Vec4 { return inv(src) }

func weightSourceAlpha(src, _ f32.Vec4) f32.Vec4 { return splat(src[3]) }

func weightInverseSourceAlpha(src, _ f32.Vec4) f32.Vec4 { return splat(1 - src[3]) }

func weightDestinationAlpha(_, dst f32.Vec4) f32.Vec4 { return splat(dst[3]) }

func weightInverseDestinationAlpha(_, dst f32.Vec4) f32.Vec4 { return splat(1 - dst[3]) }

func weightDestinationColor(_, dst f32.Vec4) f32.Vec4 { return dst }

func weightInverseDestinationColor(_, dst f32.Vec4) f32.Vec4 { return inv(dst) }

// weightSourceAlphaSaturate replicates min(srcA, 1-dstA) across the color
// channels with an alpha weight of 1, matching the fixed-function definition.
func weightSourceAlphaSaturate(src, dst f32.Vec4) f32.Vec4 {
	f := math32.Min(src[3], 1-dst[3])
	return f32.Vec4{f, f, f, 1}
}

func diagnostic(_, _ f32.Vec4) f32.Vec4 { return DiagnosticColor }

func combineAdd(src, dst f32.Vec4) f32.Vec4 {
	return f32.Vec4{src[0] + dst[0], src[1] + dst[1], src[2] + dst[2], src[3] + dst[3]}
}

func combineSubtract(src, dst f32.Vec4) f32.Vec4 {
	return f32.Vec4{src[0] - dst[0], src[1] - dst[1], src[2] - dst[2], src[3] - dst[3]}
}

func combineMin(src, dst f32.Vec4) f32.Vec4 {
	return f32.Vec4{
		math32.Min(src[0], dst[0]),
		math32.Min(src[1], dst[1]),
		math32.Min(src[2], dst[2]),
		math32.Min(src[3], dst[3]),
	}
}

func combineMax(src, dst f32.Vec4) f32.Vec4 {
	return f32.Vec4{
		math32.Max(src[0], dst[0]),
		math32.Max(src[1], dst[1]),
		math32.Max(src[2], dst[2]),
		math32.Max(src[3], dst[3]),
	}
}

func mul(a, b f32.Vec4) f32.Vec4 {
	return f32.Vec4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

func inv(v f32.Vec4) f32.Vec4 {
	return f32.Vec4{1 - v[0], 1 - v[1], 1 - v[2], 1 - v[3]}
}

func splat(a float32) f32.Vec4 {
	return f32.Vec4{a, a, a, a}
}
