package layout

import (
	"math"

	"github.com/go-fresco/fresco/pkg/graphics"
)

// Constraints describe the box layout contract a parent passes to a child:
// the child must size itself within the min/max bounds on each axis.
type Constraints struct {
	MinWidth  float64
	MaxWidth  float64
	MinHeight float64
	MaxHeight float64
}

// Tight returns constraints that force exactly the given size.
func Tight(size graphics.Size) Constraints {
	return Constraints{
		MinWidth:  size.Width,
		MaxWidth:  size.Width,
		MinHeight: size.Height,
		MaxHeight: size.Height,
	}
}

// Loose returns constraints from zero up to the given size.
func Loose(size graphics.Size) Constraints {
	return Constraints{
		MaxWidth:  size.Width,
		MaxHeight: size.Height,
	}
}

// Unbounded returns constraints with no maximum on either axis.
func Unbounded() Constraints {
	return Constraints{
		MaxWidth:  math.Inf(1),
		MaxHeight: math.Inf(1),
	}
}

// IsTight reports whether the constraints admit exactly one size.
func (c Constraints) IsTight() bool {
	return c.MinWidth == c.MaxWidth && c.MinHeight == c.MaxHeight
}

// HasBoundedWidth reports whether MaxWidth is finite.
func (c Constraints) HasBoundedWidth() bool {
	return !math.IsInf(c.MaxWidth, 1)
}

// HasBoundedHeight reports whether MaxHeight is finite.
func (c Constraints) HasBoundedHeight() bool {
	return !math.IsInf(c.MaxHeight, 1)
}

// Constrain returns the size closest to the given size satisfying the
// constraints.
func (c Constraints) Constrain(size graphics.Size) graphics.Size {
	return graphics.Size{
		Width:  clamp(size.Width, c.MinWidth, c.MaxWidth),
		Height: clamp(size.Height, c.MinHeight, c.MaxHeight),
	}
}

// Biggest returns the largest size satisfying the constraints.
func (c Constraints) Biggest() graphics.Size {
	return c.Constrain(graphics.Size{Width: math.Inf(1), Height: math.Inf(1)})
}

// Smallest returns the smallest size satisfying the constraints.
func (c Constraints) Smallest() graphics.Size {
	return c.Constrain(graphics.Size{})
}

// Deflate returns the constraints reduced by the given edge amounts, used
// when a parent reserves space (padding) before laying out a child.
func (c Constraints) Deflate(horizontal, vertical float64) Constraints {
	deflatedMinWidth := math.Max(0, c.MinWidth-horizontal)
	deflatedMinHeight := math.Max(0, c.MinHeight-vertical)
	return Constraints{
		MinWidth:  deflatedMinWidth,
		MaxWidth:  math.Max(deflatedMinWidth, c.MaxWidth-horizontal),
		MinHeight: deflatedMinHeight,
		MaxHeight: math.Max(deflatedMinHeight, c.MaxHeight-vertical),
	}
}

// Loosen returns the constraints with the minimums removed.
func (c Constraints) Loosen() Constraints {
	return Constraints{MaxWidth: c.MaxWidth, MaxHeight: c.MaxHeight}
}

// Enforce returns constraints that respect the given constraints' bounds
// while staying as close to the receiver as possible.
func (c Constraints) Enforce(other Constraints) Constraints {
	return Constraints{
		MinWidth:  clamp(c.MinWidth, other.MinWidth, other.MaxWidth),
		MaxWidth:  clamp(c.MaxWidth, other.MinWidth, other.MaxWidth),
		MinHeight: clamp(c.MinHeight, other.MinHeight, other.MaxHeight),
		MaxHeight: clamp(c.MaxHeight, other.MinHeight, other.MaxHeight),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
