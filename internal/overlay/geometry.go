package overlay

import "fmt"

// discDivisor relates frame width to overlay diameter.
const discDivisor = 32

// Geometry is the disc mask and plane anchors planned for one frame format.
// A Geometry is never mutated after Plan returns it.
type Geometry struct {
	Width    int
	Height   int
	Diameter int
	Radius   int

	// Mask holds Diameter*Diameter cells in raster order, true inside the disc.
	Mask []bool

	// Plane anchors in samples from the start of the frame buffer. In I420
	// the first chroma plane is Cb and the second (w*h/4 further) is Cr.
	LumaOffset int
	CbOffset   int
	CrOffset   int

	// extent is one past the highest buffer index Draw writes to.
	extent int
}

// Inside reports whether mask cell (row, col) lies inside the disc.
func (g *Geometry) Inside(row, col int) bool {
	return g.Mask[row*g.Diameter+col]
}

// Extent returns the minimum buffer length Draw needs.
func (g *Geometry) Extent() int {
	return g.extent
}

// Draw burns c into buf at every mask cell inside the disc. Four luma cells
// share one chroma sample; the chroma sample is overwritten, not averaged.
func (g *Geometry) Draw(buf []byte, c YUV) {
	d := g.Diameter
	chromaStride := g.Width / 2
	for row := 0; row < d; row++ {
		luma := g.LumaOffset + row*g.Width
		chroma := (row / 2) * chromaStride
		for col := 0; col < d; col++ {
			if !g.Mask[row*d+col] {
				continue
			}
			buf[luma+col] = c.Y
			buf[g.CbOffset+chroma+col/2] = c.U
			buf[g.CrOffset+chroma+col/2] = c.V
		}
	}
}

// Allocator returns a mask of n cells or an error when it cannot.
type Allocator func(n int) ([]bool, error)

// maxMaskCells is the mask size of the widest accepted frame.
const maxMaskCells = (MaxDimension / discDivisor) * (MaxDimension / discDivisor)

func defaultAllocator(n int) ([]bool, error) {
	if n < 0 || n > maxMaskCells {
		return nil, fmt.Errorf("mask of %d cells outside [0, %d]", n, maxMaskCells)
	}
	return make([]bool, n), nil
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithAllocator replaces the mask allocator.
func WithAllocator(alloc Allocator) PlannerOption {
	return func(p *Planner) {
		p.alloc = alloc
	}
}

// Planner derives overlay geometry from a frame format.
type Planner struct {
	alloc Allocator
}

// NewPlanner creates a planner.
func NewPlanner(opts ...PlannerOption) *Planner {
	p := &Planner{alloc: defaultAllocator}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan validates format and builds a fresh geometry for it.
func (p *Planner) Plan(format FrameFormat) (*Geometry, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	w, h := format.Width, format.Height
	d := w / discDivisor
	r := d / 2
	if d <= 0 {
		return nil, invalidFormat("width %d yields an empty disc", w)
	}

	// Validate bounds w and h, so none of this overflows. Reject before
	// allocating when even the full d x d square would leave the frame.
	lumaEnd := w*d + d + (d-1)*w + d
	crEnd := w*h + w*r/2 + w*h/4 + r + ((d-1)/2)*(w/2) + (d-1)/2 + 1
	if lumaEnd > format.FrameSize() || crEnd > format.FrameSize() {
		return nil, invalidFormat("disc for %dx%d does not fit inside the frame", w, h)
	}

	cells := d * d
	mask, err := p.alloc(cells)
	if err != nil {
		return nil, NewOverlayError(ErrCodeMaskAllocation, "cannot allocate disc mask", err)
	}
	if len(mask) != cells {
		return nil, NewOverlayError(ErrCodeMaskAllocation, "allocator returned short mask", nil)
	}
	rasterizeDisc(mask, r)

	g := &Geometry{
		Width:      w,
		Height:     h,
		Diameter:   d,
		Radius:     r,
		Mask:       mask,
		LumaOffset: w*d + d,
		CbOffset:   w*h + w*r/2 + r,
		CrOffset:   w*h + w*r/2 + w*h/4 + r,
	}
	g.extent = g.computeExtent()

	if g.extent > format.FrameSize() {
		return nil, invalidFormat("disc for %dx%d does not fit inside the frame", w, h)
	}
	return g, nil
}

// rasterizeDisc walks local coordinates from (-r, -r), cx fastest, wrapping cx
// back to -r when it reaches +r. Cells exactly on the circle are outside.
// For odd diameters the walk is shorter than a mask row, so the disc skews by
// one column per row; this matches the established visual output.
func rasterizeDisc(mask []bool, r int) {
	r2 := r * r
	cx, cy := -r, -r
	for i := range mask {
		mask[i] = cx*cx+cy*cy < r2
		cx++
		if cx == r {
			cx = -r
			cy++
		}
	}
}

func (g *Geometry) computeExtent() int {
	d := g.Diameter
	chromaStride := g.Width / 2
	extent := 0
	for row := 0; row < d; row++ {
		for col := 0; col < d; col++ {
			if !g.Mask[row*d+col] {
				continue
			}
			chroma := (row/2)*chromaStride + col/2
			extent = max(extent,
				g.LumaOffset+row*g.Width+col+1,
				g.CbOffset+chroma+1,
				g.CrOffset+chroma+1,
			)
		}
	}
	return extent
}
