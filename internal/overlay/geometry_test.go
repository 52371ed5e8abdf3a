package overlay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func format(w, h, num, den int) FrameFormat {
	return FrameFormat{Width: w, Height: h, FrameRate: Fraction{Num: num, Den: den}}
}

func TestPlanDiameterAndRadius(t *testing.T) {
	tests := []struct {
		width, height int
		diameter      int
		radius        int
	}{
		{64, 64, 2, 1},
		{96, 96, 3, 1},
		{127, 96, 3, 1},
		{320, 240, 10, 5},
		{640, 480, 20, 10},
		{1280, 720, 40, 20},
		{1920, 1080, 60, 30},
	}

	planner := NewPlanner()
	for _, tt := range tests {
		g, err := planner.Plan(format(tt.width, tt.height, 30, 1))
		require.NoError(t, err, "%dx%d", tt.width, tt.height)
		assert.Equal(t, tt.diameter, g.Diameter, "%dx%d diameter", tt.width, tt.height)
		assert.Equal(t, tt.radius, g.Radius, "%dx%d radius", tt.width, tt.height)
		assert.Len(t, g.Mask, tt.diameter*tt.diameter)
	}
}

func TestPlanOffsets640x480(t *testing.T) {
	g, err := NewPlanner().Plan(format(640, 480, 30, 1))
	require.NoError(t, err)

	assert.Equal(t, 12820, g.LumaOffset)
	assert.Equal(t, 310410, g.CbOffset)
	assert.Equal(t, 387210, g.CrOffset)
	assert.LessOrEqual(t, g.Extent(), 640*480*3/2)
}

func TestPlanOffsets320x240(t *testing.T) {
	g, err := NewPlanner().Plan(format(320, 240, 25, 1))
	require.NoError(t, err)

	assert.Equal(t, 3210, g.LumaOffset)
	assert.Equal(t, 77605, g.CbOffset)
	assert.Equal(t, 96805, g.CrOffset)
}

func TestMaskSymmetry(t *testing.T) {
	for _, width := range []int{64, 128, 320, 640, 1280} {
		g, err := NewPlanner().Plan(format(width, 720, 30, 1))
		require.NoError(t, err)

		r := g.Radius
		at := func(cx, cy int) bool { return g.Inside(cy+r, cx+r) }

		for cy := -r + 1; cy < r; cy++ {
			for cx := -r + 1; cx < r; cx++ {
				want := at(cx, cy)
				assert.Equal(t, want, at(-cx, -cy), "w=%d point reflection (%d,%d)", width, cx, cy)
				assert.Equal(t, want, at(-cx, cy), "w=%d mirror x (%d,%d)", width, cx, cy)
				assert.Equal(t, want, at(cx, -cy), "w=%d mirror y (%d,%d)", width, cx, cy)
			}
		}
		// The -r row and column only touch the circle, never enter it.
		for i := -r; i < r; i++ {
			assert.False(t, at(-r, i), "w=%d column -r, cy=%d", width, i)
			assert.False(t, at(i, -r), "w=%d row -r, cx=%d", width, i)
		}
	}
}

func TestMaskBoundaryExcluded(t *testing.T) {
	g, err := NewPlanner().Plan(format(640, 480, 30, 1))
	require.NoError(t, err)
	r := g.Radius
	at := func(cx, cy int) bool { return g.Inside(cy+r, cx+r) }

	assert.True(t, at(0, 0), "center")
	assert.False(t, at(-6, -8), "6^2+8^2 == r^2 lies on the circle")
	assert.False(t, at(0, -10), "top of circle")
	assert.True(t, at(-6, -7))
	assert.True(t, at(0, -9))
	assert.True(t, at(9, 0))
}

func TestMaskOddDiameterWalk(t *testing.T) {
	g, err := NewPlanner().Plan(format(96, 96, 30, 1))
	require.NoError(t, err)

	want := []bool{
		false, false, false,
		true, false, false,
		false, false, false,
	}
	assert.Equal(t, want, g.Mask)
}

func TestPlanRejectsInvalidFormats(t *testing.T) {
	tests := []struct {
		name   string
		format FrameFormat
	}{
		{"narrow", format(63, 480, 30, 1)},
		{"short", format(640, 10, 30, 1)},
		{"zero denominator", format(640, 480, 30, 0)},
		{"negative denominator", format(640, 480, 30, -1)},
		{"zero fps", format(640, 480, 0, 1)},
		{"sub-1 fps", format(640, 480, 1, 2)},
		{"disc outside frame", format(6400, 64, 30, 1)},
		{"wider than maximum", format(MaxDimension+32, 480, 30, 1)},
		{"taller than maximum", format(640, MaxDimension+1, 30, 1)},
		{"int32 width", format(2147483647, 64, 30, 1)},
		{"overflowing width", format(1<<40, 64, 30, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewPlanner().Plan(tt.format)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrInvalidFormat)
			assert.NotErrorIs(t, err, ErrMaskAllocation)
		})
	}
}

func TestPlanAllocationFailure(t *testing.T) {
	boom := errors.New("out of memory")
	var requested int
	planner := NewPlanner(WithAllocator(func(n int) ([]bool, error) {
		requested = n
		return nil, boom
	}))

	g, err := planner.Plan(format(640, 480, 30, 1))
	require.Error(t, err)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrMaskAllocation)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 400, requested)
}

func TestPlanShortAllocation(t *testing.T) {
	planner := NewPlanner(WithAllocator(func(n int) ([]bool, error) {
		return make([]bool, n-1), nil
	}))

	_, err := planner.Plan(format(640, 480, 30, 1))
	assert.ErrorIs(t, err, ErrMaskAllocation)
}

func TestDrawWritesOnlyInsideDisc(t *testing.T) {
	g, err := NewPlanner().Plan(format(640, 480, 30, 1))
	require.NoError(t, err)

	buf := make([]byte, 640*480*3/2)
	c := YUV{Y: 200, U: 50, V: 250}
	g.Draw(buf, c)

	for row := 0; row < g.Diameter; row++ {
		for col := 0; col < g.Diameter; col++ {
			luma := buf[g.LumaOffset+row*640+col]
			if g.Inside(row, col) {
				assert.Equal(t, c.Y, luma, "inside (%d,%d)", row, col)
				chroma := (row/2)*320 + col/2
				assert.Equal(t, c.U, buf[g.CbOffset+chroma])
				assert.Equal(t, c.V, buf[g.CrOffset+chroma])
			} else {
				assert.Zero(t, luma, "outside (%d,%d)", row, col)
			}
		}
	}

	written := 0
	for _, b := range buf[:640*480] {
		if b != 0 {
			written++
		}
	}
	inside := 0
	for _, in := range g.Mask {
		if in {
			inside++
		}
	}
	assert.Equal(t, inside, written)
}

func TestPlanRejectsUnfitDiscBeforeAllocating(t *testing.T) {
	called := false
	planner := NewPlanner(WithAllocator(func(n int) ([]bool, error) {
		called = true
		return make([]bool, n), nil
	}))

	_, err := planner.Plan(format(MaxDimension, 64, 30, 1))
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.False(t, called, "allocator must not run for a disc that cannot fit")
}

func TestPlanLargestFormat(t *testing.T) {
	g, err := NewPlanner().Plan(format(MaxDimension, MaxDimension, 30, 1))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension/32, g.Diameter)
	assert.LessOrEqual(t, g.Extent(), MaxDimension*MaxDimension*3/2)
}

func TestDefaultAllocatorBounds(t *testing.T) {
	mask, err := defaultAllocator(400)
	require.NoError(t, err)
	assert.Len(t, mask, 400)

	for _, n := range []int{-1, maxMaskCells + 1, 1 << 62} {
		_, err := defaultAllocator(n)
		assert.Error(t, err, "n=%d", n)
	}
}
