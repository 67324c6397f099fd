package scale

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiscretize(t *testing.T) {
	s := New("climb", -5, 5, BilinearGradient)

	tests := []struct {
		v    float64
		want int
	}{
		{-100, 0},
		{-5, 0},
		{0, 8},
		{4.99, 15},
		{5, 15},
		{100, 15},
		{math.NaN(), 0},
	}

	for i, test := range tests {
		if got := s.Discretize(test.v); got != test.want {
			t.Errorf("[%d] Discretize(%v) = %d, want %d", i, test.v, got, test.want)
		}
	}
}

func TestDiscretizeMonotonic(t *testing.T) {
	for _, s := range []*Scale{
		New("up", 0, 3000, DefaultGradient),
		NewZeroCentered("zero", -3, 8, BilinearGradient),
	} {
		prev := -1
		for v := -5000.0; v <= 5000.0; v += 0.5 {
			b := s.Discretize(v)
			if b < prev {
				t.Fatalf("%s: Discretize(%v) = %d, went backwards from %d", s, v, b, prev)
			}
			if b < 0 || b >= s.Buckets {
				t.Fatalf("%s: Discretize(%v) = %d, out of range", s, v, b)
			}
			prev = b
		}
	}
}

func TestDiscretizeDescending(t *testing.T) {
	s := New("time", 3600, 0, DefaultGradient)
	prev := s.Buckets
	for v := 0.0; v <= 3600.0; v += 10 {
		b := s.Discretize(v)
		assert.LessOrEqual(t, b, prev, "v=%v", v)
		prev = b
	}
	assert.Equal(t, s.Buckets-1, s.Discretize(0))
	assert.Equal(t, 0, s.Discretize(3600))
}

func TestDiscretizeZeroWidth(t *testing.T) {
	s := New("flat", 100, 100, DefaultGradient)
	for _, v := range []float64{-1, 0, 100, 1e9, math.Inf(1)} {
		assert.Equal(t, 0, s.Discretize(v))
	}
}

func TestZeroCentered(t *testing.T) {
	s := NewZeroCentered("climb", -2, 8, BilinearGradient)
	assert.Equal(t, 0.5, s.Normalize(0))
	assert.Equal(t, 0.25, s.Normalize(-1))
	assert.Equal(t, 0.75, s.Normalize(4))
}

func TestColor(t *testing.T) {
	s := New("alt", 0, 1000, Gradient{{0, 0, 0}, {200, 100, 0}})

	c := s.Color(500)
	assert.Equal(t, uint8(100), c.R)
	assert.Equal(t, uint8(50), c.G)
	assert.Equal(t, uint8(0xff), c.A)

	assert.Equal(t, s.Color(-10), s.Color(0))

	cols := s.Colors()
	assert.Len(t, cols, s.Buckets)
	assert.Equal(t, uint8(0), cols[0].R)
	assert.Equal(t, uint8(200), cols[len(cols)-1].R)
}

func TestTimeLabels(t *testing.T) {
	start := time.Date(2016, 7, 1, 10, 0, 0, 0, time.UTC)
	s := NewTime("time", start, 2*time.Hour, 3600)

	assert.Equal(t, "11:00", s.Format(0))
	assert.Equal(t, "12:30", s.Format(5400))
	assert.Equal(t, "42", New("x", 0, 1, nil).Format(42.2))
}

func TestRegistry(t *testing.T) {
	var nilReg Registry
	assert.Nil(t, nilReg.Get("climb"))

	r := Registry{"climb": New("climb", -5, 5, BilinearGradient)}
	assert.NotNil(t, r.Get("climb"))
	assert.Nil(t, r.Get("speed"))
}
