package tensor

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend satisfies Backend for tests that never dispatch ops.
type fakeBackend struct{}

func (fakeBackend) Add(a, b *RawTensor) *RawTensor                  { panic("not used") }
func (fakeBackend) Sub(a, b *RawTensor) *RawTensor                  { panic("not used") }
func (fakeBackend) Mul(a, b *RawTensor) *RawTensor                  { panic("not used") }
func (fakeBackend) Div(a, b *RawTensor) *RawTensor                  { panic("not used") }
func (fakeBackend) MatMul(a, b *RawTensor) *RawTensor               { panic("not used") }
func (fakeBackend) AddScalar(x *RawTensor, s any) *RawTensor        { panic("not used") }
func (fakeBackend) MulScalar(x *RawTensor, s any) *RawTensor        { panic("not used") }
func (fakeBackend) Exp(x *RawTensor) *RawTensor                     { panic("not used") }
func (fakeBackend) Log(x *RawTensor) *RawTensor                     { panic("not used") }
func (fakeBackend) Neg(x *RawTensor) *RawTensor                     { panic("not used") }
func (fakeBackend) Sqrt(x *RawTensor) *RawTensor                    { panic("not used") }
func (fakeBackend) Softmax(x *RawTensor, dim int) *RawTensor        { panic("not used") }
func (fakeBackend) LogSoftmax(x *RawTensor, dim int) *RawTensor     { panic("not used") }
func (fakeBackend) SumDim(x *RawTensor, d int, k bool) *RawTensor   { panic("not used") }
func (fakeBackend) MeanDim(x *RawTensor, d int, k bool) *RawTensor  { panic("not used") }
func (fakeBackend) Argmax(x *RawTensor, dim int) *RawTensor         { panic("not used") }
func (fakeBackend) Reshape(x *RawTensor, s Shape) *RawTensor        { panic("not used") }
func (fakeBackend) Cat(ts []*RawTensor, dim int) *RawTensor         { panic("not used") }
func (fakeBackend) Cast(x *RawTensor, dtype DataType) *RawTensor    { panic("not used") }
func (fakeBackend) Name() string                                    { return "fake" }
func (fakeBackend) Device() Device                                  { return CPU }

func TestFromSlice(t *testing.T) {
	b := fakeBackend{}

	tt, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, tt.Shape())
	assert.Equal(t, Float32, tt.DType())
	assert.InDelta(t, 6.0, float64(tt.At(1, 2)), 0)

	_, err = FromSlice([]float32{1, 2, 3}, Shape{2, 3}, b)
	assert.Error(t, err, "element count must match shape")
}

func TestAtSet(t *testing.T) {
	b := fakeBackend{}
	tt := Zeros[float32](Shape{2, 2}, b)

	tt.Set(3.5, 1, 0)
	assert.InDelta(t, 3.5, float64(tt.At(1, 0)), 0)

	assert.Panics(t, func() { tt.At(2, 0) })
	assert.Panics(t, func() { tt.At(0) })
}

func TestItem(t *testing.T) {
	b := fakeBackend{}

	scalar, err := FromSlice([]float64{42}, Shape{1}, b)
	require.NoError(t, err)
	assert.InDelta(t, 42.0, scalar.Item(), 0)

	multi := Zeros[float64](Shape{2}, b)
	assert.Panics(t, func() { multi.Item() })
}

func TestCloneIsDeep(t *testing.T) {
	b := fakeBackend{}
	orig, err := FromSlice([]float32{1, 2}, Shape{2}, b)
	require.NoError(t, err)

	clone := orig.Clone()
	clone.Set(99, 0)

	assert.InDelta(t, 1.0, float64(orig.At(0)), 0, "clone must not alias original data")
	assert.InDelta(t, 99.0, float64(clone.At(0)), 0)
}

func TestCreation(t *testing.T) {
	b := fakeBackend{}

	ones := Ones[float32](Shape{3}, b)
	assert.Equal(t, []float32{1, 1, 1}, ones.Data())

	full := Full[int32](Shape{2}, 7, b)
	assert.Equal(t, []int32{7, 7}, full.Data())

	rng := rand.New(rand.NewPCG(1, 1))
	randn := Randn[float64](Shape{100}, rng, b)
	assert.Equal(t, 100, randn.NumElements())

	uni := Uniform[float32](Shape{50}, -0.5, 0.5, rng, b)
	for _, v := range uni.Data() {
		assert.GreaterOrEqual(t, v, float32(-0.5))
		assert.Less(t, v, float32(0.5))
	}
}

func TestNewDTypeMismatch(t *testing.T) {
	b := fakeBackend{}
	raw, err := NewRaw(Shape{2}, Float32, CPU)
	require.NoError(t, err)

	assert.Panics(t, func() { New[float64](raw, b) })
}
