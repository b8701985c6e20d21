package tensor

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNPY_Float64(t *testing.T) {
	a, err := FromData([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, a))

	got, err := ReadNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, got.Shape)
	assert.Equal(t, a.Data, got.Data)
	assert.Equal(t, 6.0, got.At(1, 2))
}

func TestNPY_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
	}{
		{"vector", []int{5}},
		{"matrix", []int{2, 3}},
		{"write factors", []int{2, 3, 2}},
		{"empty matrix", []int{0, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.shape...)
			for i := range a.Data {
				a.Data[i] = float64(i) - 1.5
			}

			var buf bytes.Buffer
			require.NoError(t, WriteNPY(&buf, a))

			got, err := ReadNPY(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, got.Shape)
			assert.Equal(t, a.Data, got.Data)
		})
	}
}

func TestNPY_HeaderAlignment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, New(1, 2, 3)))

	hlen := int(binary.LittleEndian.Uint16(buf.Bytes()[8:10]))
	assert.Zero(t, (10+hlen)%npyAlign)
	assert.Equal(t, byte('\n'), buf.Bytes()[10+hlen-1])
	assert.Contains(t, buf.String(), "'shape': (1, 2, 3)")
}

func TestNPY_Int64(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNPYInt64(&buf, []int64{0, 1, 1, 0}, 4))

	got, err := ReadNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, got.Shape)
	assert.Equal(t, []int64{0, 1, 1, 0}, got.Int64())

	buf.Reset()
	require.NoError(t, WriteNPYInt64(&buf, []int64{0, 1, 1, 0}, 2, 2))
	got, err = ReadNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, got.Shape)

	require.ErrorIs(t, WriteNPYInt64(&buf, []int64{1, 2, 3}, 2, 2), ErrShape)
}

// rawNPY builds a version 1 .npy stream from a header dict and payload.
func rawNPY(dict string, payload []byte) *bytes.Buffer {
	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(dict)+1))
	buf.WriteString(dict + "\n")
	buf.Write(payload)
	return &buf
}

func TestNPY_Float32Payload(t *testing.T) {
	var payload bytes.Buffer
	for _, v := range []float32{0.5, -1, 2} {
		_ = binary.Write(&payload, binary.LittleEndian, math.Float32bits(v))
	}

	got, err := ReadNPY(rawNPY("{'descr': '<f4', 'fortran_order': False, 'shape': (3,), }", payload.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 2}, got.Data)
}

func TestNPY_Int32Payload(t *testing.T) {
	var payload bytes.Buffer
	for _, v := range []int32{7, -3} {
		_ = binary.Write(&payload, binary.LittleEndian, v)
	}

	got, err := ReadNPY(rawNPY("{'descr': '<i4', 'fortran_order': False, 'shape': (2,), }", payload.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []float64{7, -3}, got.Data)
}

func TestNPY_Errors(t *testing.T) {
	eight := make([]byte, 8*4)

	tests := []struct {
		name string
		in   *bytes.Buffer
	}{
		{"not numpy", bytes.NewBufferString("not numpy at all")},
		{"complex dtype", rawNPY("{'descr': '<c16', 'fortran_order': False, 'shape': (1,), }", make([]byte, 16))},
		{"fortran order", rawNPY("{'descr': '<f8', 'fortran_order': True, 'shape': (2, 2), }", eight)},
		{"overflowing shape", rawNPY("{'descr': '<f8', 'fortran_order': False, 'shape': (1099511627776, 16777216), }", eight)},
		{"huge shape", rawNPY("{'descr': '<f8', 'fortran_order': False, 'shape': (65536, 65536), }", eight)},
		{"short payload", rawNPY("{'descr': '<f8', 'fortran_order': False, 'shape': (2, 3), }", eight)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNPY(tt.in)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestElements(t *testing.T) {
	n, err := Elements([]int{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 24, n)

	n, err = Elements(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, shape := range [][]int{{-1, 2}, {1 << 40, 1 << 24}, {1 << 62, 4}, {MaxElements + 1}} {
		_, err := Elements(shape)
		assert.ErrorIs(t, err, ErrFormat, "%v", shape)
	}
}

func TestArray_SwapLast2(t *testing.T) {
	// one sample, dim=2, rank=3
	a, err := FromData([]float64{1, 2, 3, 4, 5, 6}, 1, 2, 3)
	require.NoError(t, err)

	s, err := a.SwapLast2()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 2}, s.Shape)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, s.Data)

	_, err = New(2, 2).SwapLast2()
	require.ErrorIs(t, err, ErrShape)
}

func TestFromRows(t *testing.T) {
	a, err := FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, a.Row(1))

	_, err = FromRows([][]float64{{1}, {2, 3}})
	require.ErrorIs(t, err, ErrShape)
}
