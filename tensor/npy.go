package tensor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// ErrFormat is returned for malformed or unsupported .npy data.
var ErrFormat = errors.New("tensor: invalid npy data")

// MaxElements bounds the element count accepted from an .npy header.
const MaxElements = 1 << 31

var npyMagic = []byte("\x93NUMPY")

const npyAlign = 64

// widths maps the supported dtypes to their element size.
var widths = map[string]int{
	"<f8": 8,
	"<f4": 4,
	"<i8": 8,
	"<i4": 4,
	"|u1": 1,
}

// Elements returns the element count of shape. Negative dimensions, overflow
// and counts above MaxElements fail with ErrFormat.
func Elements(shape []int) (int, error) {
	n := uint64(1)
	for _, s := range shape {
		if s < 0 {
			return 0, fmt.Errorf("%w: negative dimension in shape %v", ErrFormat, shape)
		}
		hi, lo := bits.Mul64(n, uint64(s))
		if hi != 0 || lo > MaxElements {
			return 0, fmt.Errorf("%w: shape %v exceeds %d elements", ErrFormat, shape, MaxElements)
		}
		n = lo
	}
	return int(n), nil
}

// ReadNPY decodes an .npy stream into a float64 array.
func ReadNPY(r io.Reader) (*Array, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	nr, err := npyio.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	descr := nr.Header.Descr
	if descr.Fortran {
		return nil, fmt.Errorf("%w: fortran order is not supported", ErrFormat)
	}
	width, ok := widths[descr.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported dtype %q", ErrFormat, descr.Type)
	}
	n, err := Elements(descr.Shape)
	if err != nil {
		return nil, err
	}
	if payload := len(raw) - preambleLen(raw); payload < n*width {
		return nil, fmt.Errorf("%w: short payload: %d bytes for shape %v", ErrFormat, payload, descr.Shape)
	}

	data, err := readAs(nr, descr.Type, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return &Array{Shape: append([]int{}, descr.Shape...), Data: data}, nil
}

// preambleLen returns the size of magic, version, header length and header.
// raw must start with a valid preamble.
func preambleLen(raw []byte) int {
	if raw[len(npyMagic)] == 1 {
		return len(npyMagic) + 4 + int(binary.LittleEndian.Uint16(raw[8:10]))
	}
	return len(npyMagic) + 6 + int(binary.LittleEndian.Uint32(raw[8:12]))
}

func readAs(nr *npyio.Reader, dtype string, n int) ([]float64, error) {
	if n == 0 {
		return []float64{}, nil
	}
	switch dtype {
	case "<f8":
		v := make([]float64, n)
		err := nr.Read(&v)
		return v, err
	case "<f4":
		v := make([]float32, n)
		if err := nr.Read(&v); err != nil {
			return nil, err
		}
		return convert(v), nil
	case "<i8":
		v := make([]int64, n)
		if err := nr.Read(&v); err != nil {
			return nil, err
		}
		return convert(v), nil
	case "<i4":
		v := make([]int32, n)
		if err := nr.Read(&v); err != nil {
			return nil, err
		}
		return convert(v), nil
	default:
		v := make([]uint8, n)
		if err := nr.Read(&v); err != nil {
			return nil, err
		}
		return convert(v), nil
	}
}

func convert[T float32 | int64 | int32 | uint8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// WriteNPY encodes a as a little-endian float64 .npy stream.
func WriteNPY(w io.Writer, a *Array) error {
	if n, err := Elements(a.Shape); err != nil || n != len(a.Data) {
		return fmt.Errorf("%w: %d elements for shape %v", ErrShape, len(a.Data), a.Shape)
	}
	switch {
	case len(a.Shape) == 1:
		return npyio.Write(w, a.Data)
	case len(a.Shape) == 2 && a.Shape[0] > 0 && a.Shape[1] > 0:
		return npyio.Write(w, mat.NewDense(a.Shape[0], a.Shape[1], a.Data))
	default:
		// npyio derives the shape from the value: slices are 1-D and
		// matrices non-empty 2-D.
		buf := make([]byte, 8*len(a.Data))
		for i, v := range a.Data {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		return writeNPY(w, "<f8", a.Shape, buf)
	}
}

// WriteNPYInt64 encodes integer data as a little-endian int64 .npy stream.
func WriteNPYInt64(w io.Writer, data []int64, shape ...int) error {
	if n, err := Elements(shape); err != nil || n != len(data) {
		return fmt.Errorf("%w: %d elements for shape %v", ErrShape, len(data), shape)
	}
	if len(shape) == 1 {
		return npyio.Write(w, data)
	}
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return writeNPY(w, "<i8", shape, buf)
}

func writeNPY(w io.Writer, descr string, shape []int, payload []byte) error {
	dims := make([]string, len(shape))
	for i, s := range shape {
		dims[i] = strconv.Itoa(s)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shapeStr)

	// magic + version + uint16 length + dict + '\n' padded to the alignment.
	pre := len(npyMagic) + 2 + 2
	total := pre + len(dict) + 1
	if rem := total % npyAlign; rem != 0 {
		dict += strings.Repeat(" ", npyAlign-rem)
	}
	dict += "\n"

	hdr := make([]byte, 0, pre+len(dict))
	hdr = append(hdr, npyMagic...)
	hdr = append(hdr, 1, 0)
	hdr = binary.LittleEndian.AppendUint16(hdr, uint16(len(dict)))
	hdr = append(hdr, dict...)

	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
