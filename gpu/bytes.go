package gpu

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/go-gl/mathgl/mgl32"
)

// Mat4Size is the byte size of a packed 4x4 float32 matrix.
const Mat4Size = 64

// UniformAlignment is the minimum dynamic uniform offset alignment WebGPU
// guarantees.
const UniformAlignment = 256

// Mat4Bytes packs m column-major, little-endian, as WGSL mat4x4<f32> expects.
func Mat4Bytes(m mgl32.Mat4) []byte {
	out := make([]byte, Mat4Size)
	PutMat4(out, m)
	return out
}

// PutMat4 writes m into the first Mat4Size bytes of dst.
func PutMat4(dst []byte, m mgl32.Mat4) {
	for i, f := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// BytesMat4 is the inverse of Mat4Bytes.
func BytesMat4(b []byte) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return m
}

// Float32Bytes packs a float32 slice little-endian.
func Float32Bytes(fs []float32) []byte {
	out := make([]byte, len(fs)*4)
	for i, f := range fs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// Uint32Bytes packs a uint32 slice little-endian.
func Uint32Bytes(us []uint32) []byte {
	out := make([]byte, len(us)*4)
	for i, u := range us {
		binary.LittleEndian.PutUint32(out[i*4:], u)
	}
	return out
}

// isNilHandle catches typed nil pointers stored in handle interfaces.
func isNilHandle(h Releaser) bool {
	v := reflect.ValueOf(h)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
