package render

import (
	"github.com/plus3/cubeview/asset"
	"github.com/plus3/cubeview/gpu"
)

// vertexFloats is the number of float32s per packed vertex.
const vertexFloats = 8

// VertexLayout is position @0, texcoord @1, normal @2.
var VertexLayout = gpu.VertexLayout{
	Stride: vertexFloats * 4,
	Attributes: []gpu.VertexAttribute{
		{Format: gpu.VertexFloat32x3, Offset: 0, Location: 0},
		{Format: gpu.VertexFloat32x2, Offset: 12, Location: 1},
		{Format: gpu.VertexFloat32x3, Offset: 20, Location: 2},
	},
}

// PackVertices lays vertices out as VertexLayout describes.
func PackVertices(vs []asset.Vertex) []byte {
	fs := make([]float32, 0, len(vs)*vertexFloats)
	for _, v := range vs {
		fs = append(fs,
			v.Position[0], v.Position[1], v.Position[2],
			v.TexCoord[0], v.TexCoord[1],
			v.Normal[0], v.Normal[1], v.Normal[2])
	}
	return gpu.Float32Bytes(fs)
}
