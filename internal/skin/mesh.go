// Package skin deforms meshes on the CPU with linear blend skinning.
package skin

import "github.com/Faultbox/rigview/pkg/math"

// VertexWeight is one bone influence on one vertex.
type VertexWeight struct {
	Vertex int
	Weight float32
}

// Bone binds a skeleton node to the vertices it deforms. Offset is the
// inverse bind matrix taking mesh space into the bone's space.
type Bone struct {
	Name    string
	Offset  math.Mat4
	Weights []VertexWeight
}

// Mesh is a deformable triangle mesh. The base pose is captured by NewMesh
// and never written again; Vertices and Normals hold the current frame.
type Mesh struct {
	Name      string
	Vertices  [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Indices   []uint32
	Material  int
	Bones     []Bone

	// Node is the skeleton node the mesh hangs from, used to place
	// meshes without bones.
	Node int

	baseVertices [][3]float32
	baseNormals  [][3]float32
}

// NewMesh copies vertices and normals into the immutable base pose and the
// current frame buffers. normals may be nil.
func NewMesh(name string, vertices, normals [][3]float32) *Mesh {
	m := &Mesh{
		Name:         name,
		baseVertices: append([][3]float32(nil), vertices...),
		Vertices:     append([][3]float32(nil), vertices...),
	}
	if len(normals) > 0 {
		m.baseNormals = append([][3]float32(nil), normals...)
		m.Normals = append([][3]float32(nil), normals...)
	}
	return m
}

// BaseVertices returns the rest-pose positions. Callers must not modify them.
func (m *Mesh) BaseVertices() [][3]float32 {
	return m.baseVertices
}

// BaseNormals returns the rest-pose normals. Callers must not modify them.
func (m *Mesh) BaseNormals() [][3]float32 {
	return m.baseNormals
}

// Skinned reports whether any bone deforms the mesh.
func (m *Mesh) Skinned() bool {
	return len(m.Bones) > 0
}

// Reset copies the base pose back into the current frame.
func (m *Mesh) Reset() {
	copy(m.Vertices, m.baseVertices)
	copy(m.Normals, m.baseNormals)
}

// Bounds returns the axis-aligned box of the current frame.
func (m *Mesh) Bounds() (lo, hi math.Vec3, ok bool) {
	if len(m.Vertices) == 0 {
		return lo, hi, false
	}
	lo = math.Vec3From(m.Vertices[0])
	hi = lo
	for _, v := range m.Vertices[1:] {
		p := math.Vec3From(v)
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi, true
}
