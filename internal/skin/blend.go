package skin

import (
	"errors"
	"fmt"

	"github.com/Faultbox/rigview/pkg/math"
)

// ErrVertexIndexRange is reported when a bone weight names a vertex the
// mesh does not have.
var ErrVertexIndexRange = errors.New("bone weight vertex index out of range")

// Blender deforms meshes and keeps its per-vertex sum buffers between calls.
type Blender struct {
	sums  []math.Mat4
	nsums []math.Mat4
}

// Blend runs linear blend skinning with a throwaway Blender.
func Blend(m *Mesh, h Hierarchy) error {
	var b Blender
	return b.Blend(m, h)
}

// Blend rewrites m.Vertices and m.Normals from the base pose. Every vertex
// sum starts as identity, so vertices no bone touches keep their rest
// position. Weights are applied as given, without renormalizing. Bones that
// do not resolve are skipped and reported in the returned error.
func (b *Blender) Blend(m *Mesh, h Hierarchy) error {
	n := len(m.baseVertices)
	b.reset(n)

	var errs []error
	for bi := range m.Bones {
		bone := &m.Bones[bi]
		world, normal, err := Accumulate(bone, h)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		outOfRange := 0
		for _, vw := range bone.Weights {
			if vw.Vertex < 0 || vw.Vertex >= n {
				outOfRange++
				continue
			}
			b.sums[vw.Vertex] = addIgnoreIdentity(b.sums[vw.Vertex], world.MulScalar(vw.Weight))
			b.nsums[vw.Vertex] = addIgnoreIdentity(b.nsums[vw.Vertex], normal.MulScalar(vw.Weight))
		}
		if outOfRange > 0 {
			errs = append(errs, fmt.Errorf("bone %q: %d weights: %w", bone.Name, outOfRange, ErrVertexIndexRange))
		}
	}

	for i := 0; i < n; i++ {
		m.Vertices[i] = b.sums[i].TransformAffine(m.baseVertices[i])
	}
	for i := range m.baseNormals {
		if i >= n {
			break
		}
		m.Normals[i] = b.nsums[i].TransformDirection(m.baseNormals[i])
	}
	return errors.Join(errs...)
}

func (b *Blender) reset(n int) {
	if cap(b.sums) < n {
		b.sums = make([]math.Mat4, n)
		b.nsums = make([]math.Mat4, n)
	}
	b.sums = b.sums[:n]
	b.nsums = b.nsums[:n]
	id := math.Identity()
	for i := range b.sums {
		b.sums[i] = id
		b.nsums[i] = id
	}
}

// addIgnoreIdentity treats an identity operand as "nothing yet" and returns
// the other one instead of summing.
func addIgnoreIdentity(m1, m2 math.Mat4) math.Mat4 {
	if m1.IsIdentity() {
		return m2
	}
	if m2.IsIdentity() {
		return m1
	}
	return m1.Add(m2)
}
