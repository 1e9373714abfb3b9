// Package scene ties a loaded skeleton, its meshes and clips together and
// drives them one tick at a time.
package scene

import (
	"image"

	"github.com/Faultbox/rigview/internal/anim"
	"github.com/Faultbox/rigview/internal/skeleton"
	"github.com/Faultbox/rigview/internal/skin"
	"github.com/Faultbox/rigview/pkg/math"
)

// Material is the per-mesh surface description.
type Material struct {
	Name       string
	Diffuse    [4]float32
	HasDiffuse bool
	// TexturePath is the image file or embedded image name.
	TexturePath string
	// Image is the decoded texture, nil when the material is untextured or
	// the image failed to load.
	Image image.Image
}

// Scene is everything loaded from one model file.
type Scene struct {
	Name      string
	Skeleton  *skeleton.Skeleton
	Meshes    []*skin.Mesh
	Materials []Material
	Clips     []*anim.Clip

	// Cameras and Lights are only counted for the info dump.
	Cameras int
	Lights  int
}

// Clip returns the clip called name, or the first clip when name is empty.
func (s *Scene) Clip(name string) *anim.Clip {
	for _, c := range s.Clips {
		if name == "" || c.Name == name {
			return c
		}
	}
	return nil
}

// Material returns the material of mesh m, or nil when it has none.
func (s *Scene) Material(m *skin.Mesh) *Material {
	if m.Material < 0 || m.Material >= len(s.Materials) {
		return nil
	}
	return &s.Materials[m.Material]
}

// MeshTransform returns the model-space matrix a mesh is drawn with. Skinned
// vertices already carry their joint transforms.
func (s *Scene) MeshTransform(m *skin.Mesh) math.Mat4 {
	if m.Skinned() || m.Node < 0 || m.Node >= s.Skeleton.Len() {
		return math.Identity()
	}
	return s.Skeleton.World(m.Node)
}

// Bounds returns the box around every mesh's current frame.
func (s *Scene) Bounds() (lo, hi math.Vec3, ok bool) {
	for _, m := range s.Meshes {
		xf := s.MeshTransform(m)
		for _, v := range m.Vertices {
			p := math.Vec3From(xf.TransformPoint(v))
			if !ok {
				lo, hi, ok = p, p, true
				continue
			}
			lo = lo.Min(p)
			hi = hi.Max(p)
		}
	}
	return lo, hi, ok
}

// FitMatrix scales the box to unit size along its longest side, optionally
// moving its centre to the origin first.
func FitMatrix(lo, hi math.Vec3, center bool) math.Mat4 {
	size := hi.Sub(lo)
	extent := size.X
	if size.Y > extent {
		extent = size.Y
	}
	if size.Z > extent {
		extent = size.Z
	}
	if extent <= 0 {
		extent = 1
	}
	s := 1 / extent
	m := math.Scale(s, s, s)
	if center {
		c := lo.Add(hi).Scale(0.5)
		m = m.Mul(math.Translate(-c.X, -c.Y, -c.Z))
	}
	return m
}
