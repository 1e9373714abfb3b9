package renderer

import (
	"github.com/Faultbox/rigview/internal/scene"
	"github.com/Faultbox/rigview/internal/skin"
)

// floatsPerVertex is position, normal and texture coordinate.
const floatsPerVertex = 8

// Interleave writes m's current frame into dst as position, normal, uv
// triples, reusing dst's storage. Missing normals or texture coordinates are
// written as zero.
func Interleave(dst []float32, m *skin.Mesh) []float32 {
	n := len(m.Vertices) * floatsPerVertex
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i, v := range m.Vertices {
		o := i * floatsPerVertex
		dst[o], dst[o+1], dst[o+2] = v[0], v[1], v[2]
		if i < len(m.Normals) {
			nm := m.Normals[i]
			dst[o+3], dst[o+4], dst[o+5] = nm[0], nm[1], nm[2]
		} else {
			dst[o+3], dst[o+4], dst[o+5] = 0, 0, 0
		}
		if i < len(m.TexCoords) {
			uv := m.TexCoords[i]
			dst[o+6], dst[o+7] = uv[0], uv[1]
		} else {
			dst[o+6], dst[o+7] = 0, 0
		}
	}
	return dst
}

// FloorGeometry builds a checkerboard of tile-sized quads whose corners start
// at every multiple of tile in [-size, size] on X and Z, at height y. Tiles
// are split into two index lists by colour parity.
func FloorGeometry(size, tile int, y float32) (verts []float32, even, odd []uint32) {
	if tile <= 0 {
		return nil, nil, nil
	}
	for i, x := 0, -size; x <= size; i, x = i+1, x+tile {
		for j, z := 0, -size; z <= size; j, z = j+1, z+tile {
			base := uint32(len(verts) / floatsPerVertex)
			x0, z0 := float32(x), float32(z)
			x1, z1 := float32(x+tile), float32(z+tile)
			for _, c := range [4][2]float32{{x0, z0}, {x0, z1}, {x1, z1}, {x1, z0}} {
				verts = append(verts, c[0], y, c[1], 0, 1, 0, 0, 0)
			}
			quad := []uint32{base, base + 1, base + 2, base, base + 2, base + 3}
			if (i+j)%2 == 0 {
				even = append(even, quad...)
			} else {
				odd = append(odd, quad...)
			}
		}
	}
	return verts, even, odd
}

// MeshColor picks the colour a mesh is drawn with: the material's diffuse
// colour unless it has none or replace is set, in which case fallback.
func MeshColor(mat *scene.Material, fallback [4]float32, replace bool) [4]float32 {
	if replace || mat == nil || !mat.HasDiffuse {
		return fallback
	}
	return mat.Diffuse
}
