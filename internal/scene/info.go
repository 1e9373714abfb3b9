package scene

import (
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/rigview/internal/skeleton"
	"github.com/Faultbox/rigview/pkg/math"
)

// WriteSummary prints object counts.
func WriteSummary(w io.Writer, s *Scene) {
	textures := 0
	for _, m := range s.Materials {
		if m.TexturePath != "" {
			textures++
		}
	}
	fmt.Fprintf(w, "Scene: %s\n", s.Name)
	fmt.Fprintf(w, "  Animations: %d\n", len(s.Clips))
	fmt.Fprintf(w, "  Cameras:    %d\n", s.Cameras)
	fmt.Fprintf(w, "  Lights:     %d\n", s.Lights)
	fmt.Fprintf(w, "  Materials:  %d\n", len(s.Materials))
	fmt.Fprintf(w, "  Meshes:     %d\n", len(s.Meshes))
	fmt.Fprintf(w, "  Textures:   %d\n", textures)
	fmt.Fprintf(w, "  Nodes:      %d\n", s.Skeleton.Len())
}

// WriteMeshes prints per-mesh vertex, face and bone counts.
func WriteMeshes(w io.Writer, s *Scene) {
	fmt.Fprintf(w, "Meshes: %d\n", len(s.Meshes))
	for i, m := range s.Meshes {
		fmt.Fprintf(w, "  [%d] %s: verts=%d faces=%d bones=%d material=%d\n",
			i, m.Name, len(m.BaseVertices()), len(m.Indices)/3, len(m.Bones), m.Material)
		if mat := s.Material(m); mat != nil && mat.HasDiffuse {
			fmt.Fprintf(w, "      colour: %.3g %.3g %.3g\n", mat.Diffuse[0], mat.Diffuse[1], mat.Diffuse[2])
		}
		fmt.Fprintf(w, "      texcoords=%v normals=%v\n", len(m.TexCoords) > 0, len(m.BaseNormals()) > 0)
	}
}

// WriteTree prints the node hierarchy, indented by depth.
func WriteTree(w io.Writer, s *Scene) {
	meshesByNode := make(map[int][]int)
	for i, m := range s.Meshes {
		meshesByNode[m.Node] = append(meshesByNode[m.Node], i)
	}
	s.Skeleton.Walk(func(i int, n *skeleton.Node) bool {
		indent := strings.Repeat("  ", s.Skeleton.Depth(i))
		parent := "-"
		if n.Parent != skeleton.NoParent {
			parent = s.Skeleton.Node(n.Parent).Name
		}
		fmt.Fprintf(w, "%s%s (parent=%s children=%d meshes=%v)\n", indent, n.Name, parent, len(n.Children), meshesByNode[i])
		fmt.Fprintf(w, "%s  %s\n", indent, formatMat(n.Local))
		return true
	})
}

// WriteBones prints every bone with its offset and first/last vertex.
func WriteBones(w io.Writer, s *Scene) {
	for mi, m := range s.Meshes {
		for _, b := range m.Bones {
			fmt.Fprintf(w, "Bone %s mesh=%d weights=%d\n", b.Name, mi, len(b.Weights))
			fmt.Fprintf(w, "  offset: %s\n", formatMat(b.Offset))
			if len(b.Weights) > 0 {
				fmt.Fprintf(w, "  vertices: %d..%d\n", b.Weights[0].Vertex, b.Weights[len(b.Weights)-1].Vertex)
			}
		}
	}
}

// WriteAnimations prints clip headers and, with keys set, every keyframe.
func WriteAnimations(w io.Writer, s *Scene, keys bool) {
	fmt.Fprintf(w, "Animations: %d\n", len(s.Clips))
	for i, c := range s.Clips {
		fmt.Fprintf(w, "  [%d] %s: channels=%d ticks/s=%g duration=%g ticks\n",
			i, c.Name, len(c.Channels), c.TicksPerSecond, c.Duration)
		for ci, ch := range c.Channels {
			fmt.Fprintf(w, "    channel %d: node=%s pos=%d rot=%d\n", ci, ch.NodeName, len(ch.PositionKeys), len(ch.RotationKeys))
			if !keys {
				continue
			}
			for k, key := range ch.PositionKeys {
				fmt.Fprintf(w, "      pos %d t=%g %g %g %g\n", k, key.Time, key.Value.X, key.Value.Y, key.Value.Z)
			}
			for k, key := range ch.RotationKeys {
				q := key.Value
				fmt.Fprintf(w, "      rot %d t=%g %g %g %g %g\n", k, key.Time, q.X, q.Y, q.Z, q.W)
			}
		}
	}
}

func formatMat(m math.Mat4) string {
	var sb strings.Builder
	for i, v := range m {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g", v)
	}
	return sb.String()
}
