package loader

import (
	"fmt"
	"sort"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/rigview/internal/anim"
	"github.com/Faultbox/rigview/pkg/math"
)

// track collects the glTF channels that target one node.
type track struct {
	node uint32
	pos  []anim.VectorKey
	rot  []anim.QuatKey
}

// readClips converts every animation, turning seconds into ticks. Scale
// channels and morph weights are ignored.
func readClips(doc *gltf.Document, names []string, tps float64) ([]*anim.Clip, error) {
	clips := make([]*anim.Clip, 0, len(doc.Animations))
	for ai, a := range doc.Animations {
		clip := &anim.Clip{Name: a.Name, TicksPerSecond: tps}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("anim%d", ai)
		}

		var order []uint32
		tracks := map[uint32]*track{}
		for ci, ch := range a.Channels {
			if ch.Target.Node == nil || ch.Sampler == nil {
				continue
			}
			if ch.Target.Path != gltf.TRSTranslation && ch.Target.Path != gltf.TRSRotation {
				continue
			}
			node := *ch.Target.Node
			if int(node) >= len(names) {
				return nil, fmt.Errorf("animation %q channel %d: node %d out of range", clip.Name, ci, node)
			}
			if int(*ch.Sampler) >= len(a.Samplers) {
				return nil, fmt.Errorf("animation %q channel %d: sampler %d out of range", clip.Name, ci, *ch.Sampler)
			}
			s := a.Samplers[*ch.Sampler]
			if s.Input == nil || s.Output == nil {
				continue
			}
			times, _, err := readFloats(doc, *s.Input)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d input: %w", clip.Name, ci, err)
			}
			values, comps, err := readFloats(doc, *s.Output)
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d output: %w", clip.Name, ci, err)
			}

			t := tracks[node]
			if t == nil {
				t = &track{node: node}
				tracks[node] = t
				order = append(order, node)
			}
			// Cubic spline outputs are (in-tangent, value, out-tangent) triplets.
			stride, offset := 1, 0
			if s.Interpolation == gltf.InterpolationCubicSpline {
				stride, offset = 3, 1
			}
			for k, sec := range times {
				i := (k*stride + offset) * comps
				if i+comps > len(values) {
					break
				}
				tick := float64(sec) * tps
				if tick > clip.Duration {
					clip.Duration = tick
				}
				v := values[i : i+comps]
				switch ch.Target.Path {
				case gltf.TRSTranslation:
					t.pos = append(t.pos, anim.VectorKey{Time: tick, Value: math.Vec3{X: v[0], Y: v[1], Z: v[2]}})
				case gltf.TRSRotation:
					t.rot = append(t.rot, anim.QuatKey{Time: tick, Value: math.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}})
				}
			}
		}

		for _, node := range order {
			t := tracks[node]
			restPos, restRot := nodeRest(doc.Nodes[node])
			if len(t.pos) == 0 {
				t.pos = []anim.VectorKey{{Time: 0, Value: restPos}}
			}
			if len(t.rot) == 0 {
				t.rot = []anim.QuatKey{{Time: 0, Value: restRot}}
			}
			sort.SliceStable(t.pos, func(i, j int) bool { return t.pos[i].Time < t.pos[j].Time })
			sort.SliceStable(t.rot, func(i, j int) bool { return t.rot[i].Time < t.rot[j].Time })
			clip.Channels = append(clip.Channels, anim.Channel{
				NodeName:     names[node],
				PositionKeys: t.pos,
				RotationKeys: t.rot,
			})
		}
		clips = append(clips, clip)
	}
	return clips, nil
}
