package skin

import "github.com/Faultbox/rigview/pkg/math"

// SmoothNormals derives per-vertex normals for a triangle list that shipped
// without them. Face normals are summed unnormalised, so larger faces weigh
// more, then averaged across vertices sharing a position so split UV seams
// do not show as creases.
func SmoothNormals(vertices [][3]float32, indices []uint32) [][3]float32 {
	sums := make([]math.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(vertices) || int(b) >= len(vertices) || int(c) >= len(vertices) {
			continue
		}
		p0 := math.Vec3From(vertices[a])
		face := math.Vec3From(vertices[b]).Sub(p0).Cross(math.Vec3From(vertices[c]).Sub(p0))
		sums[a] = sums[a].Add(face)
		sums[b] = sums[b].Add(face)
		sums[c] = sums[c].Add(face)
	}

	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i, v := range vertices {
		key := [3]int32{int32(v[0] / epsilon), int32(v[1] / epsilon), int32(v[2] / epsilon)}
		posMap[key] = append(posMap[key], i)
	}

	normals := make([][3]float32, len(vertices))
	for _, idxs := range posMap {
		var sum math.Vec3
		for _, i := range idxs {
			sum = sum.Add(sums[i])
		}
		n := sum.Normalize().Array()
		for _, i := range idxs {
			normals[i] = n
		}
	}
	return normals
}
