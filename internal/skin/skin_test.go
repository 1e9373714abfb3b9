package skin

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/rigview/internal/skeleton"
	"github.com/Faultbox/rigview/pkg/math"
)

func near3(a, b [3]float32) bool {
	for i := range a {
		if gomath.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

// chain builds root -> arm with the root shifted one unit along X.
func chain(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	s := skeleton.New()
	root, _ := s.Add("root", math.Translate(1, 0, 0), skeleton.NoParent)
	if _, err := s.Add("arm", math.Identity(), root); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return s
}

func TestNewMeshCopiesBasePose(t *testing.T) {
	verts := [][3]float32{{1, 2, 3}}
	m := NewMesh("m", verts, nil)
	verts[0] = [3]float32{9, 9, 9}
	if m.BaseVertices()[0] != [3]float32{1, 2, 3} {
		t.Error("NewMesh should copy the caller's slice")
	}
	m.Vertices[0] = [3]float32{5, 5, 5}
	if m.BaseVertices()[0] != [3]float32{1, 2, 3} {
		t.Error("current frame must not alias the base pose")
	}
	m.Reset()
	if m.Vertices[0] != [3]float32{1, 2, 3} {
		t.Error("Reset should restore the base pose")
	}
}

func TestAccumulateChain(t *testing.T) {
	s := chain(t)
	bone := &Bone{Name: "arm", Offset: math.Identity()}
	world, normal, err := Accumulate(bone, s)
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if got := world.TransformAffine([3]float32{}); got != [3]float32{1, 0, 0} {
		t.Errorf("origin through chain = %v, want (1,0,0)", got)
	}
	if normal != math.Identity() {
		t.Errorf("normal matrix of a translation = %v, want identity", normal)
	}
}

func TestAccumulateAppliesOffsetFirst(t *testing.T) {
	s := chain(t)
	bone := &Bone{Name: "arm", Offset: math.Translate(-1, 0, 0)}
	world, _, err := Accumulate(bone, s)
	if err != nil {
		t.Fatal(err)
	}
	// Offset undoes the bind translation, so the bind pose is a no-op.
	if got := world.TransformAffine([3]float32{3, 4, 5}); got != [3]float32{3, 4, 5} {
		t.Errorf("bind pose moved the vertex: %v", got)
	}
}

func TestAccumulateUnresolved(t *testing.T) {
	s := chain(t)
	_, _, err := Accumulate(&Bone{Name: "tail", Offset: math.Identity()}, s)
	if !errors.Is(err, skeleton.ErrUnresolvedBoneReference) {
		t.Errorf("Accumulate error = %v, want ErrUnresolvedBoneReference", err)
	}
}

func TestBlendTwoBoneChain(t *testing.T) {
	s := chain(t)
	m := NewMesh("m", [][3]float32{{0, 0, 0}}, [][3]float32{{0, 1, 0}})
	m.Bones = []Bone{{Name: "arm", Offset: math.Identity(), Weights: []VertexWeight{{Vertex: 0, Weight: 1}}}}

	if err := Blend(m, s); err != nil {
		t.Fatalf("Blend: %v", err)
	}
	if m.Vertices[0] != [3]float32{1, 0, 0} {
		t.Errorf("vertex = %v, want (1,0,0)", m.Vertices[0])
	}
	if m.Normals[0] != [3]float32{0, 1, 0} {
		t.Errorf("normal = %v, want unchanged (0,1,0)", m.Normals[0])
	}
}

func TestBlendHalfWeights(t *testing.T) {
	s := skeleton.New()
	root, _ := s.Add("root", math.Identity(), skeleton.NoParent)
	s.Add("a", math.Translate(2, 0, 0), root)
	s.Add("b", math.Identity(), root)

	m := NewMesh("m", [][3]float32{{1, 1, 1}}, nil)
	m.Bones = []Bone{
		{Name: "a", Offset: math.Identity(), Weights: []VertexWeight{{0, 0.5}}},
		{Name: "b", Offset: math.Identity(), Weights: []VertexWeight{{0, 0.5}}},
	}
	if err := Blend(m, s); err != nil {
		t.Fatal(err)
	}
	if want := [3]float32{2, 1, 1}; !near3(m.Vertices[0], want) {
		t.Errorf("vertex = %v, want %v", m.Vertices[0], want)
	}
}

func TestBlendIdentityHalves(t *testing.T) {
	s := skeleton.New()
	root, _ := s.Add("root", math.Identity(), skeleton.NoParent)
	s.Add("a", math.Identity(), root)
	s.Add("b", math.Identity(), root)

	m := NewMesh("m", [][3]float32{{1, 2, 3}}, nil)
	m.Bones = []Bone{
		{Name: "a", Offset: math.Identity(), Weights: []VertexWeight{{0, 0.5}}},
		{Name: "b", Offset: math.Identity(), Weights: []VertexWeight{{0, 0.5}}},
	}
	if err := Blend(m, s); err != nil {
		t.Fatal(err)
	}
	if m.Vertices[0] != [3]float32{1, 2, 3} {
		t.Errorf("two half identities should leave the vertex alone, got %v", m.Vertices[0])
	}
}

func TestBlendNoInfluenceKeepsBasePose(t *testing.T) {
	s := chain(t)
	m := NewMesh("m", [][3]float32{{0, 0, 0}, {7, 8, 9}}, nil)
	m.Bones = []Bone{{Name: "arm", Offset: math.Identity(), Weights: []VertexWeight{{0, 1}}}}

	if err := Blend(m, s); err != nil {
		t.Fatal(err)
	}
	if m.Vertices[1] != [3]float32{7, 8, 9} {
		t.Errorf("uninfluenced vertex = %v, want base pose", m.Vertices[1])
	}
}

func TestBlendIsIdempotent(t *testing.T) {
	s := chain(t)
	s.SetLocal(1, math.QuatFromAxisAngle(math.Vec3{Z: 1}, 0.3).ToMat4())
	m := NewMesh("m", [][3]float32{{1, 0, 0}, {0, 1, 0}}, [][3]float32{{1, 0, 0}, {0, 1, 0}})
	m.Bones = []Bone{{Name: "arm", Offset: math.Identity(), Weights: []VertexWeight{{0, 1}, {1, 0.7}}}}

	var b Blender
	if err := b.Blend(m, s); err != nil {
		t.Fatal(err)
	}
	first := append([][3]float32(nil), m.Vertices...)
	firstN := append([][3]float32(nil), m.Normals...)
	if err := b.Blend(m, s); err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if m.Vertices[i] != first[i] || m.Normals[i] != firstN[i] {
			t.Errorf("vertex %d changed between identical blends", i)
		}
	}
}

func TestBlendReportsBadBonesAndIndices(t *testing.T) {
	s := chain(t)
	m := NewMesh("m", [][3]float32{{0, 0, 0}}, nil)
	m.Bones = []Bone{
		{Name: "ghost", Offset: math.Identity(), Weights: []VertexWeight{{0, 1}}},
		{Name: "arm", Offset: math.Identity(), Weights: []VertexWeight{{0, 1}, {4, 1}}},
	}
	err := Blend(m, s)
	if !errors.Is(err, skeleton.ErrUnresolvedBoneReference) {
		t.Errorf("error should report the unresolved bone: %v", err)
	}
	if !errors.Is(err, ErrVertexIndexRange) {
		t.Errorf("error should report the bad vertex index: %v", err)
	}
	if m.Vertices[0] != [3]float32{1, 0, 0} {
		t.Errorf("valid bone should still deform: %v", m.Vertices[0])
	}
}

func TestAddIgnoreIdentity(t *testing.T) {
	id := math.Identity()
	half := id.MulScalar(0.5)
	if addIgnoreIdentity(id, half) != half {
		t.Error("identity seed should be replaced by the first contribution")
	}
	if addIgnoreIdentity(half, id) != half {
		t.Error("identity contribution should be ignored")
	}
	if addIgnoreIdentity(half, half) != id {
		t.Error("two halves should sum to identity")
	}
}

func TestMeshBounds(t *testing.T) {
	m := NewMesh("m", [][3]float32{{1, -2, 0}, {-1, 3, 4}}, nil)
	lo, hi, ok := m.Bounds()
	if !ok || lo != (math.Vec3{X: -1, Y: -2, Z: 0}) || hi != (math.Vec3{X: 1, Y: 3, Z: 4}) {
		t.Errorf("Bounds() = %v %v %v", lo, hi, ok)
	}
	if _, _, ok := NewMesh("empty", nil, nil).Bounds(); ok {
		t.Error("empty mesh should report no bounds")
	}
}

func TestSmoothNormals(t *testing.T) {
	// Two triangles of a unit quad in the XZ plane, wound to face +Y, with
	// the shared corner duplicated as if split on a UV seam.
	verts := [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {0, 0, 0}, {1, 0, 1}, {1, 0, 0}}
	idx := []uint32{0, 1, 2, 3, 4, 5}

	got := SmoothNormals(verts, idx)
	if len(got) != len(verts) {
		t.Fatalf("len = %d", len(got))
	}
	for i, n := range got {
		if n != [3]float32{0, 1, 0} {
			t.Errorf("normal %d = %v, want +Y", i, n)
		}
	}

	// A crease between two faces averages at the shared edge only.
	verts = [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	got = SmoothNormals(verts, idx)
	if got[2] != [3]float32{0, 1, 0} {
		t.Errorf("floor-only corner = %v", got[2])
	}
	if got[4] != [3]float32{1, 0, 0} {
		t.Errorf("wall-only corner = %v", got[4])
	}
	if d := got[0][0] - got[0][1]; d > 1e-6 || d < -1e-6 || got[0][0] == 0 {
		t.Errorf("shared corner should be the even blend, got %v", got[0])
	}
}

func TestSmoothNormalsIgnoresBadIndices(t *testing.T) {
	got := SmoothNormals([][3]float32{{0, 0, 0}}, []uint32{0, 5, 9})
	if got[0] != [3]float32{} {
		t.Errorf("normal = %v, want zero", got[0])
	}
}
