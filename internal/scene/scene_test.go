package scene

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/rigview/internal/anim"
	"github.com/Faultbox/rigview/internal/skeleton"
	"github.com/Faultbox/rigview/internal/skin"
	"github.com/Faultbox/rigview/pkg/math"
)

// testScene is a two-joint leg with one skinned vertex on the shin.
func testScene(t *testing.T) *Scene {
	t.Helper()
	sk := skeleton.New()
	hip, _ := sk.Add("hip", math.Identity(), skeleton.NoParent)
	if _, err := sk.Add("shin", math.Translate(0, -1, 0), hip); err != nil {
		t.Fatal(err)
	}
	m := skin.NewMesh("leg", [][3]float32{{0, -2, 0}, {0, 0, 0}}, [][3]float32{{1, 0, 0}, {1, 0, 0}})
	m.Node = hip
	m.Material = 0
	m.Bones = []skin.Bone{{
		Name:    "shin",
		Offset:  math.Translate(0, 1, 0),
		Weights: []skin.VertexWeight{{Vertex: 0, Weight: 1}},
	}}
	clip := &anim.Clip{
		Name:     "kick",
		Duration: 4,
		Channels: []anim.Channel{{
			NodeName:     "shin",
			PositionKeys: []anim.VectorKey{{Time: 0, Value: math.Vec3{Y: -1}}},
			RotationKeys: []anim.QuatKey{
				{Time: 0, Value: math.QuatIdentity()},
				{Time: 4, Value: math.QuatFromAxisAngle(math.Vec3{X: 1}, 1)},
			},
		}},
	}
	return &Scene{
		Name:      "leg",
		Skeleton:  sk,
		Meshes:    []*skin.Mesh{m},
		Materials: []Material{{Name: "skin", Diffuse: [4]float32{0.5, 0.9, 0.9, 1}, HasDiffuse: true}},
		Clips:     []*anim.Clip{clip},
	}
}

func TestPoseBindPoseLeavesMeshAlone(t *testing.T) {
	sc := testScene(t)
	ctx, err := NewAnimationContext(sc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Pose(); err != nil {
		t.Fatalf("Pose: %v", err)
	}
	if sc.Meshes[0].Vertices[0] != [3]float32{0, -2, 0} {
		t.Errorf("bind pose moved vertex: %v", sc.Meshes[0].Vertices[0])
	}
}

func TestStepIsDeterministic(t *testing.T) {
	a := testScene(t)
	b := testScene(t)
	ca, _ := NewAnimationContext(a, a.Clip(""))
	cb, _ := NewAnimationContext(b, b.Clip("kick"))

	for i := 0; i < 3; i++ {
		if err := ca.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if ca.Tick != 3 {
		t.Fatalf("tick after three steps = %d, want 3", ca.Tick)
	}
	cb.Tick = 2
	if err := cb.Pose(); err != nil {
		t.Fatal(err)
	}
	if a.Meshes[0].Vertices[0] != b.Meshes[0].Vertices[0] {
		t.Errorf("last step posed %v, posing tick 2 directly = %v",
			a.Meshes[0].Vertices[0], b.Meshes[0].Vertices[0])
	}
	if a.Meshes[0].Vertices[0] == [3]float32{0, -2, 0} {
		t.Error("animation should have moved the shin vertex")
	}
}

func TestAdvancePolicies(t *testing.T) {
	sc := testScene(t)
	ctx, _ := NewAnimationContext(sc, sc.Clip(""))

	ctx.Policy = TickWrap
	ctx.Tick = 4
	ctx.Advance()
	if ctx.Tick != 0 {
		t.Errorf("wrap policy at duration: tick = %d, want 0", ctx.Tick)
	}
	ctx.Advance()
	if ctx.Tick != 1 {
		t.Errorf("wrap policy below duration: tick = %d, want 1", ctx.Tick)
	}

	ctx.Policy = TickFree
	ctx.Tick = 4
	ctx.Advance()
	if ctx.Tick != 5 {
		t.Errorf("free policy: tick = %d, want 5", ctx.Tick)
	}
	if ParseTickPolicy("wrap") != TickWrap || ParseTickPolicy("") != TickFree {
		t.Error("ParseTickPolicy mismatch")
	}
}

func TestIndexModeShowsLastKeyBeforeWrap(t *testing.T) {
	sc := testScene(t)
	clip := sc.Clips[0]
	clip.Channels[0].PositionKeys = nil
	for x := 0; x <= 4; x++ {
		clip.Channels[0].PositionKeys = append(clip.Channels[0].PositionKeys,
			anim.VectorKey{Time: float64(x), Value: math.Vec3{X: float32(x)}})
	}
	ctx, err := NewAnimationContext(sc, clip)
	if err != nil {
		t.Fatal(err)
	}
	ctx.Policy = TickWrap
	ctx.Evaluator.Mode = anim.SampleIndex
	shin, _ := sc.Skeleton.Find("shin")

	ctx.Tick = 3
	for _, want := range []float32{3, 4, 0, 1} {
		posed := ctx.Tick
		if err := ctx.Step(); err != nil {
			t.Fatal(err)
		}
		if got := sc.Skeleton.Local(shin).TransformPoint([3]float32{})[0]; got != want {
			t.Errorf("tick %d posed key x=%v, want %v", posed, got, want)
		}
	}

	// A free-running counter still wraps inside the evaluator.
	ctx.Policy = TickFree
	ctx.Tick = 4
	if err := ctx.Pose(); err != nil {
		t.Fatal(err)
	}
	if got := sc.Skeleton.Local(shin).TransformPoint([3]float32{})[0]; got != 0 {
		t.Errorf("free tick 4 posed key x=%v, want 0", got)
	}
}

func TestRestartRestoresBindPose(t *testing.T) {
	sc := testScene(t)
	shin, _ := sc.Skeleton.Find("shin")
	rest := sc.Skeleton.Local(shin)
	ctx, _ := NewAnimationContext(sc, sc.Clip("kick"))

	ctx.Tick = 2
	if err := ctx.Step(); err != nil {
		t.Fatal(err)
	}
	if sc.Meshes[0].Vertices[0] == sc.Meshes[0].BaseVertices()[0] {
		t.Fatal("tick 2 should bend the shin")
	}

	ctx.Restart()
	if ctx.Tick != 0 {
		t.Errorf("tick after Restart = %d, want 0", ctx.Tick)
	}
	if sc.Skeleton.Local(shin) != rest {
		t.Errorf("shin local = %v, want rest %v", sc.Skeleton.Local(shin), rest)
	}
	if got := sc.Meshes[0].Vertices[0]; got != [3]float32{0, -2, 0} {
		t.Errorf("vertex after Restart = %v, want bind pose", got)
	}
}

func TestSetWalking(t *testing.T) {
	sc := testScene(t)
	ctx, _ := NewAnimationContext(sc, sc.Clip(""))

	ctx.SetWalking(true)
	if ctx.Walking {
		t.Error("walking needs a retarget clip")
	}

	rt, err := anim.NewRetarget(sc.Clips[0], map[string]int{"shin": 0})
	if err != nil {
		t.Fatal(err)
	}
	ctx.Walk = rt
	ctx.SetWalking(true)
	if !ctx.Walking || !ctx.Evaluator.PinAll || ctx.Evaluator.Retarget != rt {
		t.Error("SetWalking(true) should pin positions and install the retarget")
	}
	ctx.SetWalking(false)
	if ctx.Evaluator.PinAll || ctx.Evaluator.Retarget != nil {
		t.Error("SetWalking(false) should restore primary playback")
	}
}

func TestPoseReportsUnresolvedBone(t *testing.T) {
	sc := testScene(t)
	sc.Meshes[0].Bones[0].Name = "ankle"
	ctx, _ := NewAnimationContext(sc, nil)
	if err := ctx.Pose(); !errors.Is(err, skeleton.ErrUnresolvedBoneReference) {
		t.Errorf("Pose error = %v, want ErrUnresolvedBoneReference", err)
	}
}

func TestBoundsAndFit(t *testing.T) {
	sc := testScene(t)
	lo, hi, ok := sc.Bounds()
	if !ok {
		t.Fatal("Bounds() reported no geometry")
	}
	if lo != (math.Vec3{Y: -2}) || hi != (math.Vec3{}) {
		t.Errorf("Bounds() = %v..%v", lo, hi)
	}

	fit := FitMatrix(math.Vec3{X: -2, Y: 0, Z: 0}, math.Vec3{X: 2, Y: 1, Z: 1}, true)
	got := fit.TransformPoint([3]float32{2, 0.5, 0.5})
	if got != [3]float32{0.5, 0, 0} {
		t.Errorf("fit corner = %v, want (0.5,0,0)", got)
	}
	if FitMatrix(math.Vec3{}, math.Vec3{}, false) != math.Identity() {
		t.Error("degenerate box should not scale")
	}
}

func TestMeshTransformUnskinned(t *testing.T) {
	sc := testScene(t)
	m := skin.NewMesh("prop", [][3]float32{{0, 0, 0}}, nil)
	m.Node = 1
	if got := sc.MeshTransform(m).TransformPoint([3]float32{}); got != [3]float32{0, -1, 0} {
		t.Errorf("unskinned mesh should follow its node, got %v", got)
	}
	if sc.MeshTransform(sc.Meshes[0]) != math.Identity() {
		t.Error("skinned mesh should draw with identity")
	}
}

func TestInfoWriters(t *testing.T) {
	sc := testScene(t)
	var buf bytes.Buffer
	WriteSummary(&buf, sc)
	WriteMeshes(&buf, sc)
	WriteTree(&buf, sc)
	WriteBones(&buf, sc)
	WriteAnimations(&buf, sc, true)
	out := buf.String()

	for _, want := range []string{
		"Meshes:     1",
		"[0] leg: verts=2 faces=0 bones=1 material=0",
		"colour: 0.5 0.9 0.9",
		"  shin (parent=hip children=0",
		"Bone shin mesh=0 weights=1",
		"[0] kick: channels=1",
		"rot 1 t=4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
