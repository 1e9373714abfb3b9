package loader

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/rigview/internal/scene"
	"github.com/Faultbox/rigview/pkg/math"
)

// writeMat4s stores column-major matrices as a MAT4 accessor. The modeler
// indexes matrices as [row][column].
func writeMat4s(doc *gltf.Document, mats []math.Mat4) uint32 {
	rows := make([][4][4]float32, len(mats))
	for i, m := range mats {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				rows[i][r][c] = m[c*4+r]
			}
		}
	}
	return modeler.WriteAccessor(doc, gltf.TargetNone, rows)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// riggedDocument builds root -> bone with a three-vertex skinned triangle,
// a material with an embedded texture and one rotation clip on "bone".
func riggedDocument(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	joints := modeler.WriteJoints(doc, [][4]uint16{{0, 0, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0}})
	weights := modeler.WriteWeights(doc, [][4]float32{{1, 0, 0, 0}, {1, 0, 0, 0}, {0.5, 0.5, 0, 0}})

	doc.Meshes = []*gltf.Mesh{{
		Name: "body",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]uint32{
				"POSITION":  pos,
				"NORMAL":    nrm,
				"JOINTS_0":  joints,
				"WEIGHTS_0": weights,
			},
			Indices:  gltf.Index(idx),
			Material: gltf.Index(0),
		}},
	}}

	imgIdx, err := modeler.WriteImage(doc, "skin.png", "image/png", bytes.NewReader(pngBytes(t)))
	if err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(imgIdx)}}
	doc.Materials = []*gltf.Material{{
		Name: "skin",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:  &[4]float32{0.5, 0.9, 0.9, 1},
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	}}

	doc.Nodes = []*gltf.Node{
		{Name: "root", Children: []uint32{1}},
		{Name: "bone", Translation: [3]float32{1, 0, 0}},
		{Name: "body", Mesh: gltf.Index(0), Skin: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = []uint32{0, 2}

	ibm := writeMat4s(doc, []math.Mat4{math.Identity(), math.Translate(-1, 0, 0)})
	doc.Skins = []*gltf.Skin{{Name: "rig", Joints: []uint32{0, 1}, InverseBindMatrices: gltf.Index(ibm)}}

	quarter := math.QuatFromAxisAngle(math.Vec3{Z: 1}, 1.5707964)
	times := modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, []float32{0, 1})
	rots := modeler.WriteTangent(doc, [][4]float32{{0, 0, 0, 1}, {quarter.X, quarter.Y, quarter.Z, quarter.W}})
	doc.Animations = []*gltf.Animation{{
		Name: "bend",
		Samplers: []*gltf.AnimationSampler{{
			Input:         gltf.Index(times),
			Output:        gltf.Index(rots),
			Interpolation: gltf.InterpolationLinear,
		}},
		Channels: []*gltf.Channel{{
			Sampler: gltf.Index(0),
			Target:  gltf.ChannelTarget{Node: gltf.Index(1), Path: gltf.TRSRotation},
		}},
	}}
	return doc
}

func load(t *testing.T) *scene.Scene {
	t.Helper()
	sc, err := FromDocument(riggedDocument(t), Options{})
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	return sc
}

func TestFromDocumentSkeleton(t *testing.T) {
	sc := load(t)
	if sc.Skeleton.Len() != 3 {
		t.Fatalf("nodes = %d, want 3", sc.Skeleton.Len())
	}
	bone, ok := sc.Skeleton.Find("bone")
	if !ok {
		t.Fatal("bone node missing")
	}
	root, _ := sc.Skeleton.Find("root")
	if sc.Skeleton.Parent(bone) != root {
		t.Errorf("bone parent = %d, want %d", sc.Skeleton.Parent(bone), root)
	}
	if got := sc.Skeleton.World(bone).TransformPoint([3]float32{}); got != [3]float32{1, 0, 0} {
		t.Errorf("bone rest origin = %v, want (1,0,0)", got)
	}
}

func TestFromDocumentMesh(t *testing.T) {
	sc := load(t)
	if len(sc.Meshes) != 1 {
		t.Fatalf("meshes = %d, want 1", len(sc.Meshes))
	}
	m := sc.Meshes[0]
	if len(m.BaseVertices()) != 3 || len(m.Indices) != 3 || len(m.BaseNormals()) != 3 {
		t.Errorf("mesh sizes: verts=%d indices=%d normals=%d", len(m.BaseVertices()), len(m.Indices), len(m.BaseNormals()))
	}
	if len(m.Bones) != 2 {
		t.Fatalf("bones = %d, want 2", len(m.Bones))
	}
	if m.Bones[1].Name != "bone" || m.Bones[1].Offset != math.Translate(-1, 0, 0) {
		t.Errorf("bone 1 = %s offset %v", m.Bones[1].Name, m.Bones[1].Offset)
	}
	if got := len(m.Bones[0].Weights); got != 2 {
		t.Errorf("root weights = %d, want 2", got)
	}
	if w := m.Bones[1].Weights; len(w) != 2 || w[1].Vertex != 2 || w[1].Weight != 0.5 {
		t.Errorf("bone weights = %+v", w)
	}
}

func TestFromDocumentMaterial(t *testing.T) {
	sc := load(t)
	mat := sc.Material(sc.Meshes[0])
	if mat == nil {
		t.Fatal("mesh has no material")
	}
	if !mat.HasDiffuse || mat.Diffuse != [4]float32{0.5, 0.9, 0.9, 1} {
		t.Errorf("diffuse = %v (has=%v)", mat.Diffuse, mat.HasDiffuse)
	}
	if mat.Image == nil || mat.Image.Bounds().Dx() != 2 {
		t.Errorf("embedded texture not decoded: %v", mat.Image)
	}
	if mat.TexturePath != "skin.png" {
		t.Errorf("TexturePath = %q, want skin.png", mat.TexturePath)
	}
}

func TestFromDocumentDataURITexture(t *testing.T) {
	doc := riggedDocument(t)
	doc.Images[0] = &gltf.Image{URI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))}
	sc, err := FromDocument(doc, Options{})
	if err != nil {
		t.Fatal(err)
	}
	mat := sc.Materials[0]
	if mat.Image == nil || mat.Image.Bounds().Dx() != 2 {
		t.Errorf("data URI texture not decoded: %v", mat.Image)
	}
	if mat.TexturePath != "image0" {
		t.Errorf("TexturePath = %q, want image0", mat.TexturePath)
	}
}

func TestFromDocumentSkipTextures(t *testing.T) {
	sc, err := FromDocument(riggedDocument(t), Options{SkipTextures: true})
	if err != nil {
		t.Fatal(err)
	}
	if sc.Materials[0].Image != nil {
		t.Error("SkipTextures should leave images undecoded")
	}
}

func TestFromDocumentClip(t *testing.T) {
	sc := load(t)
	clip := sc.Clip("bend")
	if clip == nil {
		t.Fatal("clip bend missing")
	}
	if clip.Duration != DefaultTicksPerSecond {
		t.Errorf("duration = %v ticks, want %v", clip.Duration, DefaultTicksPerSecond)
	}
	if len(clip.Channels) != 1 {
		t.Fatalf("channels = %d, want 1", len(clip.Channels))
	}
	ch := clip.Channels[0]
	if ch.NodeName != "bone" || len(ch.RotationKeys) != 2 || ch.RotationKeys[1].Time != 30 {
		t.Errorf("channel = %+v", ch)
	}
	// The missing translation track falls back to the rest position.
	if len(ch.PositionKeys) != 1 || ch.PositionKeys[0].Value != (math.Vec3{X: 1}) {
		t.Errorf("position keys = %+v, want rest (1,0,0)", ch.PositionKeys)
	}
}

func TestFromDocumentInverseBindMatrices(t *testing.T) {
	sc := load(t)
	bones := sc.Meshes[0].Bones
	if len(bones) != 2 {
		t.Fatalf("bones = %d, want 2", len(bones))
	}
	if bones[0].Offset != math.Identity() {
		t.Errorf("root offset = %v, want identity", bones[0].Offset)
	}
	if bones[1].Offset != math.Translate(-1, 0, 0) {
		t.Errorf("bone offset = %v, want translate(-1,0,0)", bones[1].Offset)
	}
}

func TestFromDocumentQuantizedRotation(t *testing.T) {
	doc := riggedDocument(t)
	// 23170/32767 is sin(45 degrees): a quarter turn about Z.
	rots := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]int16{{0, 0, 0, 32767}, {0, 0, 23170, 23170}})
	doc.Accessors[rots].Normalized = true
	doc.Animations[0].Samplers[0].Output = gltf.Index(rots)

	sc, err := FromDocument(doc, Options{})
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	keys := sc.Clip("bend").Channels[0].RotationKeys
	if len(keys) != 2 {
		t.Fatalf("rotation keys = %d, want 2", len(keys))
	}
	if keys[0].Value != math.QuatIdentity() {
		t.Errorf("first key = %+v, want identity", keys[0].Value)
	}
	want := math.QuatFromAxisAngle(math.Vec3{Z: 1}, 1.5707964)
	got := keys[1].Value
	if abs(got.Z-want.Z) > 1e-4 || abs(got.W-want.W) > 1e-4 || got.X != 0 || got.Y != 0 {
		t.Errorf("second key = %+v, want %+v", got, want)
	}
}

func TestFromDocumentSparseTimes(t *testing.T) {
	doc := riggedDocument(t)
	// Times [0, 1] stored as zeros with one sparse override at index 1.
	indices := modeler.WriteBufferView(doc, gltf.TargetNone, []uint16{1})
	values := modeler.WriteBufferView(doc, gltf.TargetNone, []float32{1})
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorScalar,
		Count:         2,
		Sparse: &gltf.Sparse{
			Count:   1,
			Indices: gltf.SparseIndices{BufferView: indices, ComponentType: gltf.ComponentUshort},
			Values:  gltf.SparseValues{BufferView: values},
		},
	})
	doc.Animations[0].Samplers[0].Input = gltf.Index(uint32(len(doc.Accessors) - 1))

	sc, err := FromDocument(doc, Options{})
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	clip := sc.Clip("bend")
	keys := clip.Channels[0].RotationKeys
	if len(keys) != 2 || keys[0].Time != 0 || keys[1].Time != DefaultTicksPerSecond {
		t.Errorf("key times = %+v", keys)
	}
	if clip.Duration != DefaultTicksPerSecond {
		t.Errorf("duration = %v, want %v", clip.Duration, DefaultTicksPerSecond)
	}
}

func TestReadFloatsNormalized(t *testing.T) {
	doc := gltf.NewDocument()
	b := modeler.WriteAccessor(doc, gltf.TargetNone, []int8{127, -127, -128})
	ub := modeler.WriteAccessor(doc, gltf.TargetNone, []uint8{255, 0})
	us := modeler.WriteAccessor(doc, gltf.TargetNone, []uint16{65535})
	for _, i := range []uint32{b, ub, us} {
		doc.Accessors[i].Normalized = true
	}

	tests := []struct {
		name  string
		index uint32
		want  []float32
	}{
		{"byte", b, []float32{1, -1, -1}},
		{"ubyte", ub, []float32{1, 0}},
		{"ushort", us, []float32{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, comps, err := readFloats(doc, tt.index)
			if err != nil {
				t.Fatal(err)
			}
			if comps != 1 || len(got) != len(tt.want) {
				t.Fatalf("got %v (%d comps), want %v", got, comps, tt.want)
			}
			for i := range got {
				if abs(got[i]-tt.want[i]) > 1e-6 {
					t.Errorf("component %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadMatricesRejectsVectors(t *testing.T) {
	doc := gltf.NewDocument()
	v := modeler.WriteAccessor(doc, gltf.TargetNone, [][4]float32{{1, 0, 0, 0}})
	if _, err := readMatrices(doc, v); err == nil {
		t.Error("readMatrices accepted a VEC4 accessor")
	}
	if _, err := readMatrices(doc, 99); err == nil {
		t.Error("readMatrices accepted an out-of-range index")
	}
}

func TestCustomTicksPerSecond(t *testing.T) {
	sc, err := FromDocument(riggedDocument(t), Options{TicksPerSecond: 24})
	if err != nil {
		t.Fatal(err)
	}
	if sc.Clips[0].Duration != 24 || sc.Clips[0].TicksPerSecond != 24 {
		t.Errorf("clip = %+v", sc.Clips[0])
	}
}

func TestBindPoseRoundTrip(t *testing.T) {
	sc := load(t)
	ctx, err := scene.NewAnimationContext(sc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Pose(); err != nil {
		t.Fatalf("Pose: %v", err)
	}
	m := sc.Meshes[0]
	for i, v := range m.Vertices {
		if v != m.BaseVertices()[i] {
			t.Errorf("vertex %d moved in bind pose: %v -> %v", i, m.BaseVertices()[i], v)
		}
	}
}

func TestFromDocumentEmpty(t *testing.T) {
	if _, err := FromDocument(gltf.NewDocument(), Options{}); !errors.Is(err, ErrNoScene) {
		t.Errorf("error = %v, want ErrNoScene", err)
	}
}

func TestLoadAndLoadClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.glb")
	if err := gltf.SaveBinary(riggedDocument(t), path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}

	sc, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sc.Meshes) != 1 || len(sc.Clips) != 1 {
		t.Errorf("loaded %d meshes, %d clips", len(sc.Meshes), len(sc.Clips))
	}

	clips, err := LoadClips(path, Options{})
	if err != nil {
		t.Fatalf("LoadClips: %v", err)
	}
	if len(clips) != 1 || clips[0].Name != "bend" {
		t.Errorf("clips = %+v", clips)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.glb"), Options{}); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestNodeNamesFillGaps(t *testing.T) {
	doc := &gltf.Document{Nodes: []*gltf.Node{{Name: "a"}, {}}}
	names := nodeNames(doc)
	if names[0] != "a" || names[1] != "node1" {
		t.Errorf("nodeNames = %v", names)
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
