// Package loader imports glTF 2.0 models into scenes.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/anim"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/internal/scene"
	"github.com/Faultbox/rigview/internal/skeleton"
	"github.com/Faultbox/rigview/internal/skin"
	"github.com/Faultbox/rigview/pkg/math"
)

// ErrNoScene is returned for files that hold no nodes to build a scene from.
var ErrNoScene = errors.New("model has no scene")

// DefaultTicksPerSecond converts glTF keyframe seconds to ticks.
const DefaultTicksPerSecond = 30

// Options controls import.
type Options struct {
	// TicksPerSecond scales keyframe times; zero means DefaultTicksPerSecond.
	TicksPerSecond float64
	// TextureDir resolves relative image URIs; empty means the model's directory.
	TextureDir string
	// SkipTextures leaves Material.Image nil.
	SkipTextures bool
}

func (o Options) ticksPerSecond() float64 {
	if o.TicksPerSecond > 0 {
		return o.TicksPerSecond
	}
	return DefaultTicksPerSecond
}

// Load opens a .gltf or .glb file and builds a scene from it.
func Load(path string, opts Options) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open model %s", path)
	}
	if opts.TextureDir == "" {
		opts.TextureDir = filepath.Dir(path)
	}
	sc, err := FromDocument(doc, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", path)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	logger.Named("loader").Info("loaded model",
		zap.String("path", path),
		zap.Int("nodes", sc.Skeleton.Len()),
		zap.Int("meshes", len(sc.Meshes)),
		zap.Int("clips", len(sc.Clips)))
	return sc, nil
}

// LoadClips opens a file and returns only its animation clips, for clips
// kept apart from the model they drive.
func LoadClips(path string, opts Options) ([]*anim.Clip, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open animation %s", path)
	}
	names := nodeNames(doc)
	clips, err := readClips(doc, names, opts.ticksPerSecond())
	if err != nil {
		return nil, errors.Wrapf(err, "import animation %s", path)
	}
	return clips, nil
}

// FromDocument builds a scene from an already parsed document.
func FromDocument(doc *gltf.Document, opts Options) (*scene.Scene, error) {
	if len(doc.Nodes) == 0 {
		return nil, ErrNoScene
	}
	names := nodeNames(doc)
	sk, nodeIndex, err := buildSkeleton(doc, names)
	if err != nil {
		return nil, err
	}

	sc := &scene.Scene{
		Skeleton: sk,
		Cameras:  len(doc.Cameras),
	}
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		sc.Name = doc.Scenes[*doc.Scene].Name
	}

	sc.Materials = readMaterials(doc, opts)

	for ni, n := range doc.Nodes {
		if n.Mesh == nil {
			continue
		}
		skel, ok := nodeIndex[uint32(ni)]
		if !ok {
			continue
		}
		meshes, err := readMesh(doc, n, skel, names)
		if err != nil {
			return nil, errors.Wrapf(err, "mesh on node %q", names[ni])
		}
		sc.Meshes = append(sc.Meshes, meshes...)
	}

	sc.Clips, err = readClips(doc, names, opts.ticksPerSecond())
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// nodeNames gives every node a usable name; unnamed nodes get "node<i>".
func nodeNames(doc *gltf.Document) []string {
	names := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		names[i] = n.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("node%d", i)
		}
	}
	return names
}

// nodeTransform returns the node's rest local matrix. Zero rotation and
// scale come from nodes built in code and mean identity.
func nodeTransform(n *gltf.Node) math.Mat4 {
	if n.Matrix != [16]float32{} && math.Mat4(n.Matrix) != math.Identity() {
		return math.Mat4(n.Matrix)
	}
	rot := math.QuatFrom(n.Rotation)
	if n.Rotation == [4]float32{} {
		rot = math.QuatIdentity()
	}
	scale := n.Scale
	if scale == [3]float32{} {
		scale = [3]float32{1, 1, 1}
	}
	return math.TranslateVec(math.Vec3From(n.Translation)).
		Mul(rot.ToMat4()).
		Mul(math.Scale(scale[0], scale[1], scale[2]))
}

// nodeRest returns the node's rest translation and rotation for channels
// that only animate one of them.
func nodeRest(n *gltf.Node) (math.Vec3, math.Quat) {
	if n.Matrix != [16]float32{} && math.Mat4(n.Matrix) != math.Identity() {
		m := math.Mat4(n.Matrix)
		return math.Vec3{X: m[12], Y: m[13], Z: m[14]}, math.QuatIdentity()
	}
	rot := math.QuatFrom(n.Rotation)
	if n.Rotation == [4]float32{} {
		rot = math.QuatIdentity()
	}
	return math.Vec3From(n.Translation), rot
}

// buildSkeleton adds scene nodes parents first and returns the glTF→skeleton
// index map.
func buildSkeleton(doc *gltf.Document, names []string) (*skeleton.Skeleton, map[uint32]int, error) {
	roots := sceneRoots(doc)
	sk := skeleton.New()
	index := make(map[uint32]int, len(doc.Nodes))

	var add func(n uint32, parent int) error
	add = func(n uint32, parent int) error {
		if int(n) >= len(doc.Nodes) {
			return fmt.Errorf("node %d out of range", n)
		}
		if _, seen := index[n]; seen {
			return fmt.Errorf("node %d (%s) has more than one parent", n, names[n])
		}
		idx, err := sk.Add(names[n], nodeTransform(doc.Nodes[n]), parent)
		if err != nil {
			return err
		}
		index[n] = idx
		for _, c := range doc.Nodes[n].Children {
			if err := add(c, idx); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range roots {
		if err := add(r, skeleton.NoParent); err != nil {
			return nil, nil, err
		}
	}
	if sk.Len() == 0 {
		return nil, nil, ErrNoScene
	}
	return sk, index, nil
}

// sceneRoots returns the default scene's root nodes, or every parentless
// node when the file declares no scene.
func sceneRoots(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) > 0 {
		s := uint32(0)
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			s = *doc.Scene
		}
		if len(doc.Scenes[s].Nodes) > 0 {
			return doc.Scenes[s].Nodes
		}
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// readMesh converts each primitive of the node's mesh into a skin.Mesh.
func readMesh(doc *gltf.Document, n *gltf.Node, skel int, names []string) ([]*skin.Mesh, error) {
	src := doc.Meshes[*n.Mesh]
	var bones []skin.Bone
	var joints []uint32
	if n.Skin != nil {
		var err error
		joints, bones, err = readSkin(doc, doc.Skins[*n.Skin], names)
		if err != nil {
			return nil, err
		}
	}

	var out []*skin.Mesh
	for pi, p := range src.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			logger.Named("loader").Debug("skipping non-triangle primitive",
				zap.String("mesh", src.Name), zap.Int("primitive", pi))
			continue
		}
		posIdx, ok := p.Attributes["POSITION"]
		if !ok {
			continue
		}
		pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, errors.Wrap(err, "read positions")
		}
		var indices []uint32
		if p.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil); err != nil {
				return nil, errors.Wrap(err, "read indices")
			}
		} else {
			indices = make([]uint32, len(pos))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		var normals [][3]float32
		if a, ok := p.Attributes["NORMAL"]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[a], nil); err != nil {
				return nil, errors.Wrap(err, "read normals")
			}
		} else {
			normals = skin.SmoothNormals(pos, indices)
		}

		name := src.Name
		if len(src.Primitives) > 1 {
			name = fmt.Sprintf("%s.%d", src.Name, pi)
		}
		m := skin.NewMesh(name, pos, normals)
		m.Indices = indices
		m.Node = skel
		m.Material = -1
		if p.Material != nil {
			m.Material = int(*p.Material)
		}
		if a, ok := p.Attributes["TEXCOORD_0"]; ok {
			if m.TexCoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[a], nil); err != nil {
				return nil, errors.Wrap(err, "read texcoords")
			}
		}

		if len(bones) > 0 {
			if m.Bones, err = readWeights(doc, p, joints, bones); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// readSkin returns one bone per joint, named after the joint node, with its
// inverse bind matrix as offset.
func readSkin(doc *gltf.Document, s *gltf.Skin, names []string) ([]uint32, []skin.Bone, error) {
	bones := make([]skin.Bone, len(s.Joints))
	var ibms [][16]float32
	if s.InverseBindMatrices != nil {
		var err error
		if ibms, err = readMatrices(doc, *s.InverseBindMatrices); err != nil {
			return nil, nil, errors.Wrapf(err, "skin %q inverse bind matrices", s.Name)
		}
	}
	for i, j := range s.Joints {
		if int(j) >= len(names) {
			return nil, nil, fmt.Errorf("skin %q joint %d: node %d out of range", s.Name, i, j)
		}
		bones[i] = skin.Bone{Name: names[j], Offset: math.Identity()}
		if i < len(ibms) {
			bones[i].Offset = math.Mat4(ibms[i])
		}
	}
	return s.Joints, bones, nil
}

// readWeights distributes JOINTS_0/WEIGHTS_0 into per-bone weight lists.
// Zero weights are dropped.
func readWeights(doc *gltf.Document, p *gltf.Primitive, joints []uint32, proto []skin.Bone) ([]skin.Bone, error) {
	ja, jok := p.Attributes["JOINTS_0"]
	wa, wok := p.Attributes["WEIGHTS_0"]
	if !jok || !wok {
		return nil, nil
	}
	js, err := modeler.ReadJoints(doc, doc.Accessors[ja], nil)
	if err != nil {
		return nil, errors.Wrap(err, "read joints")
	}
	ws, err := modeler.ReadWeights(doc, doc.Accessors[wa], nil)
	if err != nil {
		return nil, errors.Wrap(err, "read weights")
	}

	bones := make([]skin.Bone, len(proto))
	copy(bones, proto)
	for v := range js {
		if v >= len(ws) {
			break
		}
		for k := 0; k < 4; k++ {
			w := ws[v][k]
			if w == 0 {
				continue
			}
			j := int(js[v][k])
			if j >= len(joints) {
				return nil, fmt.Errorf("vertex %d references joint %d of %d", v, j, len(joints))
			}
			bones[j].Weights = append(bones[j].Weights, skin.VertexWeight{Vertex: v, Weight: w})
		}
	}

	// Bones without any weight only cost a matrix walk per tick.
	used := bones[:0]
	for _, b := range bones {
		if len(b.Weights) > 0 {
			used = append(used, b)
		}
	}
	return used, nil
}
