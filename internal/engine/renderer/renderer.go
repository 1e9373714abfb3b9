// Package renderer draws a posed scene with OpenGL: lit meshes, a
// checkerboard floor and a planar shadow.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/engine/renderer/shaders"
	"github.com/Faultbox/rigview/internal/engine/shader"
	"github.com/Faultbox/rigview/internal/engine/shadow"
	"github.com/Faultbox/rigview/internal/engine/texture"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/internal/scene"
	"github.com/Faultbox/rigview/internal/skin"
	"github.com/Faultbox/rigview/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Lighting describes the single light and the default surface.
type Lighting struct {
	Position     [4]float32
	Ambient      float32
	Shininess    float32
	DefaultColor [4]float32
	ReplaceColor bool
	TwoSided     bool
}

// Floor describes the checkerboard floor.
type Floor struct {
	Enabled bool
	Size    int
	Tile    int
	Y       float32
	Colors  [2][3]float32
}

// Frame is everything that changes between draws.
type Frame struct {
	Projection math.Mat4
	View       math.Mat4
	Eye        math.Vec3
	// Model places the whole scene: fit, centring and user rotation.
	Model  math.Mat4
	Shadow bool
}

type gpuMesh struct {
	mesh       *skin.Mesh
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	texture    uint32
	color      [4]float32
}

type floorMesh struct {
	vao, vbo, ebo uint32
	evenCount     int32
	oddCount      int32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config   Config
	lighting Lighting
	floorCfg Floor

	program *shader.Program
	meshes  []*gpuMesh
	floor   *floorMesh
	scratch []float32

	log *zap.Logger
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, lighting Lighting, floor Floor) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		lighting: lighting,
		floorCfg: floor,
		log:      logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0, 0, 0, 1)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.program, err = shader.NewProgram(shaders.LitVertexShader, shaders.LitFragmentShader,
		"uProjection", "uView", "uModel", "uNormalMatrix",
		"uLightPos", "uEyePos", "uColor", "uAmbient", "uShininess",
		"uLit", "uTwoSided", "uUseTexture", "uTexture",
	)
	if err != nil {
		return nil, fmt.Errorf("lit shader: %w", err)
	}

	if floor.Enabled {
		r.floor = newFloorMesh(floor)
	}

	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	r.clearMeshes()
	if r.floor != nil {
		gl.DeleteVertexArrays(1, &r.floor.vao)
		gl.DeleteBuffers(1, &r.floor.vbo)
		gl.DeleteBuffers(1, &r.floor.ebo)
		r.floor = nil
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the current viewport size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// Load uploads every mesh of sc along with its material texture. Vertex
// buffers are dynamic so Update can rewrite them every tick.
func (r *Renderer) Load(sc *scene.Scene) {
	r.clearMeshes()

	textures := make(map[int]uint32)
	for _, m := range sc.Meshes {
		if len(m.Vertices) == 0 || len(m.Indices) == 0 {
			continue
		}
		gm := &gpuMesh{mesh: m}
		mat := sc.Material(m)
		gm.color = MeshColor(mat, r.lighting.DefaultColor, r.lighting.ReplaceColor)
		if mat != nil && mat.Image != nil {
			tex, ok := textures[m.Material]
			if !ok {
				tex = texture.Upload(texture.ImageToRGBA(mat.Image))
				textures[m.Material] = tex
			}
			gm.texture = tex
		}
		r.uploadMesh(gm)
		r.meshes = append(r.meshes, gm)
	}

	r.log.Info("scene uploaded",
		zap.String("scene", sc.Name),
		zap.Int("meshes", len(r.meshes)),
		zap.Int("textures", len(textures)),
	)
}

func (r *Renderer) uploadMesh(gm *gpuMesh) {
	r.scratch = Interleave(r.scratch, gm.mesh)

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(r.scratch)*4, unsafe.Pointer(&r.scratch[0]), gl.DYNAMIC_DRAW)
	setVertexLayout()

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(gm.mesh.Indices)*4, unsafe.Pointer(&gm.mesh.Indices[0]), gl.STATIC_DRAW)
	gm.indexCount = int32(len(gm.mesh.Indices))

	gl.BindVertexArray(0)
}

func setVertexLayout() {
	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)
}

func newFloorMesh(cfg Floor) *floorMesh {
	verts, even, odd := FloorGeometry(cfg.Size, cfg.Tile, cfg.Y)
	if len(verts) == 0 {
		return nil
	}
	f := &floorMesh{evenCount: int32(len(even)), oddCount: int32(len(odd))}
	indices := append(even, odd...)

	gl.GenVertexArrays(1, &f.vao)
	gl.BindVertexArray(f.vao)
	gl.GenBuffers(1, &f.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, f.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.STATIC_DRAW)
	setVertexLayout()
	gl.GenBuffers(1, &f.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, f.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)
	gl.BindVertexArray(0)
	return f
}

// Update copies the current frame of every skinned mesh into its vertex
// buffer. Call after the scene has been posed.
func (r *Renderer) Update() {
	for _, gm := range r.meshes {
		if !gm.mesh.Skinned() {
			continue
		}
		r.scratch = Interleave(r.scratch, gm.mesh)
		gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(r.scratch)*4, unsafe.Pointer(&r.scratch[0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Draw renders the floor, the scene and, when requested, its shadow.
func (r *Renderer) Draw(sc *scene.Scene, f Frame) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	p := r.program
	p.Use()
	p.SetMat4("uProjection", f.Projection)
	p.SetMat4("uView", f.View)
	p.SetVec4("uLightPos", r.lighting.Position)
	p.SetVec3("uEyePos", f.Eye.Array())
	p.SetFloat("uAmbient", r.lighting.Ambient)
	p.SetFloat("uShininess", r.lighting.Shininess)
	p.SetBool("uTwoSided", r.lighting.TwoSided)
	p.SetInt("uTexture", 0)

	if r.floor != nil {
		r.drawFloor()
	}

	p.SetBool("uLit", true)
	for _, gm := range r.meshes {
		model := f.Model.Mul(sc.MeshTransform(gm.mesh))
		p.SetMat4("uModel", model)
		p.SetMat4("uNormalMatrix", model.NormalMatrix())
		p.SetVec4("uColor", gm.color)
		p.SetBool("uUseTexture", gm.texture != 0)
		if gm.texture != 0 {
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, gm.texture)
		}
		gm.draw()
	}

	if f.Shadow {
		flat := shadow.PlanarMatrix(r.lighting.Position, r.floorCfg.Y)
		p.SetBool("uLit", false)
		p.SetBool("uUseTexture", false)
		p.SetVec4("uColor", [4]float32{0, 0, 0, 1})
		p.SetMat4("uNormalMatrix", math.Identity())
		for _, gm := range r.meshes {
			p.SetMat4("uModel", flat.Mul(f.Model).Mul(sc.MeshTransform(gm.mesh)))
			gm.draw()
		}
	}

	gl.BindVertexArray(0)
}

func (gm *gpuMesh) draw() {
	gl.BindVertexArray(gm.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, gm.indexCount, gl.UNSIGNED_INT, 0)
}

func (r *Renderer) drawFloor() {
	p := r.program
	p.SetBool("uLit", true)
	p.SetBool("uUseTexture", false)
	p.SetMat4("uModel", math.Identity())
	p.SetMat4("uNormalMatrix", math.Identity())

	gl.BindVertexArray(r.floor.vao)
	c := r.floorCfg.Colors
	p.SetVec4("uColor", [4]float32{c[0][0], c[0][1], c[0][2], 1})
	gl.DrawElementsWithOffset(gl.TRIANGLES, r.floor.evenCount, gl.UNSIGNED_INT, 0)
	p.SetVec4("uColor", [4]float32{c[1][0], c[1][1], c[1][2], 1})
	gl.DrawElementsWithOffset(gl.TRIANGLES, r.floor.oddCount, gl.UNSIGNED_INT, uintptr(r.floor.evenCount)*4)
}

// ReadPixels returns the framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}

func (r *Renderer) clearMeshes() {
	seen := make(map[uint32]bool)
	for _, gm := range r.meshes {
		gl.DeleteVertexArrays(1, &gm.vao)
		gl.DeleteBuffers(1, &gm.vbo)
		gl.DeleteBuffers(1, &gm.ebo)
		if gm.texture != 0 && !seen[gm.texture] {
			seen[gm.texture] = true
			texture.Delete(gm.texture)
		}
	}
	r.meshes = nil
}
