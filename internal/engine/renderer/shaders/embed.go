// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// LitVertexShader transforms positions and normals for per-pixel lighting.
//
//go:embed lit.vert
var LitVertexShader string

// LitFragmentShader shades with one point light, an optional texture and an
// unlit flat-colour mode used for floors and shadows.
//
//go:embed lit.frag
var LitFragmentShader string
