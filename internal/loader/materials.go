package loader

import (
	"fmt"
	"image"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/engine/texture"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/internal/scene"
)

// readMaterials reads base colours and decodes base colour textures. A
// texture that fails to load leaves the material untextured.
func readMaterials(doc *gltf.Document, opts Options) []scene.Material {
	cache := texture.NewCache(opts.TextureDir)
	log := logger.Named("loader")

	out := make([]scene.Material, len(doc.Materials))
	for i, m := range doc.Materials {
		mat := scene.Material{Name: m.Name, Diffuse: [4]float32{1, 1, 1, 1}}
		pbr := m.PBRMetallicRoughness
		if pbr == nil {
			out[i] = mat
			continue
		}
		if pbr.BaseColorFactor != nil {
			mat.Diffuse = pbr.BaseColorFactorOrDefault()
			mat.HasDiffuse = true
		}
		if pbr.BaseColorTexture != nil {
			name, img, err := imageFor(doc, pbr.BaseColorTexture.Index, cache, opts.SkipTextures)
			mat.TexturePath = name
			if err != nil {
				log.Warn("texture not loaded", zap.String("material", m.Name), zap.String("image", name), zap.Error(err))
			}
			mat.Image = img
		}
		out[i] = mat
	}
	return out
}

// imageFor resolves a texture index to its image name and decoded pixels.
func imageFor(doc *gltf.Document, tex uint32, cache *texture.Cache, skip bool) (string, image.Image, error) {
	if int(tex) >= len(doc.Textures) || doc.Textures[tex].Source == nil {
		return "", nil, fmt.Errorf("texture %d has no source", tex)
	}
	src := *doc.Textures[tex].Source
	if int(src) >= len(doc.Images) {
		return "", nil, fmt.Errorf("texture %d: image %d out of range", tex, src)
	}
	im := doc.Images[src]
	name := im.URI
	if name == "" || strings.HasPrefix(name, "data:") {
		name = im.Name
		if name == "" {
			name = fmt.Sprintf("image%d", src)
		}
	}
	if skip {
		return name, nil, nil
	}

	switch {
	case im.BufferView != nil:
		if int(*im.BufferView) >= len(doc.BufferViews) {
			return name, nil, fmt.Errorf("image %s: buffer view %d out of range", name, *im.BufferView)
		}
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*im.BufferView])
		if err != nil {
			return name, nil, errors.Wrapf(err, "image %s", name)
		}
		img, err := texture.Decode(data, name)
		if err == nil {
			cache.Put(name, img)
		}
		return name, img, err
	case im.IsEmbeddedResource():
		data, err := im.MarshalData()
		if err != nil {
			return name, nil, errors.Wrapf(err, "image %s", name)
		}
		img, err := texture.Decode(data, name)
		return name, img, err
	case strings.HasPrefix(im.URI, "data:"):
		return name, nil, fmt.Errorf("image %s: embedded data is neither PNG nor JPEG", name)
	default:
		img, err := cache.Get(im.URI)
		return name, img, err
	}
}
