package loader

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func accessor(doc *gltf.Document, index uint32) (*gltf.Accessor, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", index)
	}
	return doc.Accessors[index], nil
}

// readFloats returns a scalar or vector accessor's components flattened,
// along with the number of components per element. Normalized integer data
// is mapped onto [-1, 1] (signed) or [0, 1] (unsigned).
func readFloats(doc *gltf.Document, index uint32) ([]float32, int, error) {
	acr, err := accessor(doc, index)
	if err != nil {
		return nil, 0, err
	}
	switch acr.Type {
	case gltf.AccessorScalar, gltf.AccessorVec2, gltf.AccessorVec3, gltf.AccessorVec4:
	default:
		return nil, 0, fmt.Errorf("accessor %d: unsupported type %v", index, acr.Type)
	}
	comps := int(acr.Type.Components())

	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "accessor %d", index)
	}
	if data == nil {
		// No buffer view and no sparse storage: all zeros.
		return make([]float32, int(acr.Count)*comps), comps, nil
	}

	out := make([]float32, 0, int(acr.Count)*comps)
	elems := reflect.ValueOf(data)
	for i := 0; i < elems.Len(); i++ {
		out = appendComponents(out, elems.Index(i), acr.Normalized)
	}
	return out, comps, nil
}

func appendComponents(out []float32, v reflect.Value, normalized bool) []float32 {
	switch v.Kind() {
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			out = appendComponents(out, v.Index(i), normalized)
		}
	case reflect.Float32:
		out = append(out, float32(v.Float()))
	case reflect.Int8, reflect.Int16:
		c := float32(v.Int())
		if normalized {
			c /= float32(int64(1)<<(v.Type().Bits()-1) - 1)
			if c < -1 {
				c = -1
			}
		}
		out = append(out, c)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		c := float32(v.Uint())
		if normalized && v.Kind() != reflect.Uint32 {
			c /= float32(uint64(1)<<v.Type().Bits() - 1)
		}
		out = append(out, c)
	}
	return out
}

// readMatrices reads a float MAT4 accessor as column-major matrices.
func readMatrices(doc *gltf.Document, index uint32) ([][16]float32, error) {
	acr, err := accessor(doc, index)
	if err != nil {
		return nil, err
	}
	if acr.Type != gltf.AccessorMat4 || acr.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("accessor %d: want float MAT4, got %v %v", index, acr.ComponentType, acr.Type)
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "accessor %d", index)
	}
	rows, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: no matrix data", index)
	}
	// The modeler indexes matrices as [row][column].
	out := make([][16]float32, len(rows))
	for i, m := range rows {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				out[i][c*4+r] = m[r][c]
			}
		}
	}
	return out, nil
}
