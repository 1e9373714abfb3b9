package skin

import (
	"github.com/Faultbox/rigview/internal/skeleton"
	"github.com/Faultbox/rigview/pkg/math"
)

// Hierarchy is the read side of a skeleton.
type Hierarchy interface {
	Resolve(name string) (int, error)
	Local(i int) math.Mat4
	Parent(i int) int
}

// Accumulate returns the skinning matrix of bone for the current pose and
// its normal matrix. The bone's offset is applied first, then each node's
// local transform from the bound node up to the root.
func Accumulate(bone *Bone, h Hierarchy) (world, normal math.Mat4, err error) {
	node, err := h.Resolve(bone.Name)
	if err != nil {
		return math.Identity(), math.Identity(), err
	}
	world = bone.Offset
	for i := node; i != skeleton.NoParent; i = h.Parent(i) {
		world = h.Local(i).Mul(world)
	}
	return world, world.NormalMatrix(), nil
}
