package outline

type patchOp uint8

const (
	patchKeep patchOp = iota
	patchSet
	patchClear
)

// Patch describes a change to an optional attribute. The zero value leaves
// the attribute untouched; Set replaces it; Clear removes it.
type Patch[T any] struct {
	op    patchOp
	value T
}

func Set[T any](v T) Patch[T] { return Patch[T]{op: patchSet, value: v} }

func Clear[T any]() Patch[T] { return Patch[T]{op: patchClear} }

func (p Patch[T]) IsKeep() bool { return p.op == patchKeep }

// Value returns the new value and true when the patch sets one.
func (p Patch[T]) Value() (T, bool) { return p.value, p.op == patchSet }

// apply returns the attribute after the patch.
func (p Patch[T]) apply(cur *T) *T {
	switch p.op {
	case patchSet:
		return ptr(p.value)
	case patchClear:
		return nil
	default:
		return cur
	}
}
