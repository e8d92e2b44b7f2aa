package mcc

// WalkFunc is called for each node during traversal.
// depth is 0 for the children of the starting group.
// Return nil to continue walking, SkipChildren to skip a group's children,
// or any other error to stop.
type WalkFunc func(n Node, depth int) error

// Walk traverses the descendants of g depth first, in document order.
//
// Example:
//
//	mcc.Walk(root, func(n mcc.Node, depth int) error {
//	    switch n := n.(type) {
//	    case *mcc.Group:
//	        fmt.Println("Group:", n.Tag, n.Kind)
//	    case *mcc.Chunk:
//	        fmt.Println("Chunk:", n.Tag, len(n.Data))
//	    }
//	    return nil
//	})
//
// Returning ErrStopWalk ends the walk and Walk returns nil.
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, 0, fn)
	if IsStopWalk(err) {
		return nil
	}
	return err
}

func walkGroup(g *Group, depth int, fn WalkFunc) error {
	for _, child := range g.Children {
		err := fn(child, depth)
		if err == SkipChildren {
			continue
		}
		if err != nil {
			return err
		}
		if sub, ok := child.(*Group); ok {
			if err := walkGroup(sub, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// SkipChildren can be returned from a WalkFunc to skip the children of the
// current group.
var SkipChildren = &walkSkipError{}

type walkSkipError struct{}

func (e *walkSkipError) Error() string { return "skip children" }

// ErrStopWalk can be returned from a WalkFunc to stop walking without an error.
var ErrStopWalk = &walkStopError{}

type walkStopError struct{}

func (e *walkStopError) Error() string { return "walk stopped" }

// IsStopWalk returns true if the error is ErrStopWalk.
func IsStopWalk(err error) bool {
	_, ok := err.(*walkStopError)
	return ok
}
