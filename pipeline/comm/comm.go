// Package comm provides the collective operations a fixed-size worker group
// shares: all-gather, scatter and barrier, with strict rank ordering.
//
// Every collective is a blocking barrier: all members must reach it before
// any proceeds, and a member that never arrives blocks its peers
// indefinitely. Timeouts are an operational concern outside this layer.
// Fatal conditions detected inside a collective (such as mismatched vector
// lengths) are reported through the collective itself, to every member, so
// no member aborts while its peers sit in the barrier.
package comm

// Communicator exposes the collective operations visible to one member of a
// worker group. Rank/position correspondence is preserved exactly: the i-th
// element of an AllGather result is always rank i's contribution, and
// Scatter delivers the root's i-th value to rank i.
type Communicator interface {
	// Size returns the number of members in the group.
	Size() int
	// Rank returns this member's index in [0, Size).
	Rank() int
	// AllGather exchanges each member's vector and returns all of them in
	// rank order. All members must contribute vectors of the same length.
	AllGather(local []float64) ([][]float64, error)
	// Scatter distributes the root's values so that rank i receives
	// values[i]. Non-root members pass nil.
	Scatter(values []float64, root int) (float64, error)
	// Barrier blocks until every member has entered it.
	Barrier() error
}

// Solo returns a single-member Communicator for undistributed runs.
func Solo() Communicator { return solo{} }

type solo struct{}

func (solo) Size() int { return 1 }

func (solo) Rank() int { return 0 }

func (solo) AllGather(local []float64) ([][]float64, error) {
	return [][]float64{append([]float64(nil), local...)}, nil
}

func (solo) Scatter(values []float64, root int) (float64, error) {
	if root != 0 {
		return 0, errBadRoot(root, 1)
	}
	if len(values) != 1 {
		return 0, errScatterLen(len(values), 1)
	}
	return values[0], nil
}

func (solo) Barrier() error { return nil }
