package comm

import (
	"fmt"
	"sync"
)

func errBadRoot(root, size int) error {
	return fmt.Errorf("scatter root %d outside group of size %d", root, size)
}

func errScatterLen(got, want int) error {
	return fmt.Errorf("scatter from root carries %d values, group size is %d", got, want)
}

// Group is an in-process worker group. Each member runs in its own
// goroutine and holds the Communicator returned by Member.
//
// A collective completes only once all members have arrived, so a member
// can never start collective k+1 before every peer has finished collective
// k; the completed exchange buffer is therefore stable until all members
// have read it.
type Group struct {
	n    int
	mu   sync.Mutex
	cond *sync.Cond

	arrived    int
	generation uint64
	inGather   [][]float64
	outGather  [][]float64
	inScatter  []float64
	outScatter []float64
	err        error
}

// NewGroup creates an in-process group of n members.
func NewGroup(n int) (*Group, error) {
	if n <= 0 {
		return nil, fmt.Errorf("group size must be positive, got %d", n)
	}
	g := &Group{n: n, inGather: make([][]float64, n)}
	g.cond = sync.NewCond(&g.mu)
	return g, nil
}

// Member returns the Communicator for the given rank.
func (g *Group) Member(rank int) (Communicator, error) {
	if rank < 0 || rank >= g.n {
		return nil, fmt.Errorf("rank %d outside group of size %d", rank, g.n)
	}
	return &member{g: g, rank: rank}, nil
}

type member struct {
	g    *Group
	rank int
}

func (m *member) Size() int { return m.g.n }

func (m *member) Rank() int { return m.rank }

// arriveAndWait registers one arrival and blocks until the collective
// completes. The last arriver runs complete() under the lock, publishes the
// result and wakes the group. Returns the error complete() published, on
// every member.
func (g *Group) arriveAndWait(complete func()) error {
	gen := g.generation
	g.arrived++
	if g.arrived == g.n {
		complete()
		g.arrived = 0
		g.generation++
		g.cond.Broadcast()
	} else {
		for gen == g.generation {
			g.cond.Wait()
		}
	}
	return g.err
}

func (m *member) AllGather(local []float64) ([][]float64, error) {
	g := m.g
	g.mu.Lock()
	defer g.mu.Unlock()

	g.inGather[m.rank] = append([]float64(nil), local...)
	err := g.arriveAndWait(func() {
		g.err = nil
		for i := 1; i < g.n; i++ {
			if len(g.inGather[i]) != len(g.inGather[0]) {
				g.err = fmt.Errorf("all-gather length mismatch: rank %d sent %d values, rank 0 sent %d",
					i, len(g.inGather[i]), len(g.inGather[0]))
				break
			}
		}
		g.outGather = g.inGather
		g.inGather = make([][]float64, g.n)
	})
	if err != nil {
		return nil, err
	}
	return g.outGather, nil
}

func (m *member) Scatter(values []float64, root int) (float64, error) {
	g := m.g
	g.mu.Lock()
	defer g.mu.Unlock()

	if m.rank == root {
		g.inScatter = append([]float64(nil), values...)
	}
	err := g.arriveAndWait(func() {
		g.err = nil
		if root < 0 || root >= g.n {
			g.err = errBadRoot(root, g.n)
		} else if len(g.inScatter) != g.n {
			g.err = errScatterLen(len(g.inScatter), g.n)
		}
		g.outScatter = g.inScatter
		g.inScatter = nil
	})
	if err != nil {
		return 0, err
	}
	return g.outScatter[m.rank], nil
}

func (m *member) Barrier() error {
	g := m.g
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.arriveAndWait(func() { g.err = nil })
}
