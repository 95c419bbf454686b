package solver

// Maximum weight matching on a general graph via Galil's O(n^3) primal-dual
// blossom method. The layout follows the well-known array formulation: the
// first n slots of each array describe vertices, the next n describe
// (potential) blossoms. Vertex duals start at the maximum edge weight and
// shrink; an edge becomes allowed once its slack reaches zero.

type weightedEdge struct {
	from, to int
	weight   float64
}

const (
	labelFree = 0
	labelS    = 1
	labelT    = 2
	// labelBreadcrumb marks S-blossoms already visited while scanning for
	// a common ancestor.
	labelBreadcrumb = 5
)

type matcher struct {
	nvertex int
	edges   []weightedEdge

	// endpoint[p] is the vertex at endpoint p; edge k owns endpoints 2k
	// (its "from" side) and 2k+1 (its "to" side).
	endpoint []int

	// neighbend[v] lists the remote endpoints of v's incident edges.
	neighbend [][]int

	// mate[v] is the remote endpoint of v's matched edge, or -1.
	mate []int

	label    []int
	labelend []int

	// inblossom[v] is the topmost blossom containing vertex v.
	inblossom []int

	blossomparent []int
	blossomchilds [][]int
	blossombase   []int
	blossomendps  [][]int

	// bestedge[b] is b's least-slack edge to an S-blossom;
	// blossombestedges[b] caches such edges per neighboring S-blossom.
	bestedge         []int
	blossombestedges [][]int

	unusedblossoms []int
	dualvar        []float64
	allowedge      []bool
	queue          []int
}

// maxWeightMatching returns mate[v] = the vertex matched to v, or -1.
// Vertices are 0..n-1; parallel edges and self-loops must not appear.
func maxWeightMatching(n int, edges []weightedEdge) []int {
	mate := make([]int, n)
	for i := range mate {
		mate[i] = -1
	}
	if len(edges) == 0 || n == 0 {
		return mate
	}

	m := newMatcher(n, edges)
	m.run()

	for v := 0; v < n; v++ {
		if m.mate[v] >= 0 {
			mate[v] = m.endpoint[m.mate[v]]
		}
	}
	return mate
}

func newMatcher(n int, edges []weightedEdge) *matcher {
	m := &matcher{
		nvertex: n,
		edges:   edges,
	}

	maxweight := 0.0
	for _, e := range edges {
		if e.weight > maxweight {
			maxweight = e.weight
		}
	}

	m.endpoint = make([]int, 2*len(edges))
	m.neighbend = make([][]int, n)
	for k, e := range edges {
		m.endpoint[2*k] = e.from
		m.endpoint[2*k+1] = e.to
		m.neighbend[e.from] = append(m.neighbend[e.from], 2*k+1)
		m.neighbend[e.to] = append(m.neighbend[e.to], 2*k)
	}

	m.mate = filled(n, -1)
	m.label = make([]int, 2*n)
	m.labelend = filled(2*n, -1)

	m.inblossom = make([]int, n)
	for v := range m.inblossom {
		m.inblossom[v] = v
	}

	m.blossomparent = filled(2*n, -1)
	m.blossomchilds = make([][]int, 2*n)
	m.blossombase = make([]int, 2*n)
	for v := 0; v < n; v++ {
		m.blossombase[v] = v
	}
	for b := n; b < 2*n; b++ {
		m.blossombase[b] = -1
	}
	m.blossomendps = make([][]int, 2*n)

	m.bestedge = filled(2*n, -1)
	m.blossombestedges = make([][]int, 2*n)

	m.unusedblossoms = make([]int, 0, n)
	for b := n; b < 2*n; b++ {
		m.unusedblossoms = append(m.unusedblossoms, b)
	}

	m.dualvar = make([]float64, 2*n)
	for v := 0; v < n; v++ {
		m.dualvar[v] = maxweight
	}

	m.allowedge = make([]bool, len(edges))

	return m
}

func filled(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// slack is the dual slack of edge k; zero means tight (usable).
func (m *matcher) slack(k int) float64 {
	e := m.edges[k]
	return m.dualvar[e.from] + m.dualvar[e.to] - 2*e.weight
}

func (m *matcher) blossomLeaves(b int) []int {
	if b < m.nvertex {
		return []int{b}
	}
	var leaves []int
	for _, t := range m.blossomchilds[b] {
		leaves = append(leaves, m.blossomLeaves(t)...)
	}
	return leaves
}

// assignLabel gives vertex w and its blossom label t, reached through
// remote endpoint p. An S-label queues the blossom's leaves for scanning;
// a T-label immediately relabels the mate of the blossom base as S.
func (m *matcher) assignLabel(w, t, p int) {
	b := m.inblossom[w]
	m.label[w] = t
	m.label[b] = t
	m.labelend[w] = p
	m.labelend[b] = p
	m.bestedge[w] = -1
	m.bestedge[b] = -1
	if t == labelS {
		m.queue = append(m.queue, m.blossomLeaves(b)...)
	} else if t == labelT {
		base := m.blossombase[b]
		m.assignLabel(m.endpoint[m.mate[base]], labelS, m.mate[base]^1)
	}
}

// scanBlossom walks up the alternating trees from v and w simultaneously
// and returns the base of their lowest common S-ancestor, or -1 when the
// trees are rooted in different unmatched vertices.
func (m *matcher) scanBlossom(v, w int) int {
	var path []int
	base := -1
	for v != -1 || w != -1 {
		b := m.inblossom[v]
		if m.label[b]&4 != 0 {
			base = m.blossombase[b]
			break
		}
		path = append(path, b)
		m.label[b] = labelBreadcrumb
		if m.labelend[b] == -1 {
			v = -1
		} else {
			v = m.endpoint[m.labelend[b]]
			b = m.inblossom[v]
			v = m.endpoint[m.labelend[b]]
		}
		if w != -1 {
			v, w = w, v
		}
	}
	for _, b := range path {
		m.label[b] = labelS
	}
	return base
}

// addBlossom contracts the odd cycle closed by edge k through base into a
// new blossom and recomputes the least-slack edge cache.
func (m *matcher) addBlossom(base, k int) {
	v := m.edges[k].from
	w := m.edges[k].to
	bb := m.inblossom[base]
	bv := m.inblossom[v]
	bw := m.inblossom[w]

	b := m.unusedblossoms[len(m.unusedblossoms)-1]
	m.unusedblossoms = m.unusedblossoms[:len(m.unusedblossoms)-1]

	m.blossombase[b] = base
	m.blossomparent[b] = -1
	m.blossomparent[bb] = b

	var path, endps []int

	// Trace back from v to the base.
	for bv != bb {
		m.blossomparent[bv] = b
		path = append(path, bv)
		endps = append(endps, m.labelend[bv])
		v = m.endpoint[m.labelend[bv]]
		bv = m.inblossom[v]
	}
	path = append(path, bb)
	reverse(path)
	reverse(endps)
	endps = append(endps, 2*k)

	// Trace back from w to the base.
	for bw != bb {
		m.blossomparent[bw] = b
		path = append(path, bw)
		endps = append(endps, m.labelend[bw]^1)
		w = m.endpoint[m.labelend[bw]]
		bw = m.inblossom[w]
	}

	m.blossomchilds[b] = path
	m.blossomendps[b] = endps
	m.label[b] = labelS
	m.labelend[b] = m.labelend[bb]
	m.dualvar[b] = 0

	for _, leaf := range m.blossomLeaves(b) {
		if m.label[m.inblossom[leaf]] == labelT {
			// Formerly T-labeled vertices now sit in an S-blossom and
			// must be scanned.
			m.queue = append(m.queue, leaf)
		}
		m.inblossom[leaf] = b
	}

	bestedgeto := filled(2*m.nvertex, -1)
	for _, child := range path {
		var nblists [][]int
		if m.blossombestedges[child] == nil {
			for _, leaf := range m.blossomLeaves(child) {
				list := make([]int, 0, len(m.neighbend[leaf]))
				for _, p := range m.neighbend[leaf] {
					list = append(list, p/2)
				}
				nblists = append(nblists, list)
			}
		} else {
			nblists = [][]int{m.blossombestedges[child]}
		}
		for _, nblist := range nblists {
			for _, k := range nblist {
				j := m.edges[k].to
				if m.inblossom[j] == b {
					j = m.edges[k].from
				}
				bj := m.inblossom[j]
				if bj != b && m.label[bj] == labelS &&
					(bestedgeto[bj] == -1 || m.slack(k) < m.slack(bestedgeto[bj])) {
					bestedgeto[bj] = k
				}
			}
		}
		m.blossombestedges[child] = nil
		m.bestedge[child] = -1
	}

	best := make([]int, 0, len(bestedgeto))
	for _, k := range bestedgeto {
		if k != -1 {
			best = append(best, k)
		}
	}
	m.blossombestedges[b] = best
	m.bestedge[b] = -1
	for _, k := range best {
		if m.bestedge[b] == -1 || m.slack(k) < m.slack(m.bestedge[b]) {
			m.bestedge[b] = k
		}
	}
}

// expandBlossom dissolves blossom b. During a stage (endstage false) b is a
// T-blossom whose dual reached zero: the even-length side of its cycle is
// relabeled to keep the alternating tree intact; the odd side is freed.
func (m *matcher) expandBlossom(b int, endstage bool) {
	for _, s := range m.blossomchilds[b] {
		m.blossomparent[s] = -1
		if s < m.nvertex {
			m.inblossom[s] = s
		} else if endstage && m.dualvar[s] == 0 {
			m.expandBlossom(s, endstage)
		} else {
			for _, leaf := range m.blossomLeaves(s) {
				m.inblossom[leaf] = s
			}
		}
	}

	if !endstage && m.label[b] == labelT {
		entrychild := m.inblossom[m.endpoint[m.labelend[b]^1]]
		j := indexOf(m.blossomchilds[b], entrychild)
		var jstep, endptrick int
		if j&1 != 0 {
			// Odd index: walk forward around the cycle.
			j -= len(m.blossomchilds[b])
			jstep = 1
			endptrick = 0
		} else {
			jstep = -1
			endptrick = 1
		}

		p := m.labelend[b]
		for j != 0 {
			m.label[m.endpoint[p^1]] = labelFree
			m.label[m.endpoint[m.blossomendps[b][pyIndex(m.blossomendps[b], j-endptrick)]^endptrick^1]] = labelFree
			m.assignLabel(m.endpoint[p^1], labelT, p)
			m.allowedge[m.blossomendps[b][pyIndex(m.blossomendps[b], j-endptrick)]/2] = true
			j += jstep
			p = m.blossomendps[b][pyIndex(m.blossomendps[b], j-endptrick)] ^ endptrick
			m.allowedge[p/2] = true
			j += jstep
		}

		bv := m.blossomchilds[b][pyIndex(m.blossomchilds[b], j)]
		m.label[m.endpoint[p^1]] = labelT
		m.label[bv] = labelT
		m.labelend[m.endpoint[p^1]] = p
		m.labelend[bv] = p
		m.bestedge[bv] = -1
		j += jstep

		for m.blossomchilds[b][pyIndex(m.blossomchilds[b], j)] != entrychild {
			bv := m.blossomchilds[b][pyIndex(m.blossomchilds[b], j)]
			if m.label[bv] == labelS {
				j += jstep
				continue
			}
			labeled := -1
			for _, leaf := range m.blossomLeaves(bv) {
				if m.label[leaf] != labelFree {
					labeled = leaf
					break
				}
			}
			if labeled != -1 {
				m.label[labeled] = labelFree
				m.label[m.endpoint[m.mate[m.blossombase[bv]]]] = labelFree
				m.assignLabel(labeled, labelT, m.labelend[labeled])
			}
			j += jstep
		}
	}

	m.label[b] = -1
	m.labelend[b] = -1
	m.blossomchilds[b] = nil
	m.blossomendps[b] = nil
	m.blossombase[b] = -1
	m.blossombestedges[b] = nil
	m.bestedge[b] = -1
	m.unusedblossoms = append(m.unusedblossoms, b)
}

// augmentBlossom swaps matched and unmatched edges inside blossom b so
// vertex v becomes the new base.
func (m *matcher) augmentBlossom(b, v int) {
	t := v
	for m.blossomparent[t] != b {
		t = m.blossomparent[t]
	}
	if t >= m.nvertex {
		m.augmentBlossom(t, v)
	}

	i := indexOf(m.blossomchilds[b], t)
	j := i
	var jstep, endptrick int
	if i&1 != 0 {
		j -= len(m.blossomchilds[b])
		jstep = 1
		endptrick = 0
	} else {
		jstep = -1
		endptrick = 1
	}

	for j != 0 {
		j += jstep
		t := m.blossomchilds[b][pyIndex(m.blossomchilds[b], j)]
		p := m.blossomendps[b][pyIndex(m.blossomendps[b], j-endptrick)] ^ endptrick
		if t >= m.nvertex {
			m.augmentBlossom(t, m.endpoint[p])
		}
		j += jstep
		t = m.blossomchilds[b][pyIndex(m.blossomchilds[b], j)]
		if t >= m.nvertex {
			m.augmentBlossom(t, m.endpoint[p^1])
		}
		m.mate[m.endpoint[p]] = p ^ 1
		m.mate[m.endpoint[p^1]] = p
	}

	m.blossomchilds[b] = rotate(m.blossomchilds[b], i)
	m.blossomendps[b] = rotate(m.blossomendps[b], i)
	m.blossombase[b] = m.blossombase[m.blossomchilds[b][0]]
}

// augmentMatching flips the matching along the augmenting path that runs
// through edge k, from both of its endpoints down to the tree roots.
func (m *matcher) augmentMatching(k int) {
	starts := [2][2]int{
		{m.edges[k].from, 2*k + 1},
		{m.edges[k].to, 2 * k},
	}
	for _, start := range starts {
		s, p := start[0], start[1]
		for {
			bs := m.inblossom[s]
			if bs >= m.nvertex {
				m.augmentBlossom(bs, s)
			}
			m.mate[s] = p
			if m.labelend[bs] == -1 {
				break // reached an unmatched root
			}
			t := m.endpoint[m.labelend[bs]]
			bt := m.inblossom[t]
			s = m.endpoint[m.labelend[bt]]
			j := m.endpoint[m.labelend[bt]^1]
			if bt >= m.nvertex {
				m.augmentBlossom(bt, j)
			}
			m.mate[j] = m.labelend[bt]
			p = m.labelend[bt] ^ 1
		}
	}
}

func (m *matcher) run() {
	n := m.nvertex
	for stage := 0; stage < n; stage++ {
		for i := range m.label {
			m.label[i] = labelFree
		}
		for i := range m.bestedge {
			m.bestedge[i] = -1
		}
		for b := n; b < 2*n; b++ {
			m.blossombestedges[b] = nil
		}
		for i := range m.allowedge {
			m.allowedge[i] = false
		}
		m.queue = m.queue[:0]

		for v := 0; v < n; v++ {
			if m.mate[v] == -1 && m.label[m.inblossom[v]] == labelFree {
				m.assignLabel(v, labelS, -1)
			}
		}

		augmented := false
		for {
			for len(m.queue) > 0 && !augmented {
				v := m.queue[len(m.queue)-1]
				m.queue = m.queue[:len(m.queue)-1]

				for _, p := range m.neighbend[v] {
					k := p / 2
					w := m.endpoint[p]
					if m.inblossom[v] == m.inblossom[w] {
						continue
					}

					var kslack float64
					if !m.allowedge[k] {
						kslack = m.slack(k)
						if kslack <= 0 {
							m.allowedge[k] = true
						}
					}

					if m.allowedge[k] {
						if m.label[m.inblossom[w]] == labelFree {
							m.assignLabel(w, labelT, p^1)
						} else if m.label[m.inblossom[w]] == labelS {
							base := m.scanBlossom(v, w)
							if base >= 0 {
								m.addBlossom(base, k)
							} else {
								m.augmentMatching(k)
								augmented = true
								break
							}
						} else if m.label[w] == labelFree {
							m.label[w] = labelT
							m.labelend[w] = p ^ 1
						}
					} else if m.label[m.inblossom[w]] == labelS {
						b := m.inblossom[v]
						if m.bestedge[b] == -1 || kslack < m.slack(m.bestedge[b]) {
							m.bestedge[b] = k
						}
					} else if m.label[w] == labelFree {
						if m.bestedge[w] == -1 || kslack < m.slack(m.bestedge[w]) {
							m.bestedge[w] = k
						}
					}
				}
			}

			if augmented {
				break
			}

			// Pick the smallest dual adjustment that creates new tight
			// structure or ends the search.
			deltatype := 1
			delta := m.dualvar[0]
			for v := 1; v < n; v++ {
				if m.dualvar[v] < delta {
					delta = m.dualvar[v]
				}
			}
			deltaedge := -1
			deltablossom := -1

			for v := 0; v < n; v++ {
				if m.label[m.inblossom[v]] == labelFree && m.bestedge[v] != -1 {
					d := m.slack(m.bestedge[v])
					if d < delta {
						delta = d
						deltatype = 2
						deltaedge = m.bestedge[v]
					}
				}
			}
			for b := 0; b < 2*n; b++ {
				if m.blossomparent[b] == -1 && m.label[b] == labelS && m.bestedge[b] != -1 {
					d := m.slack(m.bestedge[b]) / 2
					if d < delta {
						delta = d
						deltatype = 3
						deltaedge = m.bestedge[b]
					}
				}
			}
			for b := n; b < 2*n; b++ {
				if m.blossombase[b] >= 0 && m.blossomparent[b] == -1 &&
					m.label[b] == labelT && m.dualvar[b] < delta {
					delta = m.dualvar[b]
					deltatype = 4
					deltablossom = b
				}
			}

			for v := 0; v < n; v++ {
				switch m.label[m.inblossom[v]] {
				case labelS:
					m.dualvar[v] -= delta
				case labelT:
					m.dualvar[v] += delta
				}
			}
			for b := n; b < 2*n; b++ {
				if m.blossombase[b] >= 0 && m.blossomparent[b] == -1 {
					switch m.label[b] {
					case labelS:
						m.dualvar[b] += delta
					case labelT:
						m.dualvar[b] -= delta
					}
				}
			}

			switch deltatype {
			case 1:
				// Optimum reached.
				return
			case 2:
				m.allowedge[deltaedge] = true
				i := m.edges[deltaedge].from
				if m.label[m.inblossom[i]] == labelFree {
					i = m.edges[deltaedge].to
				}
				m.queue = append(m.queue, i)
			case 3:
				m.allowedge[deltaedge] = true
				m.queue = append(m.queue, m.edges[deltaedge].from)
			case 4:
				m.expandBlossom(deltablossom, false)
			}
		}

		if !augmented {
			return
		}

		// S-blossoms with zero dual carry no constraint into the next
		// stage and can be dissolved now.
		for b := n; b < 2*n; b++ {
			if m.blossomparent[b] == -1 && m.blossombase[b] >= 0 &&
				m.label[b] == labelS && m.dualvar[b] == 0 {
				m.expandBlossom(b, true)
			}
		}
	}
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// pyIndex maps a possibly negative cycle position onto a slice index.
func pyIndex(s []int, j int) int {
	if j < 0 {
		return j + len(s)
	}
	return j
}

func rotate(s []int, i int) []int {
	out := make([]int, 0, len(s))
	out = append(out, s[i:]...)
	out = append(out, s[:i]...)
	return out
}
