package dedup

import "sort"

// Cluster is a set of row indices joined by accepted pairs. Clusters are not
// transitively closed: a pair bridging two existing clusters joins only the
// first of them, so the bridged index can end up in both.
type Cluster struct {
	members map[int]struct{}
}

func newCluster(i, j int) Cluster {
	return Cluster{members: map[int]struct{}{i: {}, j: {}}}
}

// Contains reports membership of row index i.
func (c Cluster) Contains(i int) bool {
	_, ok := c.members[i]
	return ok
}

// Members returns the indices in ascending order.
func (c Cluster) Members() []int {
	out := make([]int, 0, len(c.members))
	for i := range c.members {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Representative is the smallest index, the only member kept in output.
func (c Cluster) Representative() int {
	rep := -1
	for i := range c.members {
		if rep < 0 || i < rep {
			rep = i
		}
	}
	return rep
}

// Len returns the member count.
func (c Cluster) Len() int { return len(c.members) }

// accept adds pair (i, j) to the first cluster holding either index, scanning
// in creation order, or appends a new cluster {i, j}.
// TODO: offer a union-find mode that merges clusters bridged by a later pair.
func accept(clusters []Cluster, i, j int) []Cluster {
	for _, c := range clusters {
		if c.Contains(i) || c.Contains(j) {
			c.members[i] = struct{}{}
			c.members[j] = struct{}{}
			return clusters
		}
	}
	return append(clusters, newCluster(i, j))
}
