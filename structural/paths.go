// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package structural

import "github.com/aramiracle/GIUNet-0/graphs"

// adjacencyList is the undirected neighbor-list view the BFS-based metrics
// traverse. Neighbor order is deterministic (ascending).
type adjacencyList [][]int32

func newAdjacencyList(g *graphs.Graph) adjacencyList {
	neighbors := make(adjacencyList, g.NumNodes)
	seen := make(map[[2]int32]bool, len(g.Sources))
	add := func(u, v int32) {
		key := [2]int32{u, v}
		if seen[key] {
			return
		}
		seen[key] = true
		neighbors[u] = append(neighbors[u], v)
	}
	for i := range g.Sources {
		u, v := g.Sources[i], g.Targets[i]
		if u == v {
			continue
		}
		add(u, v)
		add(v, u)
	}
	for _, list := range neighbors {
		sortInt32(list)
	}
	return neighbors
}

func sortInt32(values []int32) {
	// Insertion sort: neighbor lists are short, and this avoids boxing into
	// sort.Slice closures in the per-source hot loop.
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j] < values[j-1]; j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
}

// bfsDistances returns the unweighted shortest-path distance from source to
// every node, -1 for unreachable nodes.
func (adj adjacencyList) bfsDistances(source int32) []int {
	dist := make([]int, len(adj))
	for i := range dist {
		dist[i] = -1
	}
	dist[source] = 0
	queue := []int32{source}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if dist[v] < 0 {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return dist
}

// bfsShortestPathDAG returns, besides the distances, the shortest-path
// predecessor lists and a node ordering by non-decreasing distance (only
// reachable nodes are included in the ordering).
func (adj adjacencyList) bfsShortestPathDAG(source int32) (dist []int, preds [][]int32, order []int32) {
	dist = make([]int, len(adj))
	for i := range dist {
		dist[i] = -1
	}
	preds = make([][]int32, len(adj))
	dist[source] = 0
	queue := []int32{source}
	order = append(order, source)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if dist[v] < 0 {
				dist[v] = dist[u] + 1
				queue = append(queue, v)
				order = append(order, v)
			}
			if dist[v] == dist[u]+1 {
				preds[v] = append(preds[v], u)
			}
		}
	}
	return dist, preds, order
}
