package grouper

// connectedComponents extracts the connected components of an adjacency
// list over nodes 0..n-1 using breadth-first traversal. Nodes are visited
// in index order, so component membership order is deterministic and
// follows the input ordering. Every node lands in exactly one component;
// nodes without edges come out as singletons.
//
// The adjacency may be directed: traversal only follows each node's own
// outgoing edges. For undirected graphs callers add both directions.
func connectedComponents(n int, adj [][]int) [][]int {
	visited := make([]bool, n)
	var components [][]int

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		var component []int
		queue := []int{start}
		visited[start] = true

		for len(queue) > 0 {
			curr := queue[0]
			queue = queue[1:]
			component = append(component, curr)

			for _, neighbor := range adj[curr] {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, neighbor)
				}
			}
		}

		components = append(components, component)
	}

	return components
}
