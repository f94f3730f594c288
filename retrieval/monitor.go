package retrieval

import "github.com/poiesic/docbase/core"

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps during a search.
type Monitor interface {
	Start(query string)
	AfterQueryEmbedding(dim int)
	AfterIndexSearch(results []*core.SearchResult)
	Finish(citations map[string]*core.Citation)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)                {}
func (n *noopMonitor) AfterIndexSearch(_ []*core.SearchResult)  {}
func (n *noopMonitor) Finish(_ map[string]*core.Citation)       {}
