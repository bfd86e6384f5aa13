package domain

// NodeGroup distinguishes the two sides of the bipartite interaction graph.
type NodeGroup string

const (
	NodeGroupBook     NodeGroup = "book"
	NodeGroupBorrower NodeGroup = "borrower"
)

// NetworkNode is one book or borrower appearing inside a time window. Value
// is the node's in-window transaction count.
type NetworkNode struct {
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	Group  NodeGroup `json:"group"`
	Gender Gender    `json:"gender,omitempty"`
	Value  int       `json:"value"`
}

// NetworkEdge links a borrower node to a book node; Value is the in-window
// co-occurrence count of the pair.
type NetworkEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value int    `json:"value"`
}

// NetworkSummary carries the headline sizes of one window's graph.
type NetworkSummary struct {
	TotalNodes    int `json:"total_nodes"`
	TotalEdges    int `json:"total_edges"`
	BookNodes     int `json:"book_nodes"`
	BorrowerNodes int `json:"borrower_nodes"`
}

// NetworkGraph is the borrower-book interaction graph for one time window.
type NetworkGraph struct {
	Window  string         `json:"window"`
	Nodes   []NetworkNode  `json:"nodes"`
	Edges   []NetworkEdge  `json:"edges"`
	Summary NetworkSummary `json:"summary"`
}
