package aggregate

import (
	"fmt"
	"sort"

	"libledger/pkg/contracts/domain"
)

// BuildNetwork derives the borrower-book interaction graph for one window.
// Only rows carrying both a borrower and a resolved book id contribute;
// node and edge order is lexicographic so identical inputs serialize
// identically.
func (e *Engine) BuildNetwork(window Window, txns []domain.Transaction, titles map[int64]string) domain.NetworkGraph {
	type borrowerAcc struct {
		count int
		men   int
		women int
	}
	borrowers := make(map[string]*borrowerAcc)
	books := make(map[int64]int)
	edges := make(map[[2]string]int)

	for _, txn := range txns {
		if !window.Contains(txn.Year) {
			continue
		}
		if !txn.HasBorrower() || txn.BookID == nil {
			continue
		}

		name := *txn.BorrowerName
		acc, ok := borrowers[name]
		if !ok {
			acc = &borrowerAcc{}
			borrowers[name] = acc
		}
		acc.count++
		switch txn.Gender {
		case domain.GenderMan:
			acc.men++
		case domain.GenderWoman:
			acc.women++
		}

		books[*txn.BookID]++
		edge := [2]string{borrowerNodeID(name), bookNodeID(*txn.BookID)}
		edges[edge]++
	}

	graph := domain.NetworkGraph{Window: window.Label}

	for name, acc := range borrowers {
		graph.Nodes = append(graph.Nodes, domain.NetworkNode{
			ID:     borrowerNodeID(name),
			Label:  name,
			Group:  domain.NodeGroupBorrower,
			Gender: modalGender(acc.men, acc.women),
			Value:  acc.count,
		})
	}
	for id, count := range books {
		label := titles[id]
		if label == "" {
			label = fmt.Sprintf("Unknown Book #%d", id)
		}
		graph.Nodes = append(graph.Nodes, domain.NetworkNode{
			ID:    bookNodeID(id),
			Label: label,
			Group: domain.NodeGroupBook,
			Value: count,
		})
	}
	sort.Slice(graph.Nodes, func(i, j int) bool { return graph.Nodes[i].ID < graph.Nodes[j].ID })

	for pair, value := range edges {
		graph.Edges = append(graph.Edges, domain.NetworkEdge{From: pair[0], To: pair[1], Value: value})
	}
	sort.Slice(graph.Edges, func(i, j int) bool {
		if graph.Edges[i].From != graph.Edges[j].From {
			return graph.Edges[i].From < graph.Edges[j].From
		}
		return graph.Edges[i].To < graph.Edges[j].To
	})

	graph.Summary = domain.NetworkSummary{
		TotalNodes:    len(graph.Nodes),
		TotalEdges:    len(graph.Edges),
		BookNodes:     len(books),
		BorrowerNodes: len(borrowers),
	}
	return graph
}

func borrowerNodeID(name string) string {
	return "borrower-" + name
}

func bookNodeID(id int64) string {
	return fmt.Sprintf("book-%d", id)
}

// modalGender is the borrower node's in-window majority gender. An exact tie
// with any marked rows counts as W; no marked rows is Unknown.
func modalGender(men, women int) domain.Gender {
	switch {
	case men == 0 && women == 0:
		return domain.GenderUnknown
	case women >= men:
		return domain.GenderWoman
	default:
		return domain.GenderMan
	}
}
