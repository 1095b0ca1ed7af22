package model

import (
	"fmt"
	"strings"
)

// Ordering 信息流的三个标签页
type Ordering int

const (
	OrderingTrending Ordering = iota
	OrderingNew
	OrderingBest
)

// Orderings lists every tab in display order.
var Orderings = []Ordering{OrderingTrending, OrderingNew, OrderingBest}

func (o Ordering) String() string {
	switch o {
	case OrderingTrending:
		return "trending"
	case OrderingNew:
		return "new"
	case OrderingBest:
		return "best"
	}
	return fmt.Sprintf("ordering(%d)", int(o))
}

// SortHint is the sort parameter sent to the server. Only trending is sorted
// server-side; new and best fetch the unsorted collection.
func (o Ordering) SortHint() string {
	switch o {
	case OrderingTrending:
		return "trending"
	case OrderingNew, OrderingBest:
		return ""
	}
	return ""
}

func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trending", "":
		return OrderingTrending, nil
	case "new":
		return OrderingNew, nil
	case "best":
		return OrderingBest, nil
	}
	return OrderingTrending, fmt.Errorf("unknown ordering %q", s)
}
