package services

import (
	"testing"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
)

func TestExpandBulkEdgesLinkGroup(t *testing.T) {
	req := BulkEdgeRequest{
		LinkGroups: []LinkGroupRequest{{
			Code:    "ESPLANADE",
			TeamIDs: []string{"t03", "t07", "t12", "t19"},
		}},
	}

	pairs, err := ExpandBulkEdges(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A group of four expands to 4*3/2 canonical pairs.
	if len(pairs) != 6 {
		t.Fatalf("pair count = %d, want 6", len(pairs))
	}
	for i, p := range pairs {
		if p.TeamIDA >= p.TeamIDB {
			t.Fatalf("pair %d not canonical: %s >= %s", i, p.TeamIDA, p.TeamIDB)
		}
		if p.Reason == nil || *p.Reason != "ESPLANADE" {
			t.Fatalf("pair %d missing link group code as reason", i)
		}
		if i > 0 {
			prev := pairs[i-1]
			if prev.TeamIDA > p.TeamIDA || (prev.TeamIDA == p.TeamIDA && prev.TeamIDB > p.TeamIDB) {
				t.Fatalf("pairs not sorted lexicographically at %d", i)
			}
		}
	}
}

func TestExpandBulkEdgesDeduplicates(t *testing.T) {
	req := BulkEdgeRequest{
		Pairs: []EdgePairRequest{
			{TeamIDA: "t2", TeamIDB: "t1"},
			{TeamIDA: "t1", TeamIDB: "t2"},
		},
		LinkGroups: []LinkGroupRequest{{Code: "G", TeamIDs: []string{"t1", "t2"}}},
	}

	pairs, err := ExpandBulkEdges(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("pair count = %d, want 1", len(pairs))
	}
	if pairs[0].TeamIDA != "t1" || pairs[0].TeamIDB != "t2" {
		t.Fatalf("pair not canonical: %+v", pairs[0])
	}
}

func TestExpandBulkEdgesOrderInvariant(t *testing.T) {
	forward := BulkEdgeRequest{Pairs: []EdgePairRequest{
		{TeamIDA: "a", TeamIDB: "b"},
		{TeamIDA: "c", TeamIDB: "d"},
		{TeamIDA: "e", TeamIDB: "f"},
	}}
	backward := BulkEdgeRequest{Pairs: []EdgePairRequest{
		{TeamIDA: "f", TeamIDB: "e"},
		{TeamIDA: "d", TeamIDB: "c"},
		{TeamIDA: "b", TeamIDB: "a"},
	}}

	first, err := ExpandBulkEdges(forward)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ExpandBulkEdges(backward)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].TeamIDA != second[i].TeamIDA || first[i].TeamIDB != second[i].TeamIDB {
			t.Fatalf("position %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExpandBulkEdgesRejectsSelfEdge(t *testing.T) {
	req := BulkEdgeRequest{Pairs: []EdgePairRequest{{TeamIDA: "t1", TeamIDB: "t1"}}}
	_, err := ExpandBulkEdges(req)
	if err == nil {
		t.Fatal("self edge must be rejected")
	}
	if apperr.CodeOf(err) != apperr.CodeSelfEdge {
		t.Fatalf("code = %s, want %s", apperr.CodeOf(err), apperr.CodeSelfEdge)
	}

	grouped := BulkEdgeRequest{LinkGroups: []LinkGroupRequest{{Code: "G", TeamIDs: []string{"t1", "t1"}}}}
	if _, err := ExpandBulkEdges(grouped); err == nil {
		t.Fatal("duplicate id inside a link group must be rejected")
	}
}
