package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortIssues_PathThenMessage(t *testing.T) {
	issues := []Issue{
		{Path: "/b", Message: "x"},
		{Path: "/a", Message: "z"},
		{Path: "/a", Message: "m"},
		{Path: "/", Message: "root"},
	}
	SortIssues(issues)
	assert.Equal(t, []Issue{
		{Path: "/", Message: "root"},
		{Path: "/a", Message: "m"},
		{Path: "/a", Message: "z"},
		{Path: "/b", Message: "x"},
	}, issues)
}

func TestIssue_String(t *testing.T) {
	assert.Equal(t, "/relations/0: bad", Issue{Path: "/relations/0", Message: "bad"}.String())
}
