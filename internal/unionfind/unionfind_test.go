package unionfind

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindSingletonIsItsOwnRoot(t *testing.T) {
	uf := New()
	assert.Equal(t, "a", uf.Find("a"))
}

func TestUnionMergesTwoSets(t *testing.T) {
	uf := New()
	uf.Union("a", "b")
	assert.Equal(t, uf.Find("a"), uf.Find("b"))
}

func TestUnionIsTransitive(t *testing.T) {
	uf := New()
	uf.Union("a", "b")
	uf.Union("b", "c")
	assert.Equal(t, uf.Find("a"), uf.Find("c"))
}

func TestUnionOfAlreadyUnifiedIsNoop(t *testing.T) {
	uf := New()
	uf.Union("a", "b")
	root := uf.Find("a")
	uf.Union("b", "a")
	assert.Equal(t, root, uf.Find("a"))
}

func TestDisjointSetsStayDisjoint(t *testing.T) {
	uf := New()
	uf.Union("a", "b")
	uf.Union("c", "d")
	assert.NotEqual(t, uf.Find("a"), uf.Find("c"))
}

func TestGroupsPartitionsAllSeenIds(t *testing.T) {
	uf := New()
	uf.Union("a", "b")
	uf.Union("b", "c")
	uf.Find("d")

	groups := uf.Groups()

	var allMembers []string
	for _, members := range groups {
		allMembers = append(allMembers, members...)
	}
	sort.Strings(allMembers)
	assert.Equal(t, []string{"a", "b", "c", "d"}, allMembers)

	var triangleGroup []string
	for _, members := range groups {
		if len(members) == 3 {
			triangleGroup = members
		}
	}
	sort.Strings(triangleGroup)
	assert.Equal(t, []string{"a", "b", "c"}, triangleGroup)
}
