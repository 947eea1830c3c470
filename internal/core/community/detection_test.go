package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/casegraph/internal/core/model"
)

func TestComponentDetector(t *testing.T) {
	nodes := []model.Node{
		{ID: "1", Label: "A"},
		{ID: "2", Label: "B"},
		{ID: "3", Label: "C"},
		{ID: "4", Label: "D"},
	}
	edges := []model.Edge{
		edge("1", "2", 4), // A-B
		edge("2", "3", 4), // B-C
		// D is isolated
	}

	labels := NewComponentDetector().Labels(nodes, edges)
	communities := Group(nodes, labels)

	require.Len(t, communities, 1)
	assert.Equal(t, []string{"1", "2", "3"}, []string{communities[0][0].ID, communities[0][1].ID, communities[0][2].ID})
	assert.Equal(t, "1", labels["3"])
	assert.Equal(t, "4", labels["4"])
}

func TestComponentDetector_MultipleCommunities(t *testing.T) {
	nodes := nodesOf("1", "2", "3", "4")
	edges := []model.Edge{edge("1", "2", 4), edge("3", "4", 4)}

	labels := NewComponentDetector().Labels(nodes, edges)

	assert.Len(t, Group(nodes, labels), 2)
	assert.Equal(t, 2, Count(labels))
}

func TestNewDetector(t *testing.T) {
	d, err := NewDetector("", 0)
	require.NoError(t, err)
	assert.IsType(t, &LabelPropagationDetector{}, d)
	assert.Equal(t, 20, d.(*LabelPropagationDetector).MaxIterations)

	d, err = NewDetector(AlgorithmLabelPropagation, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, d.(*LabelPropagationDetector).MaxIterations)

	d, err = NewDetector(AlgorithmComponents, 0)
	require.NoError(t, err)
	assert.IsType(t, &ComponentDetector{}, d)

	_, err = NewDetector("louvain", 0)
	assert.Error(t, err)
}

func TestGroup_PreservesInputOrder(t *testing.T) {
	nodes := nodesOf("x", "a", "y", "b")
	labels := map[string]string{"x": "k2", "a": "k1", "y": "k2", "b": "k1"}

	groups := Group(nodes, labels)

	require.Len(t, groups, 2)
	assert.Equal(t, "x", groups[0][0].ID)
	assert.Equal(t, "y", groups[0][1].ID)
	assert.Equal(t, "a", groups[1][0].ID)
}
