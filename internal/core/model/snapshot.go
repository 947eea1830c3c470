package model

import "time"

// RiskTier is the node risk classification derived from centrality.
type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// EdgeStrength is the edge classification derived from weight.
type EdgeStrength string

const (
	StrengthWeak   EdgeStrength = "WEAK"
	StrengthMedium EdgeStrength = "MEDIUM"
	StrengthStrong EdgeStrength = "STRONG"
)

type SnapshotNode struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        string   `json:"type,omitempty"`
	Centrality  float64  `json:"centrality"`
	Tier        RiskTier `json:"tier"`
	IsHigh      bool     `json:"isHigh"`
	IsMedium    bool     `json:"isMedium"`
	Connections int      `json:"connections"`
	Position    Position `json:"position"`
	Fixed       bool     `json:"fixed"`
	Community   string   `json:"community"`
}

type SnapshotEdge struct {
	ID       string       `json:"id"`
	Source   string       `json:"source"`
	Target   string       `json:"target"`
	Weight   float64      `json:"weight"`
	Type     string       `json:"type,omitempty"`
	Strength EdgeStrength `json:"strength"`
	IsStrong bool         `json:"isStrong"`
	IsMedium bool         `json:"isMedium"`
}

// Stats summarises a filtered, classified graph.
type Stats struct {
	TotalNodes      int `json:"totalNodes"`
	TotalEdges      int `json:"totalEdges"`
	HighRiskCount   int `json:"highRiskCount"`
	MediumRiskCount int `json:"mediumRiskCount"`
	StrongEdgeCount int `json:"strongEdgeCount"`
	CommunityCount  int `json:"communityCount"`
}

// Diagnostics counts input records discarded while building a snapshot.
type Diagnostics struct {
	DanglingEdges  int `json:"danglingEdges"`
	DuplicateNodes int `json:"duplicateNodes"`
}

// Snapshot is the immutable result of one pipeline run. A new run replaces
// it wholesale; it is never patched in place.
type Snapshot struct {
	ID          string         `json:"id"`
	CaseID      string         `json:"caseId"`
	Sequence    uint64         `json:"sequence"`
	Filter      FilterConfig   `json:"filter"`
	Nodes       []SnapshotNode `json:"nodes"`
	Edges       []SnapshotEdge `json:"edges"`
	Stats       Stats          `json:"stats"`
	Diagnostics Diagnostics    `json:"diagnostics"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Node returns the snapshot node with the given id.
func (s *Snapshot) Node(id string) (SnapshotNode, bool) {
	if s == nil {
		return SnapshotNode{}, false
	}
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return SnapshotNode{}, false
}

// NodeDetail answers a node-selection query.
type NodeDetail struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Centrality  float64  `json:"centrality"`
	Connections int      `json:"connections"`
	Tier        RiskTier `json:"tier"`
	RiskPercent float64  `json:"riskPercent"`
}
