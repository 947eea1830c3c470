package driver

const (
	FetchCaseNodesQuery = `
		MATCH (n:Entity {case_id: $case_id})
		RETURN n.id AS id,
			n.label AS label,
			n.type AS type,
			n.centrality AS centrality,
			n.x AS x,
			n.y AS y
		ORDER BY id
	`

	// The weight and type predicates mirror the client-side filter so the
	// hint only ever shrinks the payload.
	FetchCaseEdgesQuery = `
		MATCH (s:Entity {case_id: $case_id})-[r:RELATES_TO]->(t:Entity {case_id: $case_id})
		WHERE coalesce(r.weight, 0) >= $min_weight
			AND ($edge_type = "" OR r.type = $edge_type)
		RETURN r.id AS id,
			s.id AS source,
			t.id AS target,
			r.weight AS weight,
			r.type AS type
		ORDER BY id
	`

	DeleteCaseGraphQuery = `
		MATCH (n:Entity {case_id: $case_id})
		DETACH DELETE n
	`

	SaveCaseNodesQuery = `
		UNWIND $nodes AS node
		MERGE (n:Entity {case_id: $case_id, id: node.id})
		SET n.label = node.label,
			n.type = node.type,
			n.centrality = node.centrality,
			n.x = node.x,
			n.y = node.y
	`

	SaveCaseEdgesQuery = `
		UNWIND $edges AS edge
		MATCH (s:Entity {case_id: $case_id, id: edge.source})
		MATCH (t:Entity {case_id: $case_id, id: edge.target})
		MERGE (s)-[r:RELATES_TO {id: edge.id}]->(t)
		SET r.weight = edge.weight,
			r.type = edge.type
	`
)
