package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type executedQuery struct {
	Query  string
	Params map[string]interface{}
}

// MockDriver answers queries from a fixed table keyed by query text.
// Statements run through ExecuteWrite only reach Committed when every
// statement of the transaction succeeds.
type MockDriver struct {
	Results    map[string]neo4j.EagerResult
	Errs       map[string]error
	Executed   []executedQuery
	Committed  []executedQuery
	RolledBack int
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Executed = append(m.Executed, executedQuery{Query: query, Params: params})
	if err := m.Errs[query]; err != nil {
		return neo4j.EagerResult{}, err
	}
	return m.Results[query], nil
}

func (m *MockDriver) ExecuteWrite(ctx context.Context, statements []Statement) error {
	var pending []executedQuery
	for _, st := range statements {
		m.Executed = append(m.Executed, executedQuery{Query: st.Query, Params: st.Params})
		if err := m.Errs[st.Query]; err != nil {
			m.RolledBack++
			return err
		}
		pending = append(pending, executedQuery{Query: st.Query, Params: st.Params})
	}
	m.Committed = append(m.Committed, pending...)
	return nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

func record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}
