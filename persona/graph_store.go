package persona

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type GraphStore interface {
	UserInsight(ctx context.Context, userID string) (Insight, error)
}

type Neo4jGraphStore struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jGraphStore(driver neo4j.DriverWithContext) *Neo4jGraphStore {
	return &Neo4jGraphStore{driver: driver}
}

// UserInsight reads the persona graph for one user: how many exports they
// uploaded, from which platforms, which sender identities are theirs, and
// their ranked starter words.
func (s *Neo4jGraphStore) UserInsight(ctx context.Context, userID string) (Insight, error) {
	if s.driver == nil {
		return Insight{}, fmt.Errorf("neo4j driver is nil")
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User {id: $user_id})
		OPTIONAL MATCH (u)-[:UPLOADED]->(e:Export)
		OPTIONAL MATCH (e)-[:FROM_SOURCE]->(src:Source)
		OPTIONAL MATCH (u)-[:WRITES_AS]->(sender:Sender)
		OPTIONAL MATCH (e)-[rel:USES_STARTER]->(starter:Starter)
		WITH u,
		     count(DISTINCT e) AS exportCount,
		     collect(DISTINCT src.name) AS sources,
		     collect(DISTINCT sender.name) AS senders,
		     starter, min(rel.rank) AS bestRank
		ORDER BY bestRank
		WITH u, exportCount, sources, senders,
		     [w IN collect(starter.word) WHERE w IS NOT NULL] AS starters
		RETURN exportCount,
		       [s IN sources WHERE s IS NOT NULL] AS sources,
		       [s IN senders WHERE s IS NOT NULL] AS senders,
		       starters
	`, map[string]any{"user_id": userID})
	if err != nil {
		return Insight{}, fmt.Errorf("run persona insight query: %w", err)
	}

	insight := Insight{}
	if result.Next(ctx) {
		record := result.Record()
		if raw, ok := record.Get("exportCount"); ok {
			if count, ok := raw.(int64); ok {
				insight.ExportCount = int(count)
			}
		}
		if raw, ok := record.Get("sources"); ok {
			insight.Sources = toStringSlice(raw)
		}
		if raw, ok := record.Get("senders"); ok {
			insight.Senders = toStringSlice(raw)
		}
		if raw, ok := record.Get("starters"); ok {
			insight.Starters = toStringSlice(raw)
		}
	}
	if err := result.Err(); err != nil {
		return Insight{}, fmt.Errorf("read persona insight result: %w", err)
	}

	return insight, nil
}

func toStringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		if value, ok := item.(string); ok && value != "" {
			values = append(values, value)
		}
	}
	return values
}

var _ GraphStore = (*Neo4jGraphStore)(nil)
