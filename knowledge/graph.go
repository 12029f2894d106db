// Package knowledge maintains the Neo4j persona graph: which sources a user
// has imported, who their dominant senders are, and the starter words that
// characterize their writing.
package knowledge

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Export describes one processed upload for graph synchronization.
type Export struct {
	ID             string
	UserID         string
	Filename       string
	Source         string
	MessageCount   int
	DominantSender string
	Starters       []string
}

// SyncExport upserts one export's nodes and relationships. The user node
// anchors everything so persona insights can be read back per user.
func SyncExport(ctx context.Context, driver neo4j.DriverWithContext, export Export) error {
	if driver == nil {
		return fmt.Errorf("neo4j driver is nil")
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := map[string]any{
		"id":            export.ID,
		"user_id":       export.UserID,
		"filename":      export.Filename,
		"source":        export.Source,
		"message_count": export.MessageCount,
		"sender":        export.DominantSender,
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MERGE (u:User {id: $user_id})
			MERGE (e:Export {id: $id})
			SET e.filename = $filename,
			    e.message_count = $message_count,
			    e.updated_at = datetime()
			MERGE (u)-[:UPLOADED]->(e)
		`, params); err != nil {
			return nil, fmt.Errorf("upsert export node: %w", err)
		}

		if export.Source != "" {
			if _, err := tx.Run(ctx, `
				MATCH (e:Export {id: $id})
				MERGE (s:Source {name: $source})
				MERGE (e)-[:FROM_SOURCE]->(s)
			`, params); err != nil {
				return nil, fmt.Errorf("upsert source relation: %w", err)
			}
		}

		if export.DominantSender != "" {
			if _, err := tx.Run(ctx, `
				MATCH (e:Export {id: $id})-[r:DOMINANT_SENDER]->(:Sender)
				DELETE r
			`, params); err != nil {
				return nil, fmt.Errorf("remove stale sender relation: %w", err)
			}
			if _, err := tx.Run(ctx, `
				MATCH (u:User {id: $user_id}), (e:Export {id: $id})
				MERGE (s:Sender {name: $sender, user_id: $user_id})
				MERGE (e)-[:DOMINANT_SENDER]->(s)
				MERGE (u)-[:WRITES_AS]->(s)
			`, params); err != nil {
				return nil, fmt.Errorf("upsert sender relation: %w", err)
			}
		}

		if _, err := tx.Run(ctx, `
			MATCH (e:Export {id: $id})-[r:USES_STARTER]->(:Starter)
			DELETE r
		`, params); err != nil {
			return nil, fmt.Errorf("clear existing starters: %w", err)
		}

		for rank, starter := range export.Starters {
			if starter == "" {
				continue
			}
			if _, err := tx.Run(ctx, `
				MATCH (e:Export {id: $id})
				MERGE (w:Starter {word: $word})
				MERGE (e)-[:USES_STARTER {rank: $rank}]->(w)
			`, map[string]any{
				"id":   export.ID,
				"word": starter,
				"rank": rank,
			}); err != nil {
				return nil, fmt.Errorf("upsert starter: %w", err)
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("sync export graph: %w", err)
	}

	return nil
}

// PurgeAll removes every persona graph node. Used by the clear command.
func PurgeAll(ctx context.Context, session neo4j.SessionWithContext) error {
	queries := []string{
		"MATCH (e:Export) DETACH DELETE e",
		"MATCH (s:Sender) DETACH DELETE s",
		"MATCH (w:Starter) DETACH DELETE w",
		"MATCH (s:Source) DETACH DELETE s",
		"MATCH (u:User) DETACH DELETE u",
	}

	for _, query := range queries {
		result, err := session.Run(ctx, query, nil)
		if err != nil {
			return err
		}
		if _, err := result.Consume(ctx); err != nil {
			return err
		}
	}
	return nil
}
