// Package services implements the core application services of the engine.
//
// Services implement the driving ports and depend only on domain types and
// driven port interfaces:
//
//   - SearchService: the hybrid ranking engine (boosting, fusion,
//     normalization, optional reranking)
//   - StrategyService: the query strategy orchestrator with its
//     deterministic heuristic and TTL decision cache
//   - IndexService: the indexing pipeline (chunk, hash, diff, embed, store)
//   - CollectionService: collection lifecycle management
//
// Optional collaborators (embedding service, LLM service) may be nil;
// every service degrades gracefully without them.
package services
