// Package rerank provides Reranker implementations.
//
// Lexical scores candidates by query term overlap, term position and
// passage length without any external call. LLM asks the configured
// language model for a 0-10 relevance score per candidate.
//
// Both return a full permutation of their input. Candidates with equal
// scores keep their input order.
package rerank
