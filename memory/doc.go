// Package memory implements long-term conversational memory for assistants.
//
// Fragments of past conversations are stored as vector embeddings, retrieved
// by blended similarity when a new query arrives, and periodically folded into
// a compact per-user profile. Memories are namespaced by user ID; queries
// never cross user boundaries.
//
// Architecture:
//   - Store: durable source of truth for entries and profiles (SQLite-backed)
//   - Index: rebuildable per-user vector index over the store (chromem or hnsw)
//   - Embedder: text-to-vector conversion (OpenAI, local ONNX, or mock)
//   - Synthesizer: fragments-to-summary capability (Anthropic or OpenAI)
//
// Lifecycle components:
//   - Writer: ingestion path (embed, score importance, commit)
//   - Retriever: read path (embed query, blended ranking, access boost)
//   - ProfileSynthesizer: folds recent entries into a versioned profile
//   - Sweeper: retention enforcement (age and count caps)
//
// The engine package wires these together and runs the background jobs.
package memory
