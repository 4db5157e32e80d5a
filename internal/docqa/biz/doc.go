// Package biz implements the question answering pipeline.
//
// The pipeline is split into small components that compose in QAService:
//   - Chunker: splits normalized document text into retrieval chunks
//   - Indexer: embeds chunks and builds the in-memory vector index
//   - Retriever: finds the chunks most relevant to a question
//   - PromptBuilder: assembles prompts under a token budget
//   - Generator: calls the chat model and parses its response
//   - DocCache / AnswerCache: reuse processed documents and answers
package biz
