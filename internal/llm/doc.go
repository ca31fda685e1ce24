// Package llm provides the chat-completion client used by the generation
// paths, with bounded retries and tolerant JSON decoding.
package llm
