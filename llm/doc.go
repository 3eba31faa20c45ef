// Package llm defines the data model shared by all llmkit operations:
// the tagged request and result variants for chat completions, image
// generation and file management, the typed error taxonomy, and the
// immutable bearer credentials.
//
// The package contains no network code. Request encoding lives in
// llm/request, the HTTP exchange in llm/transport, response decoding in
// llm/decode, and the composed client in llm/client.
package llm
