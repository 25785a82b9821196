// Package providers defines the upstream model abstraction used by the chat
// relay and the copywriter.
//
// # Overview
//
// A Provider sends chat completion requests to an upstream model service,
// either as a single request/response exchange (SendCompletion) or as a
// stream of text fragments (StreamCompletion). Adapters for a concrete wire
// format live in subpackages; openai covers DeepSeek and any other
// OpenAI-compatible endpoint.
//
// # Base HTTP Provider
//
// HTTPProvider holds the machinery adapters share:
//
//   - A pooled HTTP client. Timeout bounds only the wait for response
//     headers, so a long reply can keep streaming.
//   - Status code classification into the error types below.
//   - Retries with exponential backoff for non-streaming calls. Streams are
//     opened exactly once.
//   - Request statistics. Three consecutive failures mark the provider
//     unhealthy until the next success.
//
// # Streaming
//
//	stream, err := provider.StreamCompletion(ctx, &providers.CompletionRequest{
//	    Model:       "deepseek-chat",
//	    Messages:    messages,
//	    Temperature: 0.7,
//	})
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for {
//	    chunk, err := stream.Read(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Delta)
//	}
//
// # Errors
//
// Every failure of the upstream is one of AuthError, RateLimitError,
// TimeoutError, ParseError, StreamError or ProviderError. IsUpstreamError
// and ErrorType classify them. Cancellation of the caller's context is
// reported as context.Canceled and is not an upstream error.
package providers
