package providers

import "context"

// Provider is a chat completion upstream.
//
// All methods accept a context.Context for cancellation. Implementations
// return promptly once the context is cancelled.
//
// Example usage:
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := provider.SendCompletion(ctx, &CompletionRequest{
//	    Model:    "deepseek-chat",
//	    Messages: []Message{{Role: RoleUser, Content: "Hello!"}},
//	})
type Provider interface {
	// SendCompletion sends a single request and returns the finished reply.
	// Any failure is an upstream error (see IsUpstreamError).
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// StreamCompletion starts a streamed completion. An error is returned
	// when the upstream cannot be reached or rejects the request; once a
	// reader is returned, later failures surface from Read.
	//
	// The caller must Close the reader.
	//
	// Example:
	//
	//  stream, err := provider.StreamCompletion(ctx, req)
	//  if err != nil {
	//      return err
	//  }
	//  defer stream.Close()
	//  for {
	//      chunk, err := stream.Read(ctx)
	//      if err == io.EOF {
	//          break
	//      }
	//      if err != nil {
	//          return err
	//      }
	//      fmt.Print(chunk.Delta)
	//  }
	StreamCompletion(ctx context.Context, req *CompletionRequest) (StreamReader, error)

	// GetName returns the upstream's configured name.
	GetName() string

	// GetHealth returns request outcome statistics.
	GetHealth() ProviderHealth

	// Close releases pooled connections. The provider must not be used
	// afterwards.
	Close() error
}

// StreamReader is a pull-based stream of completion fragments.
type StreamReader interface {
	// Read returns the next non-empty fragment.
	// Returns nil and io.EOF when the stream ends normally.
	// Returns nil and an upstream error when the stream fails; fragments
	// already returned remain valid.
	Read(ctx context.Context) (*StreamChunk, error)

	// Close aborts the stream if it is still open and releases the
	// connection. It is safe to call more than once.
	Close() error
}
