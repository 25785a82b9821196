// Package openai implements the OpenAI-compatible chat completions adapter.
//
// DeepSeek's API follows the OpenAI format, so this adapter is the one the
// server uses by default:
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    Name:    "deepseek",
//	    BaseURL: "https://api.deepseek.com",
//	    APIKey:  os.Getenv("DEEPSEEK_API_KEY"),
//	    Timeout: 60 * time.Second,
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
// # Streaming
//
// Streamed replies arrive as Server-Sent Events. Each "data:" line carries
// a JSON chunk; "data: [DONE]" ends the stream. The reader returns only
// fragments with text, so role announcements and usage-only events never
// reach the caller. An error object sent in place of a chunk becomes a
// providers.StreamError.
package openai
