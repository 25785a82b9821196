// Quill is a small chat proxy and copywriting service in front of an
// OpenAI-compatible model (DeepSeek by default).
//
// It serves a streamed conversational endpoint with per-session history and
// a 小红书 copy generator driven by per-scene prompt templates.
//
// Usage:
//
//	# Start the server (configuration from the environment)
//	DEEPSEEK_API_KEY=sk-... quill run
//
//	# Start with a configuration file
//	quill run --config /etc/quill/quill.yaml
//
//	# Print the prompt a scene would send, without calling the model
//	quill render travel --set destination=京都 --set days=5
//
//	# One streamed chat turn on the terminal
//	quill chat "用一句话介绍你自己"
//
//	# List scenes and their fields
//	quill scenes --output json
//
//	# Export the generation ledger
//	quill ledger export --format csv --since 24h > ledger.csv
package main

import "os"

func main() {
	os.Exit(Execute())
}
