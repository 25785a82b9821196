package proxy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/quill/pkg/proxy/types"
)

func BenchmarkParseChatRequest(b *testing.B) {
	body := `{"message":"帮我写一段周末去大理旅行的小红书文案"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
		if _, err := ParseChatRequest(req, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseCopyRequest(b *testing.B) {
	body := `{"scene":"food","config":{"restaurantName":"小面馆","location":"成都","dishes":"豌杂面","priceRange":"人均30"}}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/xiaohongshu/copy", strings.NewReader(body))
		if _, err := ParseCopyRequest(req, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteJSONResponse(b *testing.B) {
	response := types.CopyResponse{Copy: strings.Repeat("✨ 成都必吃面馆 ✨\n", 40)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		if err := WriteJSONResponse(w, http.StatusOK, response); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtractRequestMetadata(b *testing.B) {
	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	req.Header.Set(SessionIDHeader, "tab-1")
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ExtractRequestMetadata(req, true)
	}
}

func BenchmarkHandleError(b *testing.B) {
	err := errors.New("ledger closed")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = HandleError(err)
	}
}

func BenchmarkTextStream(b *testing.B) {
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		stream := NewTextStream(w)
		for j := 0; j < 32; j++ {
			if err := stream.Write("片段"); err != nil {
				b.Fatal(err)
			}
		}
		stream.Finish("completed")
	}
}
