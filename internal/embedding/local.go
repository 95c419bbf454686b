package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

const (
	// ProviderLocal identifies the offline hash-projection embedder.
	ProviderLocal = "local"
	// ProviderGemini identifies the Gemini embedding API.
	ProviderGemini = "gemini"

	localDimension = 256
)

// Local is a deterministic, dependency-free embedder. Each token is hashed
// into a handful of signed positions of a fixed-length vector, so texts that
// share vocabulary land near each other under cosine similarity. It is far
// cruder than a real embedding model but keeps the deterministic scorer
// usable offline and in tests.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float32, localDimension)
	for _, token := range tokens {
		h := sha256.Sum256([]byte(token))
		// Four projections per token, sign taken from a separate byte.
		for k := 0; k < 4; k++ {
			idx := binary.LittleEndian.Uint32(h[k*4:]) % localDimension
			sign := float32(1)
			if h[16+k]&1 == 1 {
				sign = -1
			}
			vec[idx] += sign
		}
	}

	return vec, nil
}

func (l *Local) Provider() string {
	return ProviderLocal
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '-' || r == '\'' ||
		(r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') ||
		r >= 0x80
}
