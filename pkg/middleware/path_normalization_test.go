package middleware

import (
	"testing"
)

func TestPathNormalizer_NormalizePath(t *testing.T) {
	normalizer := NewPathNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "UUID in path",
			input:    "/api/v1/reservations/123e4567-e89b-12d3-a456-426614174000",
			expected: "/api/v1/reservations/:id",
		},
		{
			name:     "Multiple UUIDs",
			input:    "/api/v1/resources/123e4567-e89b-12d3-a456-426614174000/reservations/987fcdeb-51a2-43f7-8a9b-123456789abc",
			expected: "/api/v1/resources/:id/reservations/:id",
		},
		{
			name:     "Numeric ID",
			input:    "/api/v1/resources/12345",
			expected: "/api/v1/resources/:id",
		},
		{
			name:     "Multiple numeric IDs",
			input:    "/api/v1/resources/12345/reservations/67890",
			expected: "/api/v1/resources/:id/reservations/:id",
		},
		{
			name:     "Mixed UUID and numeric ID",
			input:    "/api/v1/resources/123e4567-e89b-12d3-a456-426614174000/reservations/12345",
			expected: "/api/v1/resources/:id/reservations/:id",
		},
		{
			name:     "Static path unchanged",
			input:    "/api/v1/health",
			expected: "/api/v1/health",
		},
		{
			name:     "Static path with segments",
			input:    "/api/v1/availability/recent",
			expected: "/api/v1/availability/recent",
		},
		{
			name:     "Long numeric ID (int64)",
			input:    "/api/v1/resources/9223372036854775807",
			expected: "/api/v1/resources/:id",
		},
		{
			name:     "Short numeric ID",
			input:    "/api/v1/resources/1",
			expected: "/api/v1/resources/:id",
		},
		{
			name:     "Path with trailing slash",
			input:    "/api/v1/resources/12345/",
			expected: "/api/v1/resources/:id",
		},
		{
			name:     "Root path",
			input:    "/",
			expected: "/",
		},
		{
			name:     "Empty path",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizer.NormalizePath(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func BenchmarkPathNormalizer_NormalizePath(b *testing.B) {
	normalizer := NewPathNormalizer()
	path := "/api/v1/resources/123e4567-e89b-12d3-a456-426614174000/reservations/12345"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = normalizer.NormalizePath(path)
	}
}

func BenchmarkPathNormalizer_NormalizePath_Static(b *testing.B) {
	normalizer := NewPathNormalizer()
	path := "/api/v1/health"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = normalizer.NormalizePath(path)
	}
}
