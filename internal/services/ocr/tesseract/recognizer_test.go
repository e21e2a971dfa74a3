package tesseract

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewRecognizerLanguages(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "default", in: nil, want: []string{"eng"}},
		{name: "explicit", in: []string{"por", "eng"}, want: []string{"por", "eng"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewRecognizer(tt.in...).Languages; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Languages = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecognizeErrors(t *testing.T) {
	r := NewRecognizer()

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := r.Recognize(ctx, "whatever.png"); err == nil {
			t.Error("Recognize() expected error for cancelled context")
		}
	})

	t.Run("missing image", func(t *testing.T) {
		if _, err := r.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
			t.Error("Recognize() expected error for missing image")
		}
	})
}
