package errorsx

import (
	"context"
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	ctx := context.Background()
	originalErr := errors.New("original error")

	wrapped := Wrap(ctx, originalErr, ErrCodeInternal, "wrapped message")

	if wrapped == nil {
		t.Fatal("wrapped error is nil")
	}

	if !errors.Is(wrapped, originalErr) {
		errStr := wrapped.Error()
		if errStr == "" {
			t.Error("wrapped error message is empty")
		}
	}
}

func TestWrap_NilError(t *testing.T) {
	ctx := context.Background()

	wrapped := Wrap(ctx, nil, ErrCodeInternal, "message")

	if wrapped != nil {
		t.Error("wrapping a nil error should return nil")
	}
}

func TestWrapDatabaseError(t *testing.T) {
	ctx := context.Background()
	originalErr := errors.New("database connection failed")

	wrapped := WrapDatabaseError(ctx, originalErr, "query user")

	if wrapped == nil {
		t.Fatal("wrapped error is nil")
	}

	errMsg := wrapped.Error()
	if errMsg == "" {
		t.Error("wrapped error message is empty")
	}
}

func TestWrapDatabaseError_NilError(t *testing.T) {
	ctx := context.Background()

	wrapped := WrapDatabaseError(ctx, nil, "operation")

	if wrapped != nil {
		t.Error("wrapping a nil error should return nil")
	}
}

func TestWrapDatabaseError_NotFound(t *testing.T) {
	ctx := context.Background()

	notFoundErr := NewError(ErrCodeNotFound, "record not found")

	wrapped := WrapDatabaseError(ctx, notFoundErr, "query user")

	if wrapped == nil {
		t.Fatal("wrapped error is nil")
	}

	if !IsNotFound(wrapped) {
		t.Error("expected error code NotFound")
	}
}

func TestNew(t *testing.T) {
	err := New(ErrCodeValidation, "validation failed")

	if err == nil {
		t.Fatal("created error is nil")
	}

	errMsg := err.Error()
	if errMsg == "" {
		t.Error("error message is empty")
	}

	if !contains(errMsg, "validation failed") {
		t.Errorf("error message doesn't contain original text: %s", errMsg)
	}
}

func TestNew_DifferentErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		msg  string
	}{
		{
			name: "internal error",
			code: ErrCodeInternal,
			msg:  "internal error",
		},
		{
			name: "validation error",
			code: ErrCodeValidation,
			msg:  "validation failed",
		},
		{
			name: "not found",
			code: ErrCodeNotFound,
			msg:  "resource not found",
		},
		{
			name: "database error",
			code: ErrCodeDatabase,
			msg:  "database operation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.msg)
			if err == nil {
				t.Fatal("created error is nil")
			}

			errMsg := err.Error()
			if !contains(errMsg, tt.msg) {
				t.Errorf("error message doesn't contain original text: expected '%s', got '%s'", tt.msg, errMsg)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	ctx := context.Background()

	err1 := errors.New("underlying error")
	err2 := Wrap(ctx, err1, ErrCodeDatabase, "database layer error")
	err3 := Wrap(ctx, err2, ErrCodeInternal, "service layer error")

	if err3 == nil {
		t.Fatal("error chain result is nil")
	}

	if err3.Error() == "" {
		t.Error("error chain message is empty")
	}
}

func TestWrapWithContext(t *testing.T) {
	originalErr := errors.New("test error")

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{
			name: "background context",
			ctx:  context.Background(),
		},
		{
			name: "TODO context",
			ctx:  context.TODO(),
		},
		{
			name: "context with value",
			ctx:  context.WithValue(context.Background(), contextKeyTest{}, "value"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.ctx, originalErr, ErrCodeInternal, "test")
			if wrapped == nil {
				t.Error("wrapped error is nil")
			}
		})
	}
}

type contextKeyTest struct{}

func TestMultipleWrapCalls(t *testing.T) {
	ctx := context.Background()
	originalErr := errors.New("original error")

	err1 := Wrap(ctx, originalErr, ErrCodeDatabase, "first layer")
	err2 := Wrap(ctx, err1, ErrCodeInternal, "second layer")
	err3 := Wrap(ctx, err2, ErrCodeValidation, "third layer")

	if err3 == nil {
		t.Fatal("multiply-wrapped error is nil")
	}

	if err1 == nil || err2 == nil {
		t.Error("intermediate wrap result is nil")
	}
}

func TestConcurrentWrap(t *testing.T) {
	ctx := context.Background()
	originalErr := errors.New("concurrent test error")

	const goroutines = 10
	const operations = 100

	done := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			for j := 0; j < operations; j++ {
				wrapped := Wrap(ctx, originalErr, ErrCodeInternal, "concurrent wrap")
				if wrapped == nil {
					t.Errorf("goroutine %d: wrap result is nil", id)
				}
			}
			done <- true
		}(i)
	}

	for i := 0; i < goroutines; i++ {
		<-done
	}
}

func BenchmarkWrap(b *testing.B) {
	ctx := context.Background()
	err := errors.New("test error")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Wrap(ctx, err, ErrCodeInternal, "benchmark")
	}
}

func BenchmarkNew(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		New(ErrCodeValidation, "benchmark")
	}
}

func BenchmarkWrapDatabaseError(b *testing.B) {
	ctx := context.Background()
	err := errors.New("database error")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		WrapDatabaseError(ctx, err, "query operation")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > len(substr) && findSubstr(s, substr))
}

func findSubstr(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
