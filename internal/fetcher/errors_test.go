package fetcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutNetError struct{ timeout bool }

func (e *timeoutNetError) Error() string   { return "dial tcp: i/o timeout" }
func (e *timeoutNetError) Timeout() bool   { return e.timeout }
func (e *timeoutNetError) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "deadline exceeded is a timeout",
			err:  context.DeadlineExceeded,
			want: KindTimeout,
		},
		{
			name: "wrapped deadline exceeded is a timeout",
			err:  fmt.Errorf("waiting for selector: %w", context.DeadlineExceeded),
			want: KindTimeout,
		},
		{
			name: "net timeout is a timeout",
			err:  &timeoutNetError{timeout: true},
			want: KindTimeout,
		},
		{
			name: "net error is a network error",
			err:  &timeoutNetError{timeout: false},
			want: KindNetworkError,
		},
		{
			name: "chrome network error string is a network error",
			err:  errors.New("page load error net::ERR_NAME_NOT_RESOLVED"),
			want: KindNetworkError,
		},
		{
			name: "anything else is other",
			err:  errors.New("browser crashed"),
			want: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}

func TestAsFetchError(t *testing.T) {
	fe := &FetchError{Kind: KindTimeout, URL: "https://unjobs.org", Err: context.DeadlineExceeded}
	wrapped := fmt.Errorf("fetch stage: %w", fe)

	got, ok := AsFetchError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindTimeout, got.Kind)

	_, ok = AsFetchError(errors.New("plain error"))
	assert.False(t, ok)
}
