package downloader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAwaitSuccess(t *testing.T) {
	completion := make(chan error, 1)
	completion <- nil
	assert.NoError(t, Await(context.Background(), completion))
}

func TestAwaitPropagatesDownloadError(t *testing.T) {
	completion := make(chan error, 1)
	completion <- Canceled
	err := Await(context.Background(), completion)
	assert.ErrorIs(t, err, Canceled)
}

func TestAwaitTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	completion := make(chan error) // never fires
	err := Await(ctx, completion)
	assert.ErrorIs(t, err, ErrTimedOut)
}

func TestErrorIsDistinguishesKinds(t *testing.T) {
	assert.ErrorIs(t, NewHTTPError("404"), &Error{Kind: KindHTTP, Status: "404"})
	assert.NotErrorIs(t, NewHTTPError("404"), &Error{Kind: KindHTTP, Status: "500"})
	assert.ErrorIs(t, NewHTTPError("304"), NotModified)
	assert.ErrorIs(t, NotModified, NotModified)
	assert.NotErrorIs(t, Canceled, NewOtherError("boom"))
}
