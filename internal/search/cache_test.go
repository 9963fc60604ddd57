package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls int
	fail  bool
}

func (c *countingClient) Search(_ context.Context, req Request) (*Result, error) {
	c.calls++
	if c.fail {
		return nil, errors.New("provider down")
	}
	return &Result{Query: req.Query, Answer: "ok"}, nil
}

func TestCachedClientReusesFreshResult(t *testing.T) {
	inner := &countingClient{}
	c := NewCachedClient(inner, 16, time.Minute)
	req := Request{Query: "milk price Mumbai", Depth: DepthBasic, MaxResults: 5}

	first, err := c.Search(context.Background(), req)
	require.NoError(t, err)

	second, err := c.Search(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestCachedClientKeyIncludesRequestShape(t *testing.T) {
	inner := &countingClient{}
	c := NewCachedClient(inner, 16, time.Minute)

	_, err := c.Search(context.Background(), Request{Query: "milk", MaxResults: 5})
	require.NoError(t, err)
	_, err = c.Search(context.Background(), Request{Query: "bread", MaxResults: 5})
	require.NoError(t, err)
	_, err = c.Search(context.Background(), Request{Query: "milk", MaxResults: 3})
	require.NoError(t, err)

	require.Equal(t, 3, inner.calls)
}

func TestCachedClientNeverCachesErrors(t *testing.T) {
	inner := &countingClient{fail: true}
	c := NewCachedClient(inner, 16, time.Minute)
	req := Request{Query: "milk"}

	_, err := c.Search(context.Background(), req)
	require.Error(t, err)

	inner.fail = false
	res, err := c.Search(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "ok", res.Answer)
	require.Equal(t, 2, inner.calls)
}
