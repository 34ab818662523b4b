package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{Base: time.Second, Max: 5 * time.Second}
	require.Equal(t, time.Duration(0), b.Delay(0))
	require.Equal(t, time.Second, b.Delay(1))
	require.Equal(t, 2*time.Second, b.Delay(2))
	require.Equal(t, 4*time.Second, b.Delay(3))
	require.Equal(t, 5*time.Second, b.Delay(4))
	require.Equal(t, 5*time.Second, b.Delay(40))

	require.Equal(t, time.Duration(0), NoBackoff{}.Delay(3))
}

func TestWait(t *testing.T) {
	require.Nil(t, Wait(context.Background(), 0))
	require.Nil(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, context.Canceled, Wait(ctx, time.Hour))
	require.Equal(t, context.Canceled, Wait(ctx, 0))
}

func TestUTF8ContentType(t *testing.T) {
	require.Equal(t, "text/html; charset=utf-8", utf8ContentType("text/html; charset=ISO-8859-1"))
	require.Equal(t, "text/html; charset=utf-8", utf8ContentType(""))
	require.Equal(t, "text/plain; charset=utf-8", utf8ContentType("text/plain"))
}
