package main

import (
	"context"
	"testing"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHlogLevel(t *testing.T) {
	assert.Equal(t, glog.LevelDebug, hlogLevel("DEBUG"))
	assert.Equal(t, glog.LevelWarn, hlogLevel("warning"))
	assert.Equal(t, glog.LevelError, hlogLevel("error"))
	assert.Equal(t, glog.LevelInfo, hlogLevel(""))
}

func TestInitTracerProviderDisabled(t *testing.T) {
	shutdown, err := initTracerProvider(context.Background(), config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracerProviderLazyConnection(t *testing.T) {
	// gRPC 连接是惰性的，没有 collector 也能创建
	shutdown, err := initTracerProvider(context.Background(), config.TracingConfig{Endpoint: "127.0.0.1:4317"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}
