package main

import (
	"context"
	"net"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/fennec-bot/fennec/pkg/logging"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func TestShutdownHook_StopsMonitoringServer(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	a := NewApp(l, mux.NewRouter())
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.s = &discordgo.Session{}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	a.svr = &http.Server{Handler: a.r}
	go func() {
		_ = a.svr.Serve(ln)
	}()

	require.NoError(t, a.ShutdownHook())

	// The listener must be closed; new connections are refused.
	_, err = net.Dial("tcp", ln.Addr().String())
	require.Error(t, err)

	// Shutdown also cancels the application context.
	require.Error(t, a.ctx.Err())
}
