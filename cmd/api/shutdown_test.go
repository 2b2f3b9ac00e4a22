package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/feed-service/internal/realtime"
	"github.com/spec-kit/feed-service/internal/worker"
)

type recordingRemover struct {
	mu   sync.Mutex
	refs []string
}

func (r *recordingRemover) Remove(_ context.Context, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = append(r.refs, ref)
	return nil
}

func (r *recordingRemover) Refs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.refs...)
}

func TestShutdownSteps_Order(t *testing.T) {
	t.Parallel()

	cleaner := worker.NewImageCleaner(&recordingRemover{}, 1, zap.NewNop(), nil)
	steps := shutdownSteps(fiber.New(), realtime.NewHub(nil, nil), cleaner)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.name)
	}
	assert.Equal(t, []string{"hub", "fiber", "image cleaner"}, names)
}

func TestRunShutdown_DrainingRequestStillCleansImage(t *testing.T) {
	t.Parallel()

	remover := &recordingRemover{}
	cleaner := worker.NewImageCleaner(remover, 4, zap.NewNop(), nil)
	cleaner.Start()

	entered := make(chan struct{})
	release := make(chan struct{})
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Delete("/post/:id", func(c *fiber.Ctx) error {
		close(entered)
		<-release
		cleaner.Schedule("images/" + c.Params("id") + ".png")
		return c.SendStatus(fiber.StatusOK)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()

	status := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodDelete, "http://"+ln.Addr().String()+"/post/p1", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			status <- 0
			return
		}
		_ = resp.Body.Close()
		status <- resp.StatusCode
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the handler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		runShutdown(ctx, zap.NewNop(), shutdownSteps(app, realtime.NewHub(nil, nil), cleaner))
	}()

	// shutdown waits for the request in flight
	assert.Never(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 100*time.Millisecond, 10*time.Millisecond)

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not finish")
	}

	assert.Equal(t, http.StatusOK, <-status)
	assert.Equal(t, []string{"images/p1.png"}, remover.Refs())
}

func TestRunShutdown_LogsFailuresAndContinues(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	var ran []string
	runShutdown(context.Background(), zap.New(core), []shutdownStep{
		{name: "first", stop: func(context.Context) error { ran = append(ran, "first"); return errors.New("boom") }},
		{name: "second", stop: func(context.Context) error { ran = append(ran, "second"); return nil }},
	})

	assert.Equal(t, []string{"first", "second"}, ran)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "first", logs.All()[0].ContextMap()["step"])
}
