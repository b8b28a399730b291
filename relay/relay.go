// Package relay provides a translation relay server: it exposes a small
// translate API, forwards each task to an upstream OpenAI-compatible
// chat-completions endpoint, and streams the upstream bytes back verbatim
// while decoding them into a running result for journaling.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keepgogogo/polyglot/pkg/chat"
	"github.com/keepgogogo/polyglot/pkg/stream"
	"github.com/keepgogogo/polyglot/pkg/task"
	"github.com/keepgogogo/polyglot/pkg/translate"
	"github.com/keepgogogo/polyglot/pkg/utils"
	"github.com/keepgogogo/polyglot/relay/header"
	"github.com/keepgogogo/polyglot/relay/journal"
	"github.com/keepgogogo/polyglot/relay/worker"
)

// TranslateRequest is the relay's inbound API payload.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang"`
	Stream     *bool  `json:"stream,omitempty"`
}

// TranslateResponse is the relay's non-streaming reply.
type TranslateResponse struct {
	ID     string `json:"id"`
	Result string `json:"result"`
	Status string `json:"status"`
	Model  string `json:"model"`
}

// Relay is the translation relay server. It forwards composed requests to the
// upstream provider and enqueues finished translations for async journaling
// via its worker pool.
type Relay struct {
	config        Config
	logger        *zap.Logger
	httpClient    *http.Client
	server        *fiber.App
	workerPool    *worker.Pool
	headerHandler *header.Handler
}

// New creates a new Relay. The sink is injected to handle async persistence
// of finished translations.
func New(config Config, sink journal.Sink, logger *zap.Logger) (*Relay, error) {
	if config.UpstreamEndpoint == "" {
		return nil, fmt.Errorf("upstream endpoint is required")
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	// Add compression middleware to handle responses
	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Sink:   sink,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	r := &Relay{
		config:        config,
		logger:        logger,
		server:        app,
		workerPool:    wp,
		headerHandler: header.NewHandler(),
		httpClient: &http.Client{
			// Translation requests can stream for a while.
			Timeout: 5 * time.Minute,
		},
	}

	app.Post("/v1/translate", r.handleTranslate)

	return r, nil
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		zap.String("listen", r.config.ListenAddr),
		zap.String("upstream", r.config.UpstreamEndpoint),
	)

	return r.server.Listen(r.config.ListenAddr)
}

// RunWithListener starts the relay server using the provided listener.
func (r *Relay) RunWithListener(listener net.Listener) error {
	r.logger.Info("starting relay server",
		zap.String("listen", listener.Addr().String()),
		zap.String("upstream", r.config.UpstreamEndpoint),
	)

	return r.server.Listener(listener)
}

// Close gracefully shuts down the relay and waits for the worker pool to drain.
func (r *Relay) Close() error {
	err := r.server.Shutdown()
	r.workerPool.Close()
	return err
}

// handleTranslate accepts a translation task, forwards it upstream, and
// replies either with a verbatim SSE stream or a single JSON document.
func (r *Relay) handleTranslate(c *fiber.Ctx) error {
	startTime := time.Now()

	var req TranslateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "text is required"})
	}
	if req.TargetLang == "" {
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "target_lang is required"})
	}

	// The relay, not the decoding core, decides streaming vs one-shot:
	// explicit request field first, configured default otherwise.
	streaming := r.config.Stream
	if req.Stream != nil {
		streaming = *req.Stream
	}

	payload, err := json.Marshal(chat.Request{
		Model:       r.config.Model,
		Messages:    translate.Messages(req.Text, req.SourceLang, req.TargetLang),
		Temperature: r.config.Temperature,
		MaxTokens:   r.config.MaxTokens,
		Stream:      streaming,
	})
	if err != nil {
		r.logger.Error("failed to encode upstream payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "internal error"})
	}

	if streaming {
		return r.handleStreaming(c, req, payload, startTime)
	}
	return r.handleOneShot(c, req, payload, startTime)
}

// upstreamRequest builds the outgoing request for one translation task.
// A context.Background() is used for streaming because fasthttp recycles its
// RequestCtx after the handler returns, while the streaming pump runs
// asynchronously and needs the upstream connection to stay open.
func (r *Relay) upstreamRequest(c *fiber.Ctx, payload []byte) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, r.config.UpstreamEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	r.headerHandler.SetUpstreamRequestHeaders(c, httpReq)
	httpReq.Header.Set("Content-Type", "application/json")
	if httpReq.Header.Get("Authorization") == "" && r.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	return httpReq, nil
}

// handleOneShot forwards a whole-document translation and replies with JSON.
func (r *Relay) handleOneShot(c *fiber.Ctx, req TranslateRequest, payload []byte, startTime time.Time) error {
	id := uuid.NewString()
	acc := task.New(task.WithLocale(r.config.Locale))

	httpReq, err := r.upstreamRequest(c, payload)
	if err != nil {
		r.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "internal error"})
	}

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		r.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(chat.ErrorResponse{Error: "upstream request failed"})
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 2048))
		r.logger.Error("upstream returned error",
			zap.Int("status", httpResp.StatusCode),
			zap.String("body", string(body)),
		)
		ferr := acc.FailTransport(httpResp.StatusCode)
		r.journalTask(id, req, acc, false, startTime)
		return c.Status(httpResp.StatusCode).JSON(chat.ErrorResponse{Error: ferr.Error()})
	}

	doc, err := io.ReadAll(httpResp.Body)
	if err != nil {
		r.logger.Error("failed to read upstream response", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(chat.ErrorResponse{Error: "failed to read upstream response"})
	}

	if err := acc.ApplyDocument(doc); err != nil {
		r.logger.Warn("failed to parse completion document", zap.Error(err))
		r.journalTask(id, req, acc, false, startTime)
		return c.Status(fiber.StatusBadGateway).JSON(chat.ErrorResponse{Error: err.Error()})
	}

	r.journalTask(id, req, acc, false, startTime)

	return c.JSON(TranslateResponse{
		ID:     id,
		Result: acc.Text(),
		Status: acc.Status().String(),
		Model:  r.config.Model,
	})
}

// handleStreaming forwards a streaming translation, passing upstream bytes
// through verbatim while decoding them for the journal.
func (r *Relay) handleStreaming(c *fiber.Ctx, req TranslateRequest, payload []byte, startTime time.Time) error {
	acc := task.New(task.WithLocale(r.config.Locale))

	httpReq, err := r.upstreamRequest(c, payload)
	if err != nil {
		r.logger.Error("failed to create upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "internal error"})
	}

	httpResp, err := r.httpClient.Do(httpReq)
	if err != nil {
		r.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(chat.ErrorResponse{Error: "upstream request failed"})
	}
	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 2048))
		httpResp.Body.Close()
		r.logger.Error("upstream returned error",
			zap.Int("status", httpResp.StatusCode),
			zap.String("body", string(body)),
		)
		ferr := acc.FailTransport(httpResp.StatusCode)
		r.journalTask(uuid.NewString(), req, acc, true, startTime)
		return c.Status(httpResp.StatusCode).JSON(chat.ErrorResponse{Error: ferr.Error()})
	}

	r.headerHandler.SetClientResponseHeaders(c, httpResp)

	// Use io.Pipe + SetBodyStream for direct backpressure: pw.Write blocks
	// until fasthttp reads from the pipe and flushes to the TCP socket,
	// giving true per-chunk streaming to the client.
	pr, pw := io.Pipe()
	go r.pumpStream(httpResp, pw, req, acc, startTime)

	// Unknown size (-1) triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// pumpStream copies upstream bytes to the pipe writer verbatim while feeding
// the same bytes through the frame decoder for accumulation.
func (r *Relay) pumpStream(httpResp *http.Response, pw *io.PipeWriter, req TranslateRequest, acc *task.Accumulator, startTime time.Time) {
	defer httpResp.Body.Close()
	defer pw.Close()

	dec := stream.NewDecoder()
	buf := make([]byte, 16*1024)

	for {
		n, err := httpResp.Body.Read(buf)
		if n > 0 {
			if _, werr := pw.Write(buf[:n]); werr != nil {
				r.logger.Error("error writing chunk to pipe", zap.Error(werr))
				return
			}
			for _, chunk := range dec.Feed(string(buf[:n])) {
				acc.ApplyChunk(chunk)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			r.logger.Error("error reading upstream stream", zap.Error(err))
			return
		}
	}

	for _, chunk := range dec.Finalize() {
		acc.ApplyChunk(chunk)
	}
	acc.Complete()

	r.logger.Debug("streaming complete",
		zap.Int("result_len", len(acc.Text())),
		zap.String("preview", utils.Truncate(acc.Text(), 80)),
		zap.Duration("duration", time.Since(startTime)),
	)

	r.journalTask(uuid.NewString(), req, acc, true, startTime)
}

// journalTask enqueues a finished translation for async journaling.
func (r *Relay) journalTask(id string, req TranslateRequest, acc *task.Accumulator, streaming bool, startTime time.Time) {
	r.workerPool.Enqueue(worker.Job{
		Record: &journal.Record{
			ID:         id,
			Model:      r.config.Model,
			SourceLang: req.SourceLang,
			TargetLang: req.TargetLang,
			Text:       req.Text,
			Result:     acc.Text(),
			Status:     acc.Status().String(),
			Streaming:  streaming,
			DurationMs: time.Since(startTime).Milliseconds(),
			CreatedAt:  time.Now().UTC(),
		},
	})
}
