package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keepgogogo/polyglot/pkg/chat"
	"github.com/keepgogogo/polyglot/pkg/logger"
	"github.com/keepgogogo/polyglot/relay/journal"
)

// captureSink records appended journal entries in memory for assertions.
type captureSink struct {
	mu      sync.Mutex
	records []*journal.Record
}

func (s *captureSink) Append(_ context.Context, rec *journal.Record) error {
	if rec == nil {
		return journal.ErrNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) Records() []*journal.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*journal.Record(nil), s.records...)
}

// newTestRelay creates a Relay pointed at the given upstream URL with a
// capturing journal sink.
func newTestRelay(upstreamURL string, stream bool) (*Relay, *captureSink) {
	sink := &captureSink{}

	r, err := New(Config{
		ListenAddr:       ":0",
		UpstreamEndpoint: upstreamURL,
		APIKey:           "relay-key",
		Model:            "gpt-4o-mini",
		Temperature:      0.3,
		MaxTokens:        1000,
		Stream:           stream,
		Locale:           "en",
	}, sink, logger.Nop())
	Expect(err).NotTo(HaveOccurred())

	return r, sink
}

// translateBody builds the relay's inbound JSON payload.
func translateBody(text, targetLang string, stream *bool) string {
	body, err := json.Marshal(TranslateRequest{
		Text:       text,
		TargetLang: targetLang,
		Stream:     stream,
	})
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}

func boolPtr(b bool) *bool { return &b }

var _ = Describe("Relay", func() {
	var (
		r        *Relay
		sink     *captureSink
		upstream *httptest.Server
	)

	AfterEach(func() {
		if r != nil {
			r.Close()
			r = nil
		}
		if upstream != nil {
			upstream.Close()
		}
	})

	Context("when the upstream streams SSE chunks", func() {
		var gotUpstreamReq chat.Request
		var gotAuth string

		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				Expect(json.NewDecoder(req.Body).Decode(&gotUpstreamReq)).To(Succeed())
				gotAuth = req.Header.Get("Authorization")

				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				flusher, ok := w.(http.Flusher)
				Expect(ok).To(BeTrue())

				events := []string{
					"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"Hello\"}}]}\n\n",
					"data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n",
					"data: {\"choices\":[{\"delta\":{\"content\":\"!\"}}]}\n\n",
					"data: [DONE]\n\n",
				}
				for _, event := range events {
					fmt.Fprint(w, event)
					flusher.Flush()
				}
			}))
			r, sink = newTestRelay(upstream.URL, true)
		})

		It("passes the upstream bytes through verbatim", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(translateBody("Bonjour le monde", "English", nil)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			bodyStr := string(body)

			Expect(bodyStr).To(ContainSubstring(`"content":"Hello"`))
			Expect(bodyStr).To(ContainSubstring(`"content":" world"`))
			Expect(bodyStr).To(ContainSubstring("data: [DONE]\n\n"))
			// Event boundaries survive untouched.
			Expect(strings.Count(bodyStr, "\n\n")).To(BeNumerically(">=", 4))
		})

		It("composes the upstream request from config and task", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(translateBody("Bonjour", "English", nil)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			Expect(gotUpstreamReq.Model).To(Equal("gpt-4o-mini"))
			Expect(gotUpstreamReq.Stream).To(BeTrue())
			Expect(gotUpstreamReq.MaxTokens).To(Equal(1000))
			Expect(gotUpstreamReq.Messages).To(HaveLen(2))
			Expect(gotUpstreamReq.Messages[1].Content).To(ContainSubstring("Bonjour"))
			Expect(gotAuth).To(Equal("Bearer relay-key"))
		})

		It("prefers a client-supplied Authorization header over the configured key", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(translateBody("Bonjour", "English", nil)))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer client-key")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			Expect(gotAuth).To(Equal("Bearer client-key"))
		})

		It("journals the accumulated translation after the stream completes", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(translateBody("Bonjour le monde", "English", nil)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			// Drain the worker pool so the async journal append completes.
			r.Close()
			r = nil

			records := sink.Records()
			Expect(records).To(HaveLen(1))
			Expect(records[0].ID).NotTo(BeEmpty())
			Expect(records[0].Result).To(Equal("Hello world!"))
			Expect(records[0].Status).To(Equal("success"))
			Expect(records[0].Streaming).To(BeTrue())
			Expect(records[0].Text).To(Equal("Bonjour le monde"))
			Expect(records[0].TargetLang).To(Equal("English"))
		})
	})

	Context("when the request overrides streaming off", func() {
		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				var upstreamReq chat.Request
				Expect(json.NewDecoder(req.Body).Decode(&upstreamReq)).To(Succeed())
				Expect(upstreamReq.Stream).To(BeFalse())

				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"\n\nHello!"}}]}`)
			}))
			r, sink = newTestRelay(upstream.URL, true)
		})

		It("replies with a single JSON document", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(translateBody("Bonjour !", "English", boolPtr(false))))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var reply TranslateResponse
			Expect(json.NewDecoder(resp.Body).Decode(&reply)).To(Succeed())
			Expect(reply.Result).To(Equal("Hello!"))
			Expect(reply.Status).To(Equal("success"))
			Expect(reply.Model).To(Equal("gpt-4o-mini"))
			Expect(reply.ID).NotTo(BeEmpty())
		})

		It("journals the finished one-shot translation", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(translateBody("Bonjour !", "English", boolPtr(false))))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			r.Close()
			r = nil

			records := sink.Records()
			Expect(records).To(HaveLen(1))
			Expect(records[0].Result).To(Equal("Hello!"))
			Expect(records[0].Streaming).To(BeFalse())
		})
	})

	Context("when the upstream document is malformed", func() {
		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "not json")
			}))
			r, sink = newTestRelay(upstream.URL, false)
		})

		It("replies 502 and journals a failed record with the placeholder", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(translateBody("Bonjour", "English", nil)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

			r.Close()
			r = nil

			records := sink.Records()
			Expect(records).To(HaveLen(1))
			Expect(records[0].Status).To(Equal("fail"))
			Expect(records[0].Result).To(Equal("Translating..."))
		})
	})

	Context("when the upstream rejects the request", func() {
		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"bad key"}`)
			}))
			r, sink = newTestRelay(upstream.URL, true)
		})

		It("passes the upstream status through with a diagnostic body", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(translateBody("Bonjour", "English", nil)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

			var errResp chat.ErrorResponse
			Expect(json.NewDecoder(resp.Body).Decode(&errResp)).To(Succeed())
			Expect(errResp.Error).To(ContainSubstring("401"))

			r.Close()
			r = nil

			records := sink.Records()
			Expect(records).To(HaveLen(1))
			Expect(records[0].Status).To(Equal("fail"))
		})
	})

	Context("when the inbound request is invalid", func() {
		var upstreamCalled bool

		BeforeEach(func() {
			upstreamCalled = false
			upstream = httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				upstreamCalled = true
			}))
			r, sink = newTestRelay(upstream.URL, true)
		})

		AfterEach(func() {
			Expect(upstreamCalled).To(BeFalse())
		})

		It("rejects a body that is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate", strings.NewReader("{{{"))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a missing text field", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(`{"target_lang":"English"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a missing target_lang field", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/translate",
				strings.NewReader(`{"text":"Bonjour"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := r.server.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Context("configuration validation", func() {
		It("requires an upstream endpoint", func() {
			_, err := New(Config{ListenAddr: ":0"}, &captureSink{}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})
	})
})
