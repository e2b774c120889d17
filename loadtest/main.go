// Command loadtest floods a running server with due reminders and measures
// how fast the scheduler drains them into a local fake chat webhook. Start
// the server with a raised ratelimit.requests_per_second and auth.dev_mode.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Configuration
var (
	apiURL    = flag.String("api", "http://localhost:8080", "remindflow API base URL")
	sinkAddr  = flag.String("sink", "127.0.0.1:9090", "Listen address of the fake chat webhook")
	sinkHost  = flag.String("sink-url", "", "URL the server uses to reach the sink (defaults to http://<sink>/hook)")
	total     = flag.Int("n", 1000, "Number of due reminders to create")
	workers   = flag.Int("c", 20, "Concurrent create requests")
	failRatio = flag.Int("fail-every", 0, "Make every Nth delivery fail with errcode 93000 (0 disables)")
	devPass   = flag.Bool("dev-pass", true, "Send X-Dev-Pass: true")
	timeout   = flag.Duration("timeout", 10*time.Minute, "Give up waiting for the queue to drain after this long")
)

// Metrics
var (
	received    int64
	rejected    int64
	createdOK   int64
	createError int64
)

type stats struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Total   int64 `json:"total"`
}

func main() {
	flag.Parse()

	hookURL := *sinkHost
	if hookURL == "" {
		hookURL = fmt.Sprintf("http://%s/hook", *sinkAddr)
	}

	fmt.Printf("🚀 Starting dispatch load test\n")
	fmt.Printf("   API: %s\n", *apiURL)
	fmt.Printf("   Sink: %s\n", hookURL)
	fmt.Printf("   Reminders: %d\n", *total)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := startSink(*sinkAddr); err != nil {
		fmt.Printf("❌ sink: %v\n", err)
		return
	}

	webhookID, err := createWebhook(ctx, hookURL)
	if err != nil {
		fmt.Printf("❌ webhook: %v\n", err)
		return
	}

	start := time.Now()
	seed(ctx, webhookID)
	fmt.Printf("✅ Created %d reminders (%d errors) in %v\n",
		atomic.LoadInt64(&createdOK), atomic.LoadInt64(&createError), time.Since(start).Round(time.Millisecond))

	drainStart := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("❌ Timed out waiting for the queue to drain")
			return
		case <-ticker.C:
			s, err := fetchStats(ctx)
			if err != nil {
				fmt.Printf("stats error: %v\n", err)
				continue
			}
			fmt.Printf("[%s] Pending: %d | Sent: %d | Failed: %d | Sink rx: %d | Sink rejects: %d\n",
				time.Now().Format("15:04:05"), s.Pending, s.Sent, s.Failed,
				atomic.LoadInt64(&received), atomic.LoadInt64(&rejected))
			if s.Pending == 0 {
				elapsed := time.Since(drainStart)
				fmt.Printf("✅ Drained in %v (%.1f reminders/s)\n",
					elapsed.Round(time.Millisecond), float64(createdOK)/elapsed.Seconds())
				return
			}
		}
	}
}

// startSink serves a chat webhook lookalike that answers with errcode JSON.
func startSink(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/hook", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&received, 1)
		w.Header().Set("Content-Type", "application/json")
		if *failRatio > 0 && n%int64(*failRatio) == 0 {
			atomic.AddInt64(&rejected, 1)
			w.Write([]byte(`{"errcode":93000,"errmsg":"invalid webhook url"}`))
			return
		}
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	})
	go http.Serve(ln, mux)
	return nil
}

func seed(ctx context.Context, webhookID uint64) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	due := time.Now().Add(-time.Second)

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				body := map[string]any{
					"title":     fmt.Sprintf("loadtest #%d", n),
					"content":   "generated by loadtest",
					"remindAt":  due,
					"webhookId": webhookID,
				}
				if _, err := call(ctx, http.MethodPost, "/v1/reminders", body, http.StatusCreated); err != nil {
					if atomic.AddInt64(&createError, 1) == 1 {
						fmt.Printf("create error: %v\n", err)
					}
					continue
				}
				atomic.AddInt64(&createdOK, 1)
			}
		}()
	}

	for i := 0; i < *total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func createWebhook(ctx context.Context, url string) (uint64, error) {
	raw, err := call(ctx, http.MethodPost, "/v1/webhooks", map[string]any{
		"name": fmt.Sprintf("loadtest-%d", time.Now().Unix()),
		"url":  url,
	}, http.StatusCreated)
	if err != nil {
		return 0, err
	}
	var out struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func fetchStats(ctx context.Context) (*stats, error) {
	raw, err := call(ctx, http.MethodGet, "/v1/stats", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var s stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func call(ctx context.Context, method, path string, body any, want int) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, *apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if *devPass {
		req.Header.Set("X-Dev-Pass", "true")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	if resp.StatusCode != want {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, out.String())
	}
	return out.Bytes(), nil
}
