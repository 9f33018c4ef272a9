// paywatch awaits the payment confirmation of one participation from the
// command line: it races the Redis push channel against the status/repair
// endpoint and prints the access token once the payment lands.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/arenapix/internal/services"
	"github.com/example/arenapix/internal/watcher"
)

func main() {
	var (
		apiBase         = flag.String("api", "http://localhost:8080", "base URL of the API server")
		redisAddr       = flag.String("redis", "", "redis address for push updates; empty leaves only the poll")
		bearerToken     = flag.String("token", "", "bearer token of the participation owner")
		participationID = flag.String("participation", "", "participation id to await")
		interval        = flag.Duration("interval", 10*time.Second, "poll interval")
	)
	flag.Parse()

	if *participationID == "" {
		log.Fatal("-participation is required")
	}

	var subscriber watcher.Subscriber
	if *redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		subscriber = watcher.NewRedisSubscriber(rdb)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	status := func(ctx context.Context, id string) (*services.StatusResult, error) {
		body, err := json.Marshal(map[string]string{"participationId": id})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, *apiBase+"/api/payments/status", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if *bearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+*bearerToken)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status endpoint returned %s", resp.Status)
		}

		var result services.StatusResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, err
		}
		return &result, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := watcher.New(subscriber, status, *interval).Await(ctx, *participationID)
	if err != nil {
		log.Fatalf("awaiting payment: %v", err)
	}

	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("token:  %s\n", result.Token)
	if result.SlotNumber != nil {
		fmt.Printf("slot:   %d\n", *result.SlotNumber)
	}
}
