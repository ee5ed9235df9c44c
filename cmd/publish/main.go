package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/user/staffstream/internal/domain"
)

// publish appends synthetic events to a notification stream at a bounded
// rate, for smoke-testing and load-testing the worker.
func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address")
	stream := flag.String("stream", "evaluations", "Target stream name")
	recipients := flag.String("recipients", "u1,u2", "Comma-separated recipient user IDs")
	formName := flag.String("form", "Q3 Review", "Form name carried in the event payload")
	count := flag.Int("n", 1, "Number of events to publish")
	eps := flag.Int("eps", 50, "Events per second limit")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis at %s: %v", *redisAddr, err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"recipients": strings.Split(*recipients, ","),
		"formName":   *formName,
	})
	if err != nil {
		log.Fatalf("failed to marshal event payload: %v", err)
	}

	limiter := rate.NewLimiter(rate.Limit(*eps), 10)

	published := 0
	for i := 0; i < *count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			log.Fatalf("rate limiter wait: %v", err)
		}

		id, err := client.XAdd(ctx, &redis.XAddArgs{
			Stream: *stream,
			Values: map[string]interface{}{domain.EventFieldKey: payload},
		}).Result()
		if err != nil {
			log.Printf("failed to publish event: %v", err)
			continue
		}
		published++
		log.Printf("published entry %s to stream %s", id, *stream)
	}

	log.Printf("done: %d/%d events published", published, *count)
}
