package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/openclaw/dailyflows-gateway-go/internal/signature"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/sign-webhook.go <secret> <body> [timestamp-ms]\n")
		os.Exit(1)
	}

	secret := os.Args[1]
	body := os.Args[2]
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(os.Args) > 3 {
		timestamp = os.Args[3]
	}

	fmt.Printf("X-Dailyflows-Timestamp: %s\n", timestamp)
	fmt.Printf("X-Dailyflows-Signature: %s\n", signature.Sign(secret, timestamp, body))
}
