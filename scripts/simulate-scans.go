package main

import (
	"bytes"
	crand "crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/openmeet/ticketgate/internal/credential"
	httpDelivery "github.com/openmeet/ticketgate/internal/delivery/http"
	"github.com/openmeet/ticketgate/internal/ticket"
)

var (
	serverURL     = flag.String("server", "http://localhost:8086", "ticketgate server base URL")
	eventID       = flag.String("event", "", "Event ID (required)")
	jwtSecret     = flag.String("jwt-secret", "jwt-secret", "JWT secret the server was started with")
	numScans      = flag.Int("scans", 50, "Number of scans to fire")
	scanRate      = flag.Duration("rate", 200*time.Millisecond, "Time between scans")
	malformedRate = flag.Float64("malformed-rate", 0.1, "Probability of sending a malformed payload (0.0-1.0)")
	replayRate    = flag.Float64("replay-rate", 0.2, "Probability of re-sending an earlier ticket (0.0-1.0)")
)

type scanResponse struct {
	Outcome        string `json:"outcome"`
	Reason         string `json:"reason"`
	ReasonCode     string `json:"reason_code"`
	CheckedInCount int64  `json:"checked_in_count"`
}

func main() {
	flag.Parse()

	if *eventID == "" {
		fmt.Println("Error: --event flag is required")
		flag.Usage()
		os.Exit(1)
	}

	// One simulated door scanner with a random device identity.
	identity := make([]byte, 20)
	if _, err := crand.Read(identity); err != nil {
		fmt.Printf("Failed to generate device identity: %v\n", err)
		os.Exit(1)
	}

	token, err := httpDelivery.MintVerifierToken([]byte(*jwtSecret), identity, time.Hour)
	if err != nil {
		fmt.Printf("Failed to mint verifier token: %v\n", err)
		os.Exit(1)
	}

	sessionID := uuid.NewString()
	fmt.Printf("✅ Scanner session %s ready for event %s\n\n", sessionID, *eventID)

	var seen []string
	counts := map[string]int{}
	startTime := time.Now()

	for i := 0; i < *numScans; i++ {
		payload := nextPayload(&seen)

		res, err := postScan(token, sessionID, payload)
		if err != nil {
			fmt.Printf("❌ Scan %d failed to send: %v\n", i+1, err)
			continue
		}

		counts[res.Outcome]++
		switch res.Outcome {
		case "success":
			fmt.Printf("   Scan %3d: success (checked in: %d)\n", i+1, res.CheckedInCount)
		default:
			fmt.Printf("   Scan %3d: %s [%s] %s\n", i+1, res.Outcome, res.ReasonCode, res.Reason)
		}

		if *scanRate > 0 {
			time.Sleep(*scanRate)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\n📊 Fired %d scans in %v\n", *numScans, elapsed.Round(time.Millisecond))
	for outcome, n := range counts {
		fmt.Printf("   %s: %d\n", outcome, n)
	}
}

// nextPayload picks a fresh ticket, a replay of an earlier one or a
// malformed blob, weighted by the configured rates.
func nextPayload(seen *[]string) string {
	r := rand.Float64()

	if r < *malformedRate {
		return "not-a-ticket"
	}
	if r < *malformedRate+*replayRate && len(*seen) > 0 {
		return (*seen)[rand.Intn(len(*seen))]
	}

	secret := make([]byte, credential.SecretSize)
	if _, err := crand.Read(secret); err != nil {
		return "not-a-ticket"
	}

	payload, err := ticket.Encode(credential.SchemeK1, secret)
	if err != nil {
		return "not-a-ticket"
	}

	*seen = append(*seen, payload)
	return payload
}

func postScan(token, sessionID, payload string) (*scanResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"payload":    payload,
	})

	url := fmt.Sprintf("%s/api/v1/events/%s/scan", *serverURL, *eventID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var res scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
