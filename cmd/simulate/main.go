package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicdesk/clinic-api/internal/logging"
)

// Booking load generator. Fires concurrent booking requests at a small set of
// slots so most requests race for a slot somebody else wants, and reports how
// the API resolved them. With the per-slot locking and the unique index in
// place every slot must end up booked exactly once.

var timeslots = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00",
	"14:00", "14:30", "15:00", "15:30", "16:00",
}

type counters struct {
	mu        sync.Mutex
	booked    int
	slotTaken int
	contended int
	other     int
	latencies []time.Duration
}

func (c *counters) percentile(p float64) time.Duration {
	if len(c.latencies) == 0 {
		return 0
	}
	idx := int(float64(len(c.latencies)-1) * p)
	return c.latencies[idx]
}

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:8080", "api server base url")
	email := flag.String("email", "reception@clinic.local", "login email")
	password := flag.String("password", "password123", "login password")
	workers := flag.Int("workers", 50, "concurrent booking workers")
	requests := flag.Int("requests", 500, "total booking attempts")
	flag.Parse()

	logging.Init("clinic-simulate", "dev")

	client := &http.Client{Timeout: 10 * time.Second}

	token, err := login(client, *baseURL, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Msg("login")
	}

	doctors, err := listIDs(client, *baseURL, token, "/doctors")
	if err != nil || len(doctors) == 0 {
		log.Fatal().Err(err).Msg("need seeded doctors, run cmd/seed first")
	}
	patients, err := listIDs(client, *baseURL, token, "/patients?limit=100")
	if err != nil || len(patients) == 0 {
		log.Fatal().Err(err).Msg("need seeded patients, run cmd/seed first")
	}

	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	log.Info().
		Int("workers", *workers).
		Int("requests", *requests).
		Int("doctors", len(doctors)).
		Int("slots_per_doctor", len(timeslots)).
		Str("date", date).
		Msg("starting booking storm")

	var c counters
	jobs := make(chan int)
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)))
			for range jobs {
				doctorID := doctors[rng.Intn(len(doctors))]
				patientID := patients[rng.Intn(len(patients))]
				timeslot := timeslots[rng.Intn(len(timeslots))]
				book(client, *baseURL, token, &c, doctorID, patientID, date, timeslot)
			}
		}()
	}

	for i := 0; i < *requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.Slice(c.latencies, func(i, j int) bool { return c.latencies[i] < c.latencies[j] })

	log.Info().
		Int("booked", c.booked).
		Int("slot_taken", c.slotTaken).
		Int("contended", c.contended).
		Int("other", c.other).
		Dur("p50", c.percentile(0.50)).
		Dur("p95", c.percentile(0.95)).
		Dur("p99", c.percentile(0.99)).
		Dur("elapsed", time.Since(start)).
		Msg("booking storm finished")

	totalSlots := len(doctors) * len(timeslots)
	if c.booked > totalSlots {
		log.Error().
			Int("booked", c.booked).
			Int("slots", totalSlots).
			Msg("more bookings than slots, double booking happened")
	}
}

func login(client *http.Client, baseURL, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := client.Post(baseURL+"/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func listIDs(client *http.Client, baseURL, token, path string) ([]string, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func book(client *http.Client, baseURL, token string, c *counters, doctorID, patientID, date, timeslot string) {
	start := time.Now()
	body, _ := json.Marshal(map[string]string{
		"patient_id":       patientID,
		"doctor_id":        doctorID,
		"appointment_date": date,
		"timeslot":         timeslot,
	})

	req, err := http.NewRequest(http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		recordOther(c)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		recordOther(c)
		return
	}
	defer resp.Body.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.latencies = append(c.latencies, time.Since(start))
	switch resp.StatusCode {
	case http.StatusCreated:
		c.booked++
	case http.StatusUnprocessableEntity:
		c.slotTaken++
	case http.StatusConflict:
		c.contended++
	default:
		c.other++
		log.Warn().Int("status", resp.StatusCode).Str("timeslot", timeslot).Msg("unexpected booking response")
	}
}

func recordOther(c *counters) {
	c.mu.Lock()
	c.other++
	c.mu.Unlock()
}
