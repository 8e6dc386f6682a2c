// seed_surveys.go — standalone script to parse a CSV of companies and register surveys via the API.
//
// Usage:
//
//	go run scripts/seed_surveys.go -csv /path/to/companies.csv -api http://localhost:8700 -tenant acme
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
)

type surveyPayload struct {
	SID         string `json:"sid"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry,omitempty"`
	Country     string `json:"country,omitempty"`
}

func main() {
	csvPath := flag.String("csv", "companies.csv", "path to companies CSV (sid,company_name,industry,country)")
	apiURL := flag.String("api", "http://localhost:8700", "benchmark API base URL")
	tenant := flag.String("tenant", "", "X-Tenant header value")
	dryRun := flag.Bool("dry-run", false, "print surveys without posting")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var surveys []surveyPayload
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read csv: %v", err)
		}
		if len(rec) < 2 || strings.EqualFold(rec[0], "sid") {
			continue
		}
		s := surveyPayload{SID: strings.TrimSpace(rec[0]), CompanyName: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			s.Industry = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			s.Country = strings.TrimSpace(rec[3])
		}
		if s.SID == "" {
			continue
		}
		surveys = append(surveys, s)
	}

	fmt.Printf("parsed %d surveys from %s\n", len(surveys), *csvPath)

	if *dryRun {
		for _, s := range surveys {
			b, _ := json.MarshalIndent(s, "", "  ")
			fmt.Println(string(b))
		}
		return
	}

	client := &http.Client{}
	created, failed := 0, 0
	for _, s := range surveys {
		body, _ := json.Marshal(s)
		req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/surveys", bytes.NewReader(body))
		if err != nil {
			log.Printf("build request for %s: %v", s.SID, err)
			failed++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if *tenant != "" {
			req.Header.Set("X-Tenant", *tenant)
		}
		resp, err := client.Do(req)
		if err != nil {
			log.Printf("post %s: %v", s.SID, err)
			failed++
			continue
		}
		if resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			log.Printf("post %s: status %d: %s", s.SID, resp.StatusCode, string(b))
			failed++
		} else {
			created++
		}
		resp.Body.Close()
	}
	fmt.Printf("created %d surveys, %d failed\n", created, failed)
}
