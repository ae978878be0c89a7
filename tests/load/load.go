//go:build load

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	targetRPS    = 20
	testDuration = 1 * time.Minute

	userIdHeader         = "X-User-Id"
	organizationIdHeader = "X-Organization-Id"
)

// env задает стенд: сервер, пользователь и объекты, которые уже есть в его базе
type env struct {
	baseURL        string
	userId         string
	organizationId string
	projectId      string
	sprintId       string
	formId         string
}

func loadEnv() env {
	return env{
		baseURL:        getEnv("LOAD_BASE_URL", "http://localhost:8080"),
		userId:         getEnv("LOAD_USER_ID", "ext-ann"),
		organizationId: getEnv("LOAD_ORGANIZATION_ID", "org-1"),
		projectId:      getEnv("LOAD_PROJECT_ID", "p-1"),
		sprintId:       getEnv("LOAD_SPRINT_ID", "s-1"),
		formId:         getEnv("LOAD_FORM_ID", "f-1"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run -tags load ./tests/load <scenario>")
		fmt.Println("Scenarios: health, analytics, forms, all")
		os.Exit(1)
	}

	e := loadEnv()

	var targets []vegeta.Target
	switch os.Args[1] {
	case "health":
		targets = healthTargets(e)
	case "analytics":
		targets = analyticsTargets(e)
	case "forms":
		targets = formTargets(e)
	case "all":
		targets = allTargets(e)
	default:
		fmt.Printf("Unknown scenario: %s\n", os.Args[1])
		os.Exit(1)
	}

	metrics := runAttack(vegeta.NewStaticTargeter(targets...), os.Args[1], testDuration)
	printMetrics(metrics)
}

func (e env) headers() http.Header {
	return http.Header{
		"Content-Type":       []string{"application/json"},
		userIdHeader:         []string{e.userId},
		organizationIdHeader: []string{e.organizationId},
	}
}

func healthTargets(e env) []vegeta.Target {
	return []vegeta.Target{{Method: http.MethodGet, URL: e.baseURL + "/health"}}
}

func analyticsTargets(e env) []vegeta.Target {
	h := e.headers()
	return []vegeta.Target{
		{Method: http.MethodGet, URL: e.baseURL + "/api/v1/projects/" + e.projectId + "/analytics", Header: h},
		{Method: http.MethodGet, URL: e.baseURL + "/api/v1/sprints/" + e.sprintId + "/analytics", Header: h},
		{Method: http.MethodGet, URL: e.baseURL + "/api/v1/organizations/" + e.organizationId + "/analytics", Header: h},
		{Method: http.MethodGet, URL: e.baseURL + "/api/v1/organizations/" + e.organizationId + "/analytics/users", Header: h},
	}
}

func formTargets(e env) []vegeta.Target {
	h := e.headers()
	return []vegeta.Target{
		{Method: http.MethodGet, URL: e.baseURL + "/api/v1/forms/" + e.formId, Header: h},
		{Method: http.MethodPost, URL: e.baseURL + "/api/v1/forms/" + e.formId + "/views", Header: h, Body: viewBody(e)},
		{Method: http.MethodGet, URL: e.baseURL + "/api/v1/forms/" + e.formId + "/analytics", Header: h},
	}
}

func allTargets(e env) []vegeta.Target {
	targets := healthTargets(e)
	targets = append(targets, analyticsTargets(e)...)
	return append(targets, formTargets(e)...)
}

func viewBody(e env) []byte {
	body, _ := json.Marshal(map[string]string{
		"user_id":    e.userId,
		"user_email": e.userId + "@load.test",
	})
	return body
}

func runAttack(targeter vegeta.Targeter, name string, duration time.Duration) vegeta.Metrics {
	rate := vegeta.Rate{Freq: targetRPS, Per: time.Second}
	attacker := vegeta.NewAttacker()

	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, rate, duration, name) {
		metrics.Add(res)
	}
	metrics.Close()

	return metrics
}

func printMetrics(metrics vegeta.Metrics) {
	fmt.Printf("\n=== Load Test Results ===\n\n")
	fmt.Printf("Requests Total:     %d\n", metrics.Requests)
	fmt.Printf("Success Rate:       %.2f%%\n", metrics.Success*100)
	fmt.Printf("Duration:           %v\n", metrics.Duration)

	if metrics.Requests == 0 {
		return
	}

	fmt.Printf("\nLatency:\n")
	fmt.Printf("  Mean:             %v\n", metrics.Latencies.Mean)
	fmt.Printf("  P50:              %v\n", metrics.Latencies.P50)
	fmt.Printf("  P95:              %v\n", metrics.Latencies.P95)
	fmt.Printf("  P99:              %v\n", metrics.Latencies.P99)
	fmt.Printf("  Max:              %v\n", metrics.Latencies.Max)

	fmt.Printf("\nStatus Codes:\n")
	for code, count := range metrics.StatusCodes {
		fmt.Printf("  %s: %d\n", code, count)
	}

	if len(metrics.Errors) > 0 {
		fmt.Printf("\nErrors:\n")
		for _, err := range metrics.Errors {
			fmt.Printf("  %s\n", err)
		}
	}

	p95ms := metrics.Latencies.P95.Seconds() * 1000
	fmt.Printf("\nSLI Compliance:\n")
	fmt.Printf("  P95 Latency:      %.2f ms (target: < 300ms) - %s\n", p95ms, checkStatus(p95ms < 300))
	fmt.Printf("  Success Rate:     %.2f%% (target: > 99.9%%) - %s\n", metrics.Success*100, checkStatus(metrics.Success >= 0.999))
	fmt.Printf("\n")
}

func checkStatus(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
