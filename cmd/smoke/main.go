package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	baseURL := os.Getenv("CASEGRAPH_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting smoke test...")

	caseID := fmt.Sprintf("smoke-%d", time.Now().Unix())
	graphPath := "/api/cases/" + caseID + "/graph"

	fmt.Println("1. Importing case graph...")
	graph := map[string]interface{}{
		"nodes": []map[string]interface{}{
			{"id": "n1", "label": "Shell Co", "centrality": 0.1},
			{"id": "n2", "label": "Broker", "centrality": 0.5},
			{"id": "n3", "label": "Kingpin", "centrality": 0.9},
		},
		"edges": []map[string]interface{}{
			{"id": "e1", "source": "n1", "target": "n2", "weight": 2, "type": "Communication"},
			{"id": "e2", "source": "n2", "target": "n3", "weight": 12, "type": "Transaction"},
		},
	}
	if _, ok := sendRequest(baseURL, http.MethodPut, graphPath+"/raw", graph, http.StatusOK); !ok {
		fmt.Println("FAILED: Import graph")
		os.Exit(1)
	}
	fmt.Println("PASSED: Import graph")

	fmt.Println("2. Applying default filter...")
	body, ok := sendRequest(baseURL, http.MethodGet, graphPath+"?minWeight=3", nil, http.StatusOK)
	if !ok {
		fmt.Println("FAILED: Apply filter")
		os.Exit(1)
	}
	var snap struct {
		Stats struct {
			TotalNodes    int `json:"totalNodes"`
			TotalEdges    int `json:"totalEdges"`
			HighRiskCount int `json:"highRiskCount"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		fmt.Printf("FAILED: Decode snapshot: %v\n", err)
		os.Exit(1)
	}
	if snap.Stats.TotalNodes != 2 || snap.Stats.TotalEdges != 1 || snap.Stats.HighRiskCount != 1 {
		fmt.Printf("FAILED: Unexpected stats %+v\n", snap.Stats)
		os.Exit(1)
	}
	fmt.Println("PASSED: Apply filter")

	fmt.Println("3. Selecting nodes...")
	if _, ok := sendRequest(baseURL, http.MethodGet, graphPath+"/nodes/n3", nil, http.StatusOK); !ok {
		fmt.Println("FAILED: Select kept node")
		os.Exit(1)
	}
	if _, ok := sendRequest(baseURL, http.MethodGet, graphPath+"/nodes/n1", nil, http.StatusNotFound); !ok {
		fmt.Println("FAILED: Select filtered node")
		os.Exit(1)
	}
	fmt.Println("PASSED: Select nodes")

	fmt.Println("4. Discarding case view...")
	if _, ok := sendRequest(baseURL, http.MethodDelete, graphPath, nil, http.StatusNoContent); !ok {
		fmt.Println("FAILED: Discard")
		os.Exit(1)
	}
	fmt.Println("PASSED: Discard")
}

func sendRequest(baseURL, method, endpoint string, payload interface{}, want int) ([]byte, bool) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return nil, false
	}

	fmt.Printf("Response: %s\n", string(respBody))
	return respBody, true
}
