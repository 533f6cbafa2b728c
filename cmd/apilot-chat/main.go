// apilot-chat is a terminal client for an apilot server.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "apilot server URL")
	owner := flag.String("owner", "cli-user", "Cache owner identity")
	flag.Parse()

	fmt.Println("apilot CLI")
	fmt.Printf("Server: %s | Owner: %s\n", *server, *owner)
	fmt.Println("Type 'exit' or 'quit' to leave.")
	fmt.Println("Commands: /catalog, /providers, /fresh <question> (bypass cache)")
	fmt.Println("---")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}
		if input == "/catalog" {
			fetchCatalog(*server)
			continue
		}
		if input == "/providers" {
			fetchProviders(*server)
			continue
		}

		bypass := false
		if strings.HasPrefix(input, "/fresh ") {
			bypass = true
			input = strings.TrimPrefix(input, "/fresh ")
		}
		ask(*server, *owner, input, bypass)
	}
}

func ask(server, owner, text string, bypass bool) {
	body, _ := json.Marshal(map[string]string{
		"text":     text,
		"owner_id": owner,
	})
	req, err := http.NewRequest(http.MethodPost, server+"/api/ask", bytes.NewReader(body))
	if err != nil {
		printError("Failed to build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if bypass {
		req.Header.Set("X-Cache-Bypass", "1")
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Content string `json:"content"`
		Cached  bool   `json:"cached"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}
	if result.Error != "" {
		printError("Server error: %s", result.Error)
		return
	}

	source := "fresh"
	if result.Cached {
		source = "cached"
	}
	fmt.Printf("[%s] %s\n", source, result.Content)
}

func fetchCatalog(server string) {
	resp, err := http.Get(server + "/api/catalog")
	if err != nil {
		printError("Failed to fetch catalog: %v", err)
		return
	}
	defer resp.Body.Close()

	var ops []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Method      string `json:"method"`
		Path        string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ops); err != nil {
		printError("Failed to parse catalog: %v", err)
		return
	}
	if len(ops) == 0 {
		fmt.Println("No operations registered.")
		return
	}
	fmt.Println("Available operations:")
	for _, op := range ops {
		fmt.Printf("  %-24s %s %s  %s\n", op.Name, op.Method, op.Path, op.Description)
	}
}

func fetchProviders(server string) {
	resp, err := http.Get(server + "/api/providers")
	if err != nil {
		printError("Failed to fetch providers: %v", err)
		return
	}
	defer resp.Body.Close()

	var providers []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&providers); err != nil {
		printError("Failed to parse providers: %v", err)
		return
	}
	fmt.Println("Providers:")
	for _, p := range providers {
		fmt.Printf("  %s (%s)\n", p.ID, p.Name)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
