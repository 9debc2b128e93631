// smoke_api drives one full recording against a running server: start,
// upload, stop, wait for the note, save it, export it and delete it.
//
//	JWT_SECRET=... go run ./scripts
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var baseURL = envOr("SMOKE_BASE_URL", "http://localhost:3000/api")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Pretty print JSON helper
func prettyPrint(raw json.RawMessage) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, path, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case []byte:
		bodyReader = bytes.NewReader(b)
		contentType = "application/octet-stream"
	default:
		jsonBody, _ := json.Marshal(b)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func step(title, method, path, token string, body interface{}) json.RawMessage {
	color.Yellow("\n%s", title)
	resp, raw, err := sendRequest(method, path, token, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// export returns plain text
		color.Green("Status: %s", resp.Status)
		fmt.Println(string(raw))
		return nil
	}
	if !env.Success {
		color.Red("Status: %s (%s)", resp.Status, env.Message)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(env.Data)
	return env.Data
}

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		color.Red("JWT_SECRET is not set")
		os.Exit(1)
	}
	userID := envOr("SMOKE_USER_ID", uuid.NewString())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		color.Red("Failed to sign token: %v", err)
		os.Exit(1)
	}

	color.Cyan("Starting recording pipeline smoke test as %s", userID)

	step("1. Usage before recording", "GET", "/usage/v1", token, nil)

	var started struct {
		SessionId string `json:"session_id"`
	}
	_ = json.Unmarshal(step("2. Start recording", "POST", "/recording/v1", token, nil), &started)
	session := "/recording/v1/" + started.SessionId

	audio := make([]byte, 32*1024)
	step("3. Upload audio chunk", "POST", session+"/chunks", token, audio)

	time.Sleep(2 * time.Second)
	step("4. Stop recording", "POST", session+"/stop", token, nil)

	color.Yellow("\n5. Waiting for the note")
	var status struct {
		Snapshot struct {
			Status string `json:"status"`
			Result *struct {
				DurationSeconds int             `json:"durationSeconds"`
				Transcript      json.RawMessage `json:"transcript"`
				Note            json.RawMessage `json:"note"`
			} `json:"result"`
		} `json:"snapshot"`
	}
	for i := 0; i < 120; i++ {
		_, raw, err := sendRequest("GET", session, token, nil)
		if err == nil {
			var env envelope
			if json.Unmarshal(raw, &env) == nil {
				_ = json.Unmarshal(env.Data, &status)
			}
		}
		if status.Snapshot.Result != nil {
			break
		}
		time.Sleep(time.Second)
	}
	if status.Snapshot.Result == nil {
		color.Red("Pipeline did not finish (last status %q)", status.Snapshot.Status)
		os.Exit(1)
	}
	color.Green("Pipeline finished")

	var saved struct {
		Id string `json:"id"`
	}
	_ = json.Unmarshal(step("6. Save note", "POST", "/soap-note/v1", token, map[string]interface{}{
		"note":             status.Snapshot.Result.Note,
		"transcript":       status.Snapshot.Result.Transcript,
		"duration_seconds": status.Snapshot.Result.DurationSeconds,
	}), &saved)

	step("7. List notes", "GET", "/soap-note/v1", token, nil)
	step("8. Export note", "GET", "/soap-note/v1/"+saved.Id+"/export", token, nil)
	step("9. Delete note", "DELETE", "/soap-note/v1/"+saved.Id, token, nil)
	step("10. Usage after recording", "GET", "/usage/v1", token, nil)

	color.Cyan("\nSmoke test passed")
}
