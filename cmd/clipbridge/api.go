package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// apiClient is a thin client for a running daemon's HTTP API. The CLI
// subcommands reuse the same surface the browser frontend talks to.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(server string) *apiClient {
	return &apiClient{
		base: "http://" + server,
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

type clipboardPayload struct {
	Success  bool   `json:"success"`
	Mime     string `json:"type"`
	Content  string `json:"content"`
	IsBinary bool   `json:"is_binary"`
	Error    string `json:"error"`
}

type statusPayload struct {
	Running            bool   `json:"running"`
	IP                 string `json:"ip"`
	ClipboardAvailable bool   `json:"clipboard_available"`
}

func (c *apiClient) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) postJSON(path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) getClipboard() (clipboardPayload, error) {
	var p clipboardPayload
	if err := c.getJSON("/api/clipboard", &p); err != nil {
		return p, err
	}
	if !p.Success {
		return p, fmt.Errorf("daemon: %s", p.Error)
	}
	return p, nil
}

func (c *apiClient) setClipboard(content, mime string, isBase64 bool) error {
	var p clipboardPayload
	body := map[string]any{
		"content":   content,
		"type":      mime,
		"is_base64": isBase64,
	}
	if err := c.postJSON("/api/clipboard", body, &p); err != nil {
		return err
	}
	if !p.Success {
		return fmt.Errorf("daemon: %s", p.Error)
	}
	return nil
}

func (c *apiClient) status() (statusPayload, error) {
	var p statusPayload
	err := c.getJSON("/api/status", &p)
	return p, err
}
