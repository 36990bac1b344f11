package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kenbak/zipher/pkg/httputil"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"
)

const requestTimeout = 10 * time.Minute

var (
	zipherDataDir = btcutil.AppDataDir("zipher-cli", false)
	statePath     = filepath.Join(zipherDataDir, "state.json")
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "zipher CLI"
	app.Usage = "Command line interface for the zipher shielded sync daemon"
	app.Commands = append(
		app.Commands,
		&configCmd,
		&syncCmd,
		&balanceCmd,
		&decryptCmd,
		&resetCmd,
		&estimateBirthdayCmd,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if err := os.MkdirAll(zipherDataDir, os.ModeDir|0755); err != nil {
		return err
	}

	currentData, err := getState()
	if err != nil {
		currentData = map[string]string{}
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func getDaemonURL() (string, error) {
	state, err := getState()
	if err != nil {
		return "", err
	}
	daemonURL, ok := state[daemonURLKey]
	if !ok || daemonURL == "" {
		return "", fmt.Errorf("set daemon url with `config set %s`", daemonURLKey)
	}
	return strings.TrimRight(daemonURL, "/"), nil
}

// callDaemon sends a request to the daemon's HTTP interface and prints the
// JSON response.
func callDaemon(c *cli.Context, method, path string, body interface{}) error {
	daemonURL, err := getDaemonURL()
	if err != nil {
		return err
	}

	var reqBody string
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = string(buf)
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	client := httputil.NewClient(requestTimeout, 0)
	status, resp, err := client.NewHTTPRequest(
		ctx, method, daemonURL+path, reqBody,
		map[string]string{"Content-Type": "application/json"},
	)
	if err != nil {
		return fmt.Errorf("unable to connect to daemon: %w", err)
	}

	if status >= http.StatusBadRequest {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(resp), &errResp); err == nil &&
			errResp.Error != "" {
			return fmt.Errorf("daemon error (%d): %s", status, errResp.Error)
		}
		return fmt.Errorf("daemon error (%d): %s", status, resp)
	}

	printRespJSON(resp)
	return nil
}

func printRespJSON(resp string) {
	if len(resp) <= 0 {
		return
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(resp), "", "\t"); err != nil {
		fmt.Println(resp)
		return
	}
	fmt.Println(out.String())
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[zipher] %v\n", err)
	}
	os.Exit(1)
}
