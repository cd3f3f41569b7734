// Command stallctl is a CLI client for the marketplace service.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "tokenstall")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tokenstall")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

// ---- http client ----

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func call(ctx context.Context, base, method, path, bearer string, body any) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("bad response (%d): %w", resp.StatusCode, err)
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("%s: %s", env.Code, env.Message)
	}
	return env.Data, nil
}

func mustBearer() string {
	tok, err := loadToken()
	if err != nil {
		fail(err)
	}
	return tok
}

// ---- utils ----

func printRaw(data json.RawMessage) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		fmt.Println(string(data))
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `stallctl CLI
Usage:
  stallctl -addr URL <cmd> [args]

Commands:
  version
  register        -u <username> -p <password>
  login           -u <username> -p <password>     (saves token)
  sell            -price <n> -title <s> [-redirect <s>]
  update          -id <n> -title <s> [-redirect <s>]
  item            -id <n>
  buy             -id <n>
  items                                           (my listings)
  purchases                                       (my purchases)
  item-purchases  -id <n>                         (seller only)
  income
  platform-income                                 (admin only)
  beneficiary     -id <uuid>                      (admin only)
  balance
  approve         -amount <n>
  mint            -amount <n>
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the HTTP API.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("stallctl %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}
		data, err := call(ctx, *addr, http.MethodPost, "/auth/v1/register", "",
			map[string]string{"username": *u, "password": *p})
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}
		data, err := call(ctx, *addr, http.MethodPost, "/auth/v1/login", "",
			map[string]string{"username": *u, "password": *p})
		if err != nil {
			fail(err)
		}
		var resp struct {
			AccessToken string    `json:"access_token"`
			ExpiresAt   time.Time `json:"expires_at"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			fail(err)
		}
		if err := saveToken(resp.AccessToken, resp.ExpiresAt); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "sell":
		fs := flag.NewFlagSet("sell", flag.ExitOnError)
		price := fs.Int64("price", 0, "price in token units")
		title := fs.String("title", "", "item title")
		redirect := fs.String("redirect", "", "redirect target")
		_ = fs.Parse(flag.Args()[1:])
		data, err := call(ctx, *addr, http.MethodPost, "/market/v1/items", mustBearer(),
			map[string]any{"price": *price, "title": *title, "redirect_to": *redirect})
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "update":
		fs := flag.NewFlagSet("update", flag.ExitOnError)
		id := fs.Int64("id", -1, "item id")
		title := fs.String("title", "", "item title")
		redirect := fs.String("redirect", "", "redirect target")
		_ = fs.Parse(flag.Args()[1:])
		data, err := call(ctx, *addr, http.MethodPut, fmt.Sprintf("/market/v1/items/%d", *id), mustBearer(),
			map[string]any{"title": *title, "redirect_to": *redirect})
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "item":
		fs := flag.NewFlagSet("item", flag.ExitOnError)
		id := fs.Int64("id", -1, "item id")
		_ = fs.Parse(flag.Args()[1:])
		data, err := call(ctx, *addr, http.MethodGet, fmt.Sprintf("/market/v1/items/%d", *id), "", nil)
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "buy":
		fs := flag.NewFlagSet("buy", flag.ExitOnError)
		id := fs.Int64("id", -1, "item id")
		_ = fs.Parse(flag.Args()[1:])
		data, err := call(ctx, *addr, http.MethodPost, fmt.Sprintf("/market/v1/items/%d/buy", *id), mustBearer(), nil)
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "items":
		data, err := call(ctx, *addr, http.MethodGet, "/market/v1/my/items", mustBearer(), nil)
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "purchases":
		data, err := call(ctx, *addr, http.MethodGet, "/market/v1/my/purchases", mustBearer(), nil)
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "item-purchases":
		fs := flag.NewFlagSet("item-purchases", flag.ExitOnError)
		id := fs.Int64("id", -1, "item id")
		_ = fs.Parse(flag.Args()[1:])
		data, err := call(ctx, *addr, http.MethodGet, fmt.Sprintf("/market/v1/items/%d/purchases", *id), mustBearer(), nil)
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "income":
		data, err := call(ctx, *addr, http.MethodGet, "/market/v1/my/income", mustBearer(), nil)
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "platform-income":
		data, err := call(ctx, *addr, http.MethodGet, "/market/v1/platform/income", mustBearer(), nil)
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "beneficiary":
		fs := flag.NewFlagSet("beneficiary", flag.ExitOnError)
		id := fs.String("id", "", "beneficiary account id")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		data, err := call(ctx, *addr, http.MethodPost, "/market/v1/platform/beneficiary", mustBearer(),
			map[string]string{"beneficiary": *id})
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "balance":
		data, err := call(ctx, *addr, http.MethodGet, "/token/v1/balance", mustBearer(), nil)
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "approve":
		fs := flag.NewFlagSet("approve", flag.ExitOnError)
		amount := fs.Int64("amount", 0, "allowance amount")
		_ = fs.Parse(flag.Args()[1:])
		data, err := call(ctx, *addr, http.MethodPost, "/token/v1/approve", mustBearer(),
			map[string]any{"amount": *amount})
		if err != nil {
			fail(err)
		}
		printRaw(data)

	case "mint":
		fs := flag.NewFlagSet("mint", flag.ExitOnError)
		amount := fs.Int64("amount", 0, "amount to mint")
		_ = fs.Parse(flag.Args()[1:])
		data, err := call(ctx, *addr, http.MethodPost, "/token/v1/mint", mustBearer(),
			map[string]any{"amount": *amount})
		if err != nil {
			fail(err)
		}
		printRaw(data)

	default:
		usage()
	}
}
