package lib

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/crypto/nacl/box"
)

// Minimal github actions secrets client. Values are sealed to the repo public
// key with an anonymous nacl box, which is what the api calls a libsodium
// sealed box.

const (
	githubApiUrl   = "https://api.github.com"
	githubTokenVar = "GITHUB_TOKEN"

	githubRetryAttempts = 3
	githubRetryDelay    = 2 * time.Second
)

type GithubClient struct {
	BaseUrl string
	Token   string
	Http    *http.Client
}

func NewGithubClient() (*GithubClient, error) {
	token := os.Getenv(githubTokenVar)
	if token == "" {
		err := fmt.Errorf("missing environment variable: %s", githubTokenVar)
		Logger.Println("error:", err)
		return nil, err
	}
	return &GithubClient{
		BaseUrl: githubApiUrl,
		Token:   token,
		Http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type githubPublicKey struct {
	KeyId string `json:"key_id"`
	Key   string `json:"key"`
}

func (c *GithubClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	return retry.Do(func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.BaseUrl+path, reader)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Accept", "application/vnd.github+json")
		resp, err := c.Http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("github %s %s: %d: %s", method, path, resp.StatusCode, data)
		}
		if resp.StatusCode >= 400 {
			return retry.Unrecoverable(fmt.Errorf("github %s %s: %d: %s", method, path, resp.StatusCode, data))
		}
		if out != nil {
			return json.Unmarshal(data, out)
		}
		return nil
	}, retry.Attempts(githubRetryAttempts), retry.Delay(githubRetryDelay), retry.Context(ctx))
}

func (c *GithubClient) PublicKey(ctx context.Context, repo string) (*githubPublicKey, error) {
	key := &githubPublicKey{}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/actions/secrets/public-key", repo), nil, key)
	if err != nil {
		Logger.Println("error:", err)
		return nil, err
	}
	return key, nil
}

func githubSealSecret(publicKeyB64, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return "", err
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("github public key should be 32 bytes, got: %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	sealed, err := box.SealAnonymous(nil, []byte(value), &key, rand.Reader)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// PutSecret creates or updates a repository actions secret.
func (c *GithubClient) PutSecret(ctx context.Context, repo, name, value string, preview bool) error {
	key, err := c.PublicKey(ctx, repo)
	if err != nil {
		Logger.Println("error:", err)
		return err
	}
	if !preview {
		sealed, err := githubSealSecret(key.Key, value)
		if err != nil {
			Logger.Println("error:", err)
			return err
		}
		body, err := json.Marshal(map[string]string{
			"encrypted_value": sealed,
			"key_id":          key.KeyId,
		})
		if err != nil {
			Logger.Println("error:", err)
			return err
		}
		err = c.do(ctx, http.MethodPut, fmt.Sprintf("/repos/%s/actions/secrets/%s", repo, name), body, nil)
		if err != nil {
			Logger.Println("error:", err)
			return err
		}
	}
	Logger.Println(PreviewString(preview)+"github put secret:", repo, name)
	return nil
}
