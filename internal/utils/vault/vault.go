// Package vault reads service secrets from HashiCorp Vault using the
// Kubernetes auth method and the KV v2 engine.
package vault

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
)

const defaultServiceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

type VaultClient struct {
	client       *resty.Client
	kvSecretPath string
	role         string
	token        string
}

type loginResponse struct {
	Errors []string `json:"errors"`
	Auth   *struct {
		ClientToken string `json:"client_token"`
	} `json:"auth"`
}

type kvResponse struct {
	Errors []string `json:"errors"`
	Data   *struct {
		Data map[string]interface{} `json:"data"`
	} `json:"data"`
}

// New logs in to Vault with the pod's service account token
func New(ctx context.Context, cfg config.VaultConfig) (*VaultClient, error) {
	return NewWithTokenFile(ctx, cfg, defaultServiceAccountTokenPath)
}

func NewWithTokenFile(ctx context.Context, cfg config.VaultConfig, tokenPath string) (*VaultClient, error) {
	vc := &VaultClient{
		client:       resty.New().SetBaseURL(strings.TrimRight(cfg.Addr, "/")),
		role:         cfg.Role,
		kvSecretPath: strings.Trim(cfg.KVSecretPath, "/"),
	}

	jwt, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, errors.Wrap(err, "read service account token")
	}

	token, err := vc.login(ctx, strings.TrimSpace(string(jwt)))
	if err != nil {
		return nil, err
	}
	vc.token = token
	return vc, nil
}

func (vc *VaultClient) login(ctx context.Context, jwt string) (string, error) {
	var result loginResponse
	resp, err := vc.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"jwt":  jwt,
			"role": vc.role,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/auth/kubernetes/login")
	if err != nil {
		return "", errors.Wrap(err, "vault login")
	}
	if resp.IsError() {
		return "", fmt.Errorf("vault authentication failed with status %d: %s", resp.StatusCode(), strings.Join(result.Errors, "; "))
	}
	if result.Auth == nil || result.Auth.ClientToken == "" {
		return "", errors.New("vault returned empty client_token")
	}
	return result.Auth.ClientToken, nil
}

// GetKV returns one string value of the configured KV v2 secret
func (vc *VaultClient) GetKV(ctx context.Context, secretKey string) (string, error) {
	var result kvResponse
	resp, err := vc.client.R().
		SetContext(ctx).
		SetHeader("X-Vault-Token", vc.token).
		SetResult(&result).
		SetError(&result).
		Get("/v1/" + vc.kvSecretPath)
	if err != nil {
		return "", errors.Wrap(err, "vault KV get")
	}
	if resp.IsError() {
		return "", fmt.Errorf("vault KV get failed with status %d: %s", resp.StatusCode(), strings.Join(result.Errors, "; "))
	}
	if result.Data == nil || result.Data.Data == nil {
		return "", errors.New("vault response missing nested 'data' field")
	}

	raw, ok := result.Data.Data[secretKey]
	if !ok {
		return "", fmt.Errorf("secret key '%s' not found", secretKey)
	}
	secret, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("secret value for key '%s' is not a string", secretKey)
	}
	return secret, nil
}
