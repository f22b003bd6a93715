package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/factorchain/compliance-node/internal/config"
)

// Secret reference schemes. Anything else is treated as a literal credential.
const (
	vaultScheme = "vault://"
	awsSMScheme = "aws-sm://"
)

// ResolveSecret turns a secret reference into its value. Supported forms:
//
//	vault://<mount>/<path>#<key>   read from the vault kv-v2 engine
//	aws-sm://<name>#<key>          read from AWS Secrets Manager, key optional
//	anything else                  returned as is
//
// An empty reference resolves to an empty value without error, the caller
// decides whether credentials are mandatory.
func ResolveSecret(ctx context.Context, cfg config.Configuration, ref string) (string, error) {
	switch {
	case ref == "":
		return "", nil
	case strings.HasPrefix(ref, vaultScheme):
		return resolveVault(ctx, cfg.Vault, strings.TrimPrefix(ref, vaultScheme))
	case strings.HasPrefix(ref, awsSMScheme):
		return resolveAWS(ctx, cfg.AWS, strings.TrimPrefix(ref, awsSMScheme))
	default:
		return ref, nil
	}
}

func resolveVault(ctx context.Context, cfg config.Vault, ref string) (string, error) {
	path, key, err := splitKey(ref)
	if err != nil {
		return "", err
	}
	mount, secretPath, found := strings.Cut(path, "/")
	if !found {
		return "", fmt.Errorf("vault reference %q must be <mount>/<path>#<key>", ref)
	}
	client, err := NewVaultClient(cfg.Address, cfg.Token)
	if err != nil {
		return "", err
	}
	secret, err := client.KVv2(mount).Get(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("reading vault secret %s: %w", secretPath, err)
	}
	value, ok := secret.Data[key].(string)
	if !ok {
		return "", fmt.Errorf("vault secret %s has no string key %q", secretPath, key)
	}
	return value, nil
}

func resolveAWS(ctx context.Context, cfg config.AWS, ref string) (string, error) {
	name, key, err := splitOptionalKey(ref)
	if err != nil {
		return "", err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return "", fmt.Errorf("loading aws config: %w", err)
	}
	out, err := secretsmanager.NewFromConfig(awsCfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &name,
	})
	if err != nil {
		return "", fmt.Errorf("reading aws secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("aws secret %s has no string value", name)
	}
	if key == "" {
		return *out.SecretString, nil
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &fields); err != nil {
		return "", fmt.Errorf("aws secret %s is not a json object: %w", name, err)
	}
	value, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("aws secret %s has no key %q", name, key)
	}
	return value, nil
}

func splitKey(ref string) (string, string, error) {
	path, key, found := strings.Cut(ref, "#")
	if !found || key == "" {
		return "", "", fmt.Errorf("secret reference %q is missing the #<key> part", ref)
	}
	return path, key, nil
}

func splitOptionalKey(ref string) (string, string, error) {
	name, key, _ := strings.Cut(ref, "#")
	if name == "" {
		return "", "", fmt.Errorf("secret reference %q is missing a name", ref)
	}
	return name, key, nil
}
