package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// SecretsManagerAPI is the slice of the AWS Secrets Manager client the
// backend needs, extracted for mocking in tests.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// awsBackend pulls a single JSON key/value secret from AWS Secrets Manager
// when the fetch context names one. Credentials come from the standard AWS
// chain (env, shared config, instance role).
type awsBackend struct {
	client SecretsManagerAPI
}

// newAWSBackend creates the backend; pass a non-nil client to inject a
// mock, otherwise the real client is built lazily on first fetch.
func newAWSBackend(client SecretsManagerAPI) *awsBackend {
	return &awsBackend{client: client}
}

func (b *awsBackend) name() string {
	return "aws-secretsmanager"
}

func (b *awsBackend) applicable(fc provider.FetchContext) (bool, string) {
	if fc.Remote.AWSSecretID == "" {
		return false, "no AWS secret id configured"
	}
	return true, ""
}

func (b *awsBackend) fetch(ctx context.Context, fc provider.FetchContext) ([]provider.Candidate, error) {
	client := b.client
	if client == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if fc.Remote.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(fc.Remote.AWSRegion))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client = secretsmanager.NewFromConfig(cfg)
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(fc.Remote.AWSSecretID),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", fc.Remote.AWSSecretID, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string payload", fc.Remote.AWSSecretID)
	}

	// The secret is expected to be a flat JSON object of key/value pairs,
	// the shape the console's "key/value" editor produces.
	var pairs map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &pairs); err != nil {
		return nil, fmt.Errorf("secret %s is not a flat JSON object: %w", fc.Remote.AWSSecretID, err)
	}

	candidates := make([]provider.Candidate, 0, len(pairs))
	for k, v := range pairs {
		candidates = append(candidates, provider.Candidate{
			Key:    k,
			Value:  v,
			Source: provider.SourceActiveFetcher,
		})
	}
	return candidates, nil
}
