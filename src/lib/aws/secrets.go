package aws

import (
	"context"
	"fmt"
	"log"
	"loketkita/src/config"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadSecrets merges the JSON secret secretID into the running config.
func LoadSecrets(ctx context.Context, client SecretsAPI, secretID string) error {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return fmt.Errorf("get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", secretID)
	}
	if err := config.MergeSecrets(strings.NewReader(*out.SecretString)); err != nil {
		return err
	}
	log.Printf("[secrets] Loaded %s\n", secretID)
	return nil
}
