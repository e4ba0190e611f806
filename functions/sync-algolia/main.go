package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
	"github.com/letmevibethatforyou/searchbox/algolia"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "sync-algolia",
		Usage: "Sync document table stream events to Algolia",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB table name to sync from",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over API key/ID flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "algolia-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
				EnvVars: []string{"ALGOLIA_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "algolia-app-id",
				Usage:   "Algolia application ID",
				EnvVars: []string{"ALGOLIA_APP_ID"},
			},
			&cli.StringFlag{
				Name:    "algolia-api-key",
				Usage:   "Algolia API key",
				EnvVars: []string{"ALGOLIA_API_KEY"},
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	env := c.String("env")

	slog.InfoContext(ctx, "Starting document table to Algolia sync", "table", tableName, "environment", env)

	fetchSecrets, err := resolveSecrets(ctx, env, c.String("algolia-secret-arn"), c.String("algolia-app-id"), c.String("algolia-api-key"))
	if err != nil {
		return err
	}

	handler := NewHandler(algolia.NewClient(fetchSecrets))

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		slog.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleDynamoDBEvent)
	} else {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}

func resolveSecrets(ctx context.Context, env, secretArn, appID, apiKey string) (algolia.FetchSecrets, error) {
	if env != "" || secretArn != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return nil, err
		}
		client := secretsmanager.NewFromConfig(cfg)

		if secretArn != "" {
			slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "secret_arn", secretArn)
			return algolia.AWSSecretsFromARN(ctx, client, secretArn), nil
		}
		slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)
		return algolia.AWSSecrets(ctx, client, env), nil
	}

	if appID != "" && apiKey != "" {
		slog.InfoContext(ctx, "Using static credentials from flags")
		return algolia.StaticSecrets(appID, apiKey), nil
	}

	slog.InfoContext(ctx, "Using environment variables for credentials")
	return algolia.EnvSecrets(), nil
}
