// Command wordle-seed migrates the database, imports the answer and valid
// word lists, and optionally provisions the DynamoDB leaderboard table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"wordle-go/config"
	awsinfra "wordle-go/internal/infrastructure/aws"
	dynamoschema "wordle-go/internal/infrastructure/aws/dynamodb"
	"wordle-go/internal/logging"
	"wordle-go/internal/storage/sqlstore"
	"wordle-go/internal/words"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wordle-seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	answersSource := flag.String("answers", cfg.WordsAnswersSource, "answer word list, a local path or s3://bucket/key")
	validSource := flag.String("valid", cfg.WordsValidSource, "valid guess list, a local path or s3://bucket/key")
	createTable := flag.Bool("create-table", false, "create the DynamoDB leaderboard table")
	flag.Parse()

	logger := logging.New(os.Stderr, cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var awsCfg *awsinfra.AWSConfig
	if *createTable || isS3(*answersSource) || isS3(*validSource) {
		awsCfg, err = awsinfra.NewAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
	}

	loader := &words.Loader{}
	if awsCfg != nil {
		loader.S3 = awsCfg.S3
	}
	answers, err := loader.Load(ctx, *answersSource)
	if err != nil {
		return err
	}
	valid, err := loader.Load(ctx, *validSource)
	if err != nil {
		return err
	}

	db, err := sqlstore.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlstore.Migrate(db); err != nil {
		return err
	}
	if err := sqlstore.ImportWords(ctx, db, answers, valid); err != nil {
		return err
	}
	logger.Info("imported word lists", "answers", len(answers), "valid", len(valid))

	if *createTable {
		if err := dynamoschema.NewDynamoDBService(awsCfg.DynamoDB).CreateTables(ctx, cfg.DynamoDBTable); err != nil {
			return err
		}
		logger.Info("leaderboard table ready", "table", cfg.DynamoDBTable)
	}
	return nil
}

func isS3(source string) bool {
	return strings.HasPrefix(source, "s3://")
}
