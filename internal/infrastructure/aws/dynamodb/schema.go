package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableCreator is the subset of the DynamoDB client used for provisioning
type TableCreator interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type DynamoDBService struct {
	client TableCreator
}

func NewDynamoDBService(client TableCreator) *DynamoDBService {
	return &DynamoDBService{client: client}
}

// LeaderboardTableSchema keys the leaderboard on username. Scores, mean and
// version are plain attributes and need no definition.
func LeaderboardTableSchema(name string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("username"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("username"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}

// CreateTables creates the leaderboard table. An existing table is left as is.
func (s *DynamoDBService) CreateTables(ctx context.Context, leaderboardTable string) error {
	_, err := s.client.CreateTable(ctx, LeaderboardTableSchema(leaderboardTable))
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", leaderboardTable, err)
	}
	return nil
}
