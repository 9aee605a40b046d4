// Package elasticache discovers the Redis endpoint of an ElastiCache
// replication group.
package elasticache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	"github.com/aws/aws-sdk-go-v2/service/elasticache/types"
)

var (
	ErrNoEndpoint  = errors.New("replication group has no usable endpoint")
	ErrClusterMode = errors.New("cluster-mode replication groups are not supported, the leaderboard needs a single shard")
)

type DescribeAPI interface {
	DescribeReplicationGroups(ctx context.Context, params *elasticache.DescribeReplicationGroupsInput, optFns ...func(*elasticache.Options)) (*elasticache.DescribeReplicationGroupsOutput, error)
}

// ResolveRedisAddr returns the primary endpoint of groupID as host:port.
// Cluster-mode groups are rejected: leaderboard transactions watch keys that
// live in different hash slots.
func ResolveRedisAddr(ctx context.Context, client DescribeAPI, groupID string) (string, error) {
	out, err := client.DescribeReplicationGroups(ctx, &elasticache.DescribeReplicationGroupsInput{
		ReplicationGroupId: aws.String(groupID),
	})
	if err != nil {
		return "", fmt.Errorf("describe replication group %s: %w", groupID, err)
	}
	if len(out.ReplicationGroups) == 0 {
		return "", fmt.Errorf("%w: %s not found", ErrNoEndpoint, groupID)
	}

	group := out.ReplicationGroups[0]
	if aws.ToBool(group.ClusterEnabled) || group.ConfigurationEndpoint != nil || len(group.NodeGroups) > 1 {
		return "", fmt.Errorf("%w: %s", ErrClusterMode, groupID)
	}
	for _, ng := range group.NodeGroups {
		if ep := ng.PrimaryEndpoint; ep != nil && ep.Address != nil {
			return joinEndpoint(ep), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoEndpoint, groupID)
}

func joinEndpoint(ep *types.Endpoint) string {
	port := 6379
	if ep.Port != nil {
		port = int(*ep.Port)
	}
	return net.JoinHostPort(aws.ToString(ep.Address), strconv.Itoa(port))
}
