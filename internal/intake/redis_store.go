package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// KeyPendingFormat is the format for Redis keys storing a pending submission
	KeyPendingFormat = "intake:pending:%d"
)

var _ Store = &RedisStore{}

// RedisStore keeps pending submissions in Redis so they survive bot restarts.
// Expiry is delegated to Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStore) Put(ctx context.Context, owner OwnerID, sub Submission) (*Submission, error) {
	data, err := marshalSubmission(sub)
	if err != nil {
		return nil, err
	}

	// SET ... GET is atomic: either the new entry is stored and the old one
	// returned, or nothing changes.
	prev, err := s.client.SetArgs(ctx, fmt.Sprintf(KeyPendingFormat, owner), data, redis.SetArgs{
		Get: true,
		TTL: s.ttl,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store pending submission: %w", err)
	}

	return unmarshalSubmission([]byte(prev))
}

func (s *RedisStore) Get(ctx context.Context, owner OwnerID) (*Submission, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyPendingFormat, owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending submission: %w", err)
	}
	return unmarshalSubmission(data)
}

func (s *RedisStore) TakeAndRemove(ctx context.Context, owner OwnerID) (*Submission, error) {
	data, err := s.client.GetDel(ctx, fmt.Sprintf(KeyPendingFormat, owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take pending submission: %w", err)
	}
	return unmarshalSubmission(data)
}

func (s *RedisStore) Remove(ctx context.Context, owner OwnerID) error {
	if err := s.client.Del(ctx, fmt.Sprintf(KeyPendingFormat, owner)).Err(); err != nil {
		return fmt.Errorf("failed to remove pending submission: %w", err)
	}
	return nil
}

func marshalSubmission(sub Submission) ([]byte, error) {
	st, err := structpb.NewStruct(map[string]any{
		"kind":       sub.Kind.String(),
		"magnet":     sub.Magnet,
		"file_path":  sub.FilePath,
		"file_name":  sub.FileName,
		"created_at": sub.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	data, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission: %w", err)
	}
	return data, nil
}

func unmarshalSubmission(data []byte) (*Submission, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
	}

	fields := st.GetFields()
	kind, err := parseSourceKind(fields["kind"].GetStringValue())
	if err != nil {
		return nil, err
	}

	return &Submission{
		Kind:      kind,
		Magnet:    fields["magnet"].GetStringValue(),
		FilePath:  fields["file_path"].GetStringValue(),
		FileName:  fields["file_name"].GetStringValue(),
		CreatedAt: time.UnixMilli(int64(fields["created_at"].GetNumberValue())),
	}, nil
}
