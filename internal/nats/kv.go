package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/verbalize-ai/voice-platform/internal/model"
)

// KV bucket names. Accounts and coupons hold the only shared mutable
// records; redemptions and conversations are create-once.
const (
	BucketAccounts      = "ACCOUNTS"
	BucketCoupons       = "COUPONS"
	BucketRedemptions   = "REDEMPTIONS"
	BucketConversations = "CONVERSATIONS"
)

// Buckets holds handles to the platform's KV buckets.
type Buckets struct {
	Accounts      jetstream.KeyValue
	Coupons       jetstream.KeyValue
	Redemptions   jetstream.KeyValue
	Conversations jetstream.KeyValue
}

// EnsureBuckets ensures all KV buckets exist and returns their handles.
func EnsureBuckets(ctx context.Context, client *Client) (*Buckets, error) {
	js := client.JetStream()

	buckets := &Buckets{}
	for _, b := range []struct {
		name string
		dest *jetstream.KeyValue
		desc string
	}{
		{BucketAccounts, &buckets.Accounts, "Credit balances and plan status per account"},
		{BucketCoupons, &buckets.Coupons, "Coupon definitions and redemption counters"},
		{BucketRedemptions, &buckets.Redemptions, "Per-account coupon redemption records"},
		{BucketConversations, &buckets.Conversations, "Daily conversation index per account"},
	} {
		kv, err := ensureBucket(ctx, js, b.name, b.desc)
		if err != nil {
			return nil, err
		}
		*b.dest = kv
	}

	return buckets, nil
}

func ensureBucket(ctx context.Context, js jetstream.JetStream, name, description string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: description,
		Storage:     jetstream.FileStorage,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", name, err)
	}

	return kv, nil
}

// isWrongLastSequence reports whether a KV update failed its revision check.
// jetstream surfaces the check as a stream wrong-last-sequence API error.
func isWrongLastSequence(err error) bool {
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

// translateUpdateErr converts a KV update failure to the domain conflict
// error the CAS loops in the service layer retry on.
func translateUpdateErr(err error) error {
	if isWrongLastSequence(err) {
		return model.ErrRevisionConflict
	}
	return err
}
