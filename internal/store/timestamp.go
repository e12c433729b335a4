package store

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// toProtoTime converts a nullable Go timestamp (consensus_action.executed_at,
// consensus_context.alarm) into its nullable protobuf wire form. Nothing
// in the tree calls it or fromProtoTime.
func toProtoTime(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}

// fromProtoTime is the inverse of toProtoTime.
func fromProtoTime(ts *timestamppb.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.AsTime()
	return &t
}
