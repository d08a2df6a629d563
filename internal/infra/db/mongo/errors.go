package mongo

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

// isTxnConflict reports a write conflict between two open transactions.
func isTxnConflict(err error) bool {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("TransientTransactionError") || serverErr.HasErrorCode(112)
	}
	return false
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
