package config

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionFeedChannel returns the Redis pub/sub channel carrying newly
// created attendance records for one session. The live feed subscribes
// to it; the attendance service publishes to it.
func SessionFeedChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("attendance:session:%s", sessionID)
}
