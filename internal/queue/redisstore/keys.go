package redisstore

import "github.com/google/uuid"

// Redis key layout. Every piece of shared queue state lives under the
// stockq: namespace:
//
//	stockq:task:<id>             hash    one task record
//	stockq:batch:<id>            hash    one batch record
//	stockq:batch_tasks:<id>      set     member task IDs of a batch
//	stockq:queue:ready           list    FIFO ready queue (RPUSH tail, LPOP head)
//	stockq:processing:user:<uid> set     task IDs processing for one user
//	stockq:processing:global     set     task IDs processing across all users
//	stockq:completed             set     terminally completed task IDs
//	stockq:failed                set     terminally failed task IDs
//	stockq:visibility:<id>       hash    lease: worker_id, timeout_at
const (
	taskPrefix       = "stockq:task:"
	batchPrefix      = "stockq:batch:"
	batchTasksPrefix = "stockq:batch_tasks:"
	readyKey         = "stockq:queue:ready"
	userProcPrefix   = "stockq:processing:user:"
	globalProcKey    = "stockq:processing:global"
	completedKey     = "stockq:completed"
	failedKey        = "stockq:failed"
	visibilityPrefix = "stockq:visibility:"
)

func taskKey(id uuid.UUID) string       { return taskPrefix + id.String() }
func batchKey(id uuid.UUID) string      { return batchPrefix + id.String() }
func batchTasksKey(id uuid.UUID) string { return batchTasksPrefix + id.String() }
func userProcKey(userID string) string  { return userProcPrefix + userID }
func visibilityKey(id uuid.UUID) string { return visibilityPrefix + id.String() }
