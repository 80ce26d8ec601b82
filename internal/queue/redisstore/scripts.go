package redisstore

import "github.com/redis/go-redis/v9"

// Server-side scripts make the queue's multi-structure transitions
// indivisible under concurrent dispatchers, ackers, and reapers. Each script
// re-reads the task's status inside Redis, so a check-then-act race between
// processes resolves to exactly one winner.

// claimScript transitions a queued task to processing if and only if both
// processing sets are under their limits.
//
//	KEYS[1] task hash
//	KEYS[2] user processing set
//	KEYS[3] global processing set
//	KEYS[4] visibility lease hash
//	ARGV[1] worker id
//	ARGV[2] user limit
//	ARGV[3] global limit
//	ARGV[4] started_at
//	ARGV[5] timeout_at (unix seconds)
//
// Returns "claimed", "denied", "stale", or "missing".
var claimScript = redis.NewScript(`
local status = redis.call("HGET", KEYS[1], "status")
if not status then
	return "missing"
end
if status ~= "queued" then
	return "stale"
end
if redis.call("SCARD", KEYS[2]) >= tonumber(ARGV[2]) then
	return "denied"
end
if redis.call("SCARD", KEYS[3]) >= tonumber(ARGV[3]) then
	return "denied"
end
local id = redis.call("HGET", KEYS[1], "id")
redis.call("SADD", KEYS[2], id)
redis.call("SADD", KEYS[3], id)
redis.call("HSET", KEYS[1], "status", "processing", "worker_id", ARGV[1], "started_at", ARGV[4])
redis.call("HSET", KEYS[4], "task_id", id, "worker_id", ARGV[1], "timeout_at", ARGV[5])
return "claimed"
`)

// releaseScript transitions a processing task to a terminal status, clearing
// the lease and both set memberships. No-op (returns 0) unless the task is
// currently processing, which is what makes ack and cancel idempotent.
//
//	KEYS[1] task hash
//	KEYS[2] user processing set
//	KEYS[3] global processing set
//	KEYS[4] visibility lease hash
//	KEYS[5] terminal set (completed or failed)
//	ARGV[1] terminal status
//	ARGV[2] timestamp field name (completed_at or cancelled_at)
//	ARGV[3] timestamp value
//	ARGV[4] "1" to add the id to KEYS[5], "" to skip (cancelled)
var releaseScript = redis.NewScript(`
local status = redis.call("HGET", KEYS[1], "status")
if status ~= "processing" then
	return 0
end
local id = redis.call("HGET", KEYS[1], "id")
redis.call("SREM", KEYS[2], id)
redis.call("SREM", KEYS[3], id)
redis.call("DEL", KEYS[4])
redis.call("HSET", KEYS[1], "status", ARGV[1], ARGV[2], ARGV[3], "worker_id", "")
if ARGV[4] == "1" then
	redis.call("SADD", KEYS[5], id)
end
return 1
`)

// cancelQueuedScript cancels a still-queued task and removes it from the
// ready list. A task that has already been popped (mid-dequeue) is no longer
// "queued" only after the claim, so this script may race a dispatcher; the
// claim script's status check makes exactly one of them win.
//
//	KEYS[1] task hash
//	KEYS[2] ready list
//	ARGV[1] cancelled_at
var cancelQueuedScript = redis.NewScript(`
local status = redis.call("HGET", KEYS[1], "status")
if status ~= "queued" then
	return 0
end
local id = redis.call("HGET", KEYS[1], "id")
redis.call("LREM", KEYS[2], 0, id)
redis.call("HSET", KEYS[1], "status", "cancelled", "cancelled_at", ARGV[1])
return 1
`)

// requeueScript returns an orphaned processing task to the ready queue,
// incrementing its requeue counter. The lease must still be expired when
// the script runs: between the reaper's scan and this call another worker
// may have completed the requeue and re-claimed the task under a fresh
// lease, which must not be torn down.
//
//	KEYS[1] task hash
//	KEYS[2] user processing set
//	KEYS[3] global processing set
//	KEYS[4] visibility lease hash
//	KEYS[5] ready list
//	ARGV[1] requeued_at
//	ARGV[2] now as unix seconds
var requeueScript = redis.NewScript(`
local status = redis.call("HGET", KEYS[1], "status")
if status ~= "processing" then
	return 0
end
local deadline = redis.call("HGET", KEYS[4], "timeout_at")
if not deadline or tonumber(deadline) >= tonumber(ARGV[2]) then
	return 0
end
local id = redis.call("HGET", KEYS[1], "id")
redis.call("SREM", KEYS[2], id)
redis.call("SREM", KEYS[3], id)
redis.call("DEL", KEYS[4])
redis.call("HINCRBY", KEYS[1], "requeues", 1)
redis.call("HSET", KEYS[1], "status", "queued", "worker_id", "", "requeued_at", ARGV[1])
redis.call("RPUSH", KEYS[5], id)
return 1
`)
