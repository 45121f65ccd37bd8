package redis

import "github.com/redis/go-redis/v9"

// createScript writes the record only if the key is absent.
// KEYS[1] share key; ARGV payload, created_at ms, expires_at ms, key ttl ms.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'payload', ARGV[1], 'created_at', ARGV[2], 'expires_at', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// getScript reads the record and deletes it in the same step if it has
// expired. KEYS[1] share key; ARGV[1] now ms.
var getScript = redis.NewScript(`
local f = redis.call('HMGET', KEYS[1], 'payload', 'created_at', 'expires_at')
if not f[1] or not f[3] then
  return {'missing'}
end
if tonumber(ARGV[1]) >= tonumber(f[3]) then
  redis.call('DEL', KEYS[1])
  return {'expired'}
end
return {'live', f[1], f[2], f[3]}
`)

// purgeScript deletes the record once expiry plus retention has passed.
// KEYS[1] share key; ARGV now ms, retention ms.
var purgeScript = redis.NewScript(`
local e = redis.call('HGET', KEYS[1], 'expires_at')
if not e then
  return 0
end
if tonumber(ARGV[1]) >= tonumber(e) + tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)
