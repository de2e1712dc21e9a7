package store

import (
	"github.com/redis/go-redis/v9"
)

// Every check-and-mutate sequence runs as a single Lua script so that the
// check and the write are never separated by a gap visible to another caller.
// Scripts return flat arrays: {"ok", ...} or {"err", CODE, ...}. Records that
// carry cash amounts are returned as JSON strings because Redis truncates Lua
// numbers to integers in script replies.

// spendScript: KEYS[1]=balance key, ARGV[1]=amount, ARGV[2]=now,
// ARGV[3]=counter field to bump (totalSpent or totalConverted).
var spendScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return {'err', 'NO_BALANCE'}
end
local data = cjson.decode(raw)
local amount = tonumber(ARGV[1])
if data.balance < amount then
  return {'err', 'INSUFFICIENT', data.balance}
end
data.balance = data.balance - amount
data[ARGV[3]] = data[ARGV[3]] + amount
data.updatedAt = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(data))
return {'ok', data.balance}
`)

// creditScript: KEYS[1]=balance key, ARGV[1]=amount, ARGV[2]=now,
// ARGV[3]=credit kind (purchase or received). Creates the record with zeroed
// counters when absent.
var creditScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
local data
if not raw then
  data = {
    balance = 0,
    totalPurchased = 0,
    totalSpent = 0,
    totalReceived = 0,
    totalConverted = 0,
  }
else
  data = cjson.decode(raw)
end
local amount = tonumber(ARGV[1])
data.balance = data.balance + amount
if ARGV[3] == 'purchase' then
  data.totalPurchased = data.totalPurchased + amount
else
  data.totalReceived = data.totalReceived + amount
end
data.updatedAt = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(data))
return {'ok', data.balance}
`)

// transferScript: KEYS[1]=sender balance key, KEYS[2]=receiver balance key,
// ARGV[1]=amount, ARGV[2]=now. Deducts and credits in one indivisible step;
// on failure neither side is mutated.
var transferScript = redis.NewScript(`
local fromRaw = redis.call('GET', KEYS[1])
if not fromRaw then
  return {'err', 'NO_BALANCE'}
end
local from = cjson.decode(fromRaw)
local amount = tonumber(ARGV[1])
if from.balance < amount then
  return {'err', 'INSUFFICIENT', from.balance}
end

from.balance = from.balance - amount
from.totalSpent = from.totalSpent + amount
from.updatedAt = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(from))

local toRaw = redis.call('GET', KEYS[2])
local to
if not toRaw then
  to = {
    balance = 0,
    totalPurchased = 0,
    totalSpent = 0,
    totalReceived = 0,
    totalConverted = 0,
  }
else
  to = cjson.decode(toRaw)
end
to.balance = to.balance + amount
to.totalReceived = to.totalReceived + amount
to.updatedAt = ARGV[2]
redis.call('SET', KEYS[2], cjson.encode(to))

return {'ok', from.balance, to.balance}
`)

// walletCreditScript: KEYS[1]=wallet key, ARGV[1]=net amount, ARGV[2]=now,
// ARGV[3]=userId. Initializes the wallet on first credit.
var walletCreditScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
local wallet
if not raw then
  wallet = {
    userId = ARGV[3],
    balance = 0,
    pendingBalance = 0,
    totalEarnings = 0,
    totalWithdrawn = 0,
  }
else
  wallet = cjson.decode(raw)
end
local net = tonumber(ARGV[1])
wallet.balance = wallet.balance + net
wallet.totalEarnings = wallet.totalEarnings + net
wallet.updatedAt = ARGV[2]
local encoded = cjson.encode(wallet)
redis.call('SET', KEYS[1], encoded)
return {'ok', encoded}
`)

// walletRefundScript: KEYS[1]=wallet key, ARGV[1]=amount, ARGV[2]=now.
// Returns earmarked funds to the balance. totalEarnings is untouched; the
// money was already counted when it was first credited.
var walletRefundScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return {'err', 'NOT_FOUND'}
end
local wallet = cjson.decode(raw)
wallet.balance = wallet.balance + tonumber(ARGV[1])
wallet.updatedAt = ARGV[2]
local encoded = cjson.encode(wallet)
redis.call('SET', KEYS[1], encoded)
return {'ok', encoded}
`)

// walletDeductScript: KEYS[1]=wallet key, ARGV[1]=amount, ARGV[2]=now.
// Earmarks funds for a withdrawal request.
var walletDeductScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return {'err', 'NOT_FOUND'}
end
local wallet = cjson.decode(raw)
local amount = tonumber(ARGV[1])
if wallet.balance < amount then
  return {'err', 'INSUFFICIENT', tostring(wallet.balance)}
end
wallet.balance = wallet.balance - amount
wallet.updatedAt = ARGV[2]
local encoded = cjson.encode(wallet)
redis.call('SET', KEYS[1], encoded)
return {'ok', encoded}
`)

// withdrawalTransitionScript: KEYS[1]=withdrawal key, KEYS[2]=wallet key,
// ARGV[1]=action (approve|reject), ARGV[2]=now. The status check and the
// transition happen in one step, so a withdrawal is approvable or rejectable
// exactly once even when two review surfaces race. Rejection refunds the
// wallet balance in the same step; approval bumps totalWithdrawn.
var withdrawalTransitionScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return {'err', 'NOT_FOUND'}
end
local wd = cjson.decode(raw)
if wd.status ~= 'pending' then
  return {'err', 'ALREADY_PROCESSED', wd.status}
end

local walletRaw = redis.call('GET', KEYS[2])
if not walletRaw then
  return {'err', 'WALLET_NOT_FOUND'}
end
local wallet = cjson.decode(walletRaw)

if ARGV[1] == 'reject' then
  wd.status = 'rejected'
  wallet.balance = wallet.balance + wd.amount
else
  wd.status = 'completed'
  wallet.totalWithdrawn = wallet.totalWithdrawn + wd.amount
end
wd.processedAt = ARGV[2]
wallet.updatedAt = ARGV[2]

local wdEncoded = cjson.encode(wd)
local walletEncoded = cjson.encode(wallet)
redis.call('SET', KEYS[1], wdEncoded)
redis.call('SET', KEYS[2], walletEncoded)
return {'ok', wdEncoded, walletEncoded}
`)

// completePurchaseScript: KEYS[1]=purchase key, ARGV[1]=external payment id,
// ARGV[2]=now. CAS on status so that replayed or concurrent payment events
// elect exactly one winner to credit the ledger. Completion rewrites the key
// with a plain SET, clearing the pending-record TTL.
var completePurchaseScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return {'err', 'NOT_FOUND'}
end
local purchase = cjson.decode(raw)
if purchase.status == 'completed' then
  return {'err', 'ALREADY_COMPLETED'}
end
purchase.status = 'completed'
purchase.externalPaymentId = ARGV[1]
purchase.completedAt = ARGV[2]
local encoded = cjson.encode(purchase)
redis.call('SET', KEYS[1], encoded)
return {'ok', encoded}
`)
