package redis_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/factory"
	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
	"github.com/warp/statpay/store/redis"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func christmasRequest(t *testing.T) holidaypay.ComputeRequest {
	t.Helper()
	emp := holidaypay.Employee{
		ID:             "e1",
		HireDate:       date("2020-01-06"),
		Province:       generic.ProvinceAB,
		EmploymentType: holidaypay.EmploymentHourly,
		HourlyRate:     decimal.NewFromInt(20),
	}
	var records []holidaypay.WorkRecord
	for _, day := range (generic.Period{Start: date("2024-11-20"), End: date("2024-12-31")}).Days() {
		if emp.IsScheduled(day.Weekday()) && !day.Equal(date("2024-12-25")) {
			records = append(records, holidaypay.WorkRecord{
				EmployeeID:  emp.ID,
				Date:        day,
				HoursWorked: decimal.NewFromInt(8),
				Earnings:    decimal.NewFromInt(160),
			})
		}
	}
	h, ok := jurisdiction.FindHoliday(generic.ProvinceAB, date("2024-12-25"))
	require.True(t, ok)
	return holidaypay.ComputeRequest{Employee: emp, WorkRecords: records, Holiday: h}
}

func newTestCache(t *testing.T) *redis.Cache {
	t.Helper()
	addr := os.Getenv("STATPAY_REDIS_ADDR")
	if addr == "" {
		t.Skip("STATPAY_REDIS_ADDR not set; skipping integration test")
	}
	cache := redis.New(redis.Options{
		Addr:   addr,
		Prefix: fmt.Sprintf("statpay_test_%d:", time.Now().UnixNano()),
		TTL:    time.Minute,
	})
	t.Cleanup(func() { _ = cache.Close() })
	require.NoError(t, cache.Ping(context.Background()))
	return cache
}

// =============================================================================
// KEYS
// =============================================================================

func TestCache_KeyDependsOnTableAndRequest(t *testing.T) {
	cache := redis.NewWithClient(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), redis.Options{})
	defer func() { _ = cache.Close() }()
	req := christmasRequest(t)

	a, err := cache.Key("table-1", req)
	require.NoError(t, err)
	again, err := cache.Key("table-1", christmasRequest(t))
	require.NoError(t, err)
	otherTable, err := cache.Key("table-2", req)
	require.NoError(t, err)

	req.UseLatestConfig = true
	otherRequest, err := cache.Key("table-1", req)
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, otherTable)
	assert.NotEqual(t, a, otherRequest)
	assert.Contains(t, a, redis.DefaultPrefix)
}

func TestCache_UnreachableServerIsAnErrorNotAMiss(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	cache := redis.NewWithClient(client, redis.Options{})
	defer func() { _ = cache.Close() }()

	res, hit, err := cache.Get(context.Background(), "statpay:holidaypay:x")

	assert.Error(t, err)
	assert.False(t, hit)
	assert.Nil(t, res)
}

// =============================================================================
// INTEGRATION (needs STATPAY_REDIS_ADDR)
// =============================================================================

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)
	table := factory.MustDefault().Table()
	digest, err := table.Digest()
	require.NoError(t, err)

	req := christmasRequest(t)
	res, err := holidaypay.NewCalculator(table).ComputeHolidayPay(req)
	require.NoError(t, err)
	key, err := cache.Key(digest, req)
	require.NoError(t, err)

	// Miss before Set
	_, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, key, res))
	got, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, res.Fingerprint, got.Fingerprint)
	assert.True(t, res.TotalPay.Equal(got.TotalPay))
}

func TestCache_TamperedEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)
	req := christmasRequest(t)
	res, err := holidaypay.NewCalculator(factory.MustDefault().Table()).ComputeHolidayPay(req)
	require.NoError(t, err)

	key, err := cache.Key("any", req)
	require.NoError(t, err)
	res.TotalPay = res.TotalPay.Add(decimal.NewFromInt(1))
	require.NoError(t, cache.Set(ctx, key, res))

	_, hit, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)
}
