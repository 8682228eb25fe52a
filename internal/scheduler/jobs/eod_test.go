package jobs

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/verdict/pkg/logger"
)

// same parser cron.New(cron.WithSeconds()) uses
func parseSchedule(t *testing.T, spec string) cron.Schedule {
	t.Helper()
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(spec)
	require.NoError(t, err)
	return sched
}

func TestJPJobFiresAtTokyoClose(t *testing.T) {
	job := NewJPEODJob(nil, logger.NewNop())
	assert.Equal(t, "eod_run_JP", job.Name())

	sched := parseSchedule(t, job.Schedule())

	// Monday 00:00 UTC is Monday 09:00 in Tokyo
	from := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	next := sched.Next(from)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	local := next.In(tokyo)
	assert.Equal(t, time.Monday, local.Weekday())
	assert.Equal(t, 16, local.Hour())
	assert.Equal(t, 30, local.Minute())

	// 16:30 JST is 07:30 UTC; a server-local interpretation on a UTC host
	// would fire at 16:30 UTC, 01:30 next day in Tokyo
	assert.Equal(t, 7, next.UTC().Hour())
}

func TestUSJobFiresAtNewYorkClose(t *testing.T) {
	job := NewUSEODJob(nil, logger.NewNop())
	assert.Equal(t, "eod_run_US", job.Name())

	sched := parseSchedule(t, job.Schedule())

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// January (EST, UTC-5): Monday 17:30 local is 22:30 UTC
	winter := sched.Next(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	winterLocal := winter.In(ny)
	assert.Equal(t, time.Monday, winterLocal.Weekday())
	assert.Equal(t, 17, winterLocal.Hour())
	assert.Equal(t, 30, winterLocal.Minute())
	assert.Equal(t, 22, winter.UTC().Hour())

	// July (EDT, UTC-4): same local wall clock, 21:30 UTC
	summer := sched.Next(time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC))
	summerLocal := summer.In(ny)
	assert.Equal(t, 17, summerLocal.Hour())
	assert.Equal(t, 30, summerLocal.Minute())
	assert.Equal(t, 21, summer.UTC().Hour())
}

func TestJobsSkipWeekends(t *testing.T) {
	job := NewJPEODJob(nil, logger.NewNop())
	sched := parseSchedule(t, job.Schedule())

	// Saturday 00:00 UTC rolls forward to Monday's close
	next := sched.Next(time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, next.In(tokyo).Weekday())
}

func TestScheduleCarriesMarketZone(t *testing.T) {
	assert.Equal(t, "CRON_TZ=Asia/Tokyo 0 30 16 * * MON-FRI", NewJPEODJob(nil, logger.NewNop()).Schedule())
	assert.Equal(t, "CRON_TZ=America/New_York 0 30 17 * * MON-FRI", NewUSEODJob(nil, logger.NewNop()).Schedule())
}
