package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"HomelyBridge/internal/db"
	rl "HomelyBridge/internal/db/ratelimiters"
	"HomelyBridge/internal/flow"
	"HomelyBridge/internal/metrics"
	"HomelyBridge/internal/sensor"
	"HomelyBridge/pkg/homelyapi"
)

var store db.ConfigEntryStore

// clients caches one authenticated API client per configured location so
// access tokens get reused across refresh cycles
var (
	clientsMtx sync.Mutex
	clients    = map[string]*homelyapi.Client{}
)

func clientFor(record flow.Record) *homelyapi.Client {
	clientsMtx.Lock()
	defer clientsMtx.Unlock()
	if c, ok := clients[record.LocationID]; ok {
		return c
	}

	c := homelyapi.NewClient(record.Username, record.Password)
	clients[record.LocationID] = c
	return c
}

func dropClient(locationID string) {
	clientsMtx.Lock()
	defer clientsMtx.Unlock()
	delete(clients, locationID)
}

// RefreshAlarmStates polls every configured installation, projects its
// raw alarm state onto the canonical enumeration and stores the
// resulting snapshot
func RefreshAlarmStates() {
	logger := log.WithField("job", "RefreshAlarmStates")
	metrics.PollCycles.Inc()

	ctx := context.Background()
	records, err := store.All(ctx)
	if err != nil {
		logger.Errorf("failed to get config entries: %v", err)
		metrics.PollErrors.WithLabelValues("store").Inc()
		return
	}
	metrics.ConfiguredLocations.Set(float64(len(records)))

	for _, record := range records {
		locationLogger := logger.WithField("location", record.LocationID)

		if !rl.HomePollAllowed(ctx, record.LocationID) {
			locationLogger.Debug("poll skipped, rate limited")
			continue
		}

		home, err := clientFor(record).GetHome(record.LocationID)
		if err != nil {
			metrics.PollErrors.WithLabelValues(pollErrorReason(err)).Inc()
			if errors.Is(err, homelyapi.ErrInvalidAuth) || errors.Is(err, homelyapi.ErrUnauthorized) {
				// stored credentials stopped working, force a fresh
				// login on the next cycle
				locationLogger.Warn("credentials rejected, re-authentication needed")
				dropClient(record.LocationID)
			} else {
				locationLogger.Errorf("failed to get home data: %v", err)
			}
			continue
		}

		state := sensor.Project(home.AlarmState)
		if state == sensor.StateUnknown {
			metrics.ProjectionFallbacks.Inc()
		}

		err = db.PutSnapshot(db.Snapshot{
			LocationID: record.LocationID,
			State:      state,
			RawState:   home.AlarmState,
			Devices:    sensor.ReadDevices(home.Devices),
			UpdatedAt:  time.Now(),
		})
		if err != nil {
			locationLogger.Errorf("failed to store snapshot: %v", err)
			metrics.PollErrors.WithLabelValues("store").Inc()
			continue
		}
		locationLogger.WithField("state", state).Debug("snapshot refreshed")
	}
}

func pollErrorReason(err error) string {
	switch {
	case errors.Is(err, homelyapi.ErrInvalidAuth), errors.Is(err, homelyapi.ErrUnauthorized):
		return "auth"
	case errors.Is(err, homelyapi.ErrLocationNotFound):
		return "not_found"
	default:
		return "response"
	}
}
