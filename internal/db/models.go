package db

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"HomelyBridge/internal/flow"
	"HomelyBridge/internal/sensor"
)

// key prefixes
const (
	flowSessionKeyPrefix = "f"
	configEntryKeyPrefix = "e"
	snapshotKeyPrefix    = "s"
)

// flowSessionTTL is how long a parked setup flow stays resumable
const flowSessionTTL = 10 * time.Minute

// errors
var (
	ErrFlowSessionNotFound = errors.New("db: flow session not found")
	ErrConfigEntryNotFound = errors.New("db: config entry not found")
	ErrSnapshotNotFound    = errors.New("db: snapshot not found")
)

// NewFlowState makes a random opaque token addressing one setup flow
func NewFlowState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "db: failed to make flow state")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GetFlowSession gets the parked flow with the given state token
// the returned flow has no collaborators attached
func GetFlowSession(state string) (*flow.Flow, error) {
	key := fmt.Sprintf("%s:%s", flowSessionKeyPrefix, state)
	value, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrFlowSessionNotFound
		}
		return nil, errors.Wrap(err, "db: failed to get flow session")
	}

	var f flow.Flow
	if err = json.Unmarshal([]byte(value), &f); err != nil {
		return nil, errors.Wrap(err, "db: failed to decode flow session")
	}
	return &f, nil
}

// PutFlowSession parks the given flow under the given state token
func PutFlowSession(state string, f *flow.Flow) error {
	value, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "db: failed to encode flow session")
	}

	key := fmt.Sprintf("%s:%s", flowSessionKeyPrefix, state)
	return rdb.Set(ctx, key, value, flowSessionTTL).Err()
}

// DeleteFlowSession deletes the parked flow with the given state token
func DeleteFlowSession(state string) error {
	key := fmt.Sprintf("%s:%s", flowSessionKeyPrefix, state)
	return rdb.Del(ctx, key).Err()
}

// ConfigEntryStore implements flow.Records on top of redis, keyed by
// location ID so every installation is configured at most once
type ConfigEntryStore struct{}

// Exists reports whether a config entry for the given location exists
func (ConfigEntryStore) Exists(ctx context.Context, locationID string) (bool, error) {
	key := fmt.Sprintf("%s:%s", configEntryKeyPrefix, locationID)
	n, err := rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.Wrap(err, "db: failed to check config entry")
	}
	return n > 0, nil
}

// Insert stores the given record unless one already exists for its
// location. SETNX makes the check-and-insert atomic, so of two racing
// flows exactly one wins.
func (ConfigEntryStore) Insert(ctx context.Context, record flow.Record) (bool, error) {
	value, err := json.Marshal(record)
	if err != nil {
		return false, errors.Wrap(err, "db: failed to encode config entry")
	}

	key := fmt.Sprintf("%s:%s", configEntryKeyPrefix, record.LocationID)
	inserted, err := rdb.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, errors.Wrap(err, "db: failed to insert config entry")
	}
	return inserted, nil
}

// Get gets the config entry for the given location
func (ConfigEntryStore) Get(ctx context.Context, locationID string) (record flow.Record, err error) {
	key := fmt.Sprintf("%s:%s", configEntryKeyPrefix, locationID)
	value, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			err = ErrConfigEntryNotFound
		}
		return
	}

	err = json.Unmarshal([]byte(value), &record)
	return
}

// All gets the config entries of every configured installation
func (ConfigEntryStore) All(ctx context.Context) (records []flow.Record, err error) {
	keys, err := rdb.Keys(ctx, fmt.Sprintf("%s:*", configEntryKeyPrefix)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "db: failed to list config entries")
	}

	for _, key := range keys {
		value, err := rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "db: failed to get config entry")
		}

		var record flow.Record
		if err = json.Unmarshal([]byte(value), &record); err != nil {
			return nil, errors.Wrap(err, "db: failed to decode config entry")
		}
		if record.LocationID == "" {
			record.LocationID = strings.SplitN(key, ":", 2)[1]
		}
		records = append(records, record)
	}
	return
}

// Delete deletes the config entry for the given location
func (ConfigEntryStore) Delete(ctx context.Context, locationID string) error {
	key := fmt.Sprintf("%s:%s", configEntryKeyPrefix, locationID)
	return rdb.Del(ctx, key).Err()
}

// Snapshot is the latest projected state of one installation, written by
// the polling job and read by the sensor endpoints
type Snapshot struct {
	LocationID string                 `json:"lid"`
	State      sensor.AlarmState      `json:"st"`
	RawState   string                 `json:"raw,omitempty"`
	Devices    []sensor.DeviceReading `json:"d,omitempty"`
	UpdatedAt  time.Time              `json:"t"`
}

// GetSnapshot gets the latest snapshot of the given location
func GetSnapshot(locationID string) (snapshot Snapshot, err error) {
	key := fmt.Sprintf("%s:%s", snapshotKeyPrefix, locationID)
	value, err := rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			err = ErrSnapshotNotFound
		}
		return
	}

	err = json.Unmarshal([]byte(value), &snapshot)
	return
}

// PutSnapshot stores the latest snapshot of one location
func PutSnapshot(snapshot Snapshot) error {
	value, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "db: failed to encode snapshot")
	}

	key := fmt.Sprintf("%s:%s", snapshotKeyPrefix, snapshot.LocationID)
	return rdb.Set(ctx, key, value, 0).Err()
}

// DeleteSnapshot deletes the snapshot of the given location
func DeleteSnapshot(locationID string) error {
	key := fmt.Sprintf("%s:%s", snapshotKeyPrefix, locationID)
	return rdb.Del(ctx, key).Err()
}
