package jobs

import (
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

// Config represents a configuration for the jobs
type Config struct {
	// RefreshAlarmStatesCronExp overrides the refresh schedule; when
	// empty, RefreshIntervalSeconds applies
	RefreshAlarmStatesCronExp string `toml:"refresh_alarm_states_cron,omitempty"`
	RefreshIntervalSeconds    int    `toml:"refresh_interval_seconds,omitempty"`
}

const defaultRefreshIntervalSeconds = 30

var scheduler *gocron.Scheduler

// Init initializes the jobs scheduler
func Init(config Config) {
	scheduler = gocron.NewScheduler(time.UTC)
	scheduler.SetMaxConcurrentJobs(1, gocron.RescheduleMode)
	addJobs(config)
	scheduler.StartAsync()
}

// addJobs adds the jobs to the scheduler
func addJobs(config Config) {
	var err error
	if config.RefreshAlarmStatesCronExp != "" {
		_, err = scheduler.Cron(config.RefreshAlarmStatesCronExp).Tag("RefreshAlarmStates").Do(RefreshAlarmStates)
	} else {
		interval := config.RefreshIntervalSeconds
		if interval <= 0 {
			interval = defaultRefreshIntervalSeconds
		}
		_, err = scheduler.Every(interval).Seconds().Tag("RefreshAlarmStates").Do(RefreshAlarmStates)
	}
	if err != nil {
		log.Errorf("failed to schedule RefreshAlarmStates: %v", err)
	}
}

// Close stops the jobs scheduler
func Close() {
	if scheduler != nil {
		scheduler.Stop()
	}
}
