package engine

import "sync"

// Statistics counts the progress of one migration.
// Once a batch has been fully written Fetched equals Migrated plus Ignored.
type Statistics struct {
	Total    int64
	Fetched  int64
	Migrated int64
	Ignored  int64
}

// Processed returns the number of fetched records whose write has resolved.
func (statistics Statistics) Processed() int64 {
	return statistics.Migrated + statistics.Ignored
}

// StatisticsObserver receives progress notifications from the engine.
// StatisticsUpdated is called with a snapshot after every counter change; calls are serialized.
type StatisticsObserver interface {
	MigrationStarted(migrationName string)
	StatisticsUpdated(migrationName string, statistics Statistics)
	MigrationFinished(result MigrationResult)
}

type noopObserver struct{}

func (noopObserver) MigrationStarted(string)              {}
func (noopObserver) StatisticsUpdated(string, Statistics) {}
func (noopObserver) MigrationFinished(MigrationResult)    {}

type statisticsTracker struct {
	countersMutex     sync.Mutex
	notificationMutex sync.Mutex
	counters          Statistics
	state             State
	migrationName     string
	observer          StatisticsObserver
}

func newStatisticsTracker(observer StatisticsObserver) *statisticsTracker {
	return &statisticsTracker{observer: observer}
}

func (tracker *statisticsTracker) reset(migrationName string) {
	tracker.update(func(counters *Statistics) {
		*counters = Statistics{}
	}, migrationName)
}

func (tracker *statisticsTracker) setTotal(total int64) {
	tracker.update(func(counters *Statistics) { counters.Total = total }, "")
}

func (tracker *statisticsTracker) addFetched(count int) {
	tracker.update(func(counters *Statistics) { counters.Fetched += int64(count) }, "")
}

func (tracker *statisticsTracker) addMigrated() {
	tracker.update(func(counters *Statistics) { counters.Migrated++ }, "")
}

func (tracker *statisticsTracker) addIgnored() {
	tracker.update(func(counters *Statistics) { counters.Ignored++ }, "")
}

func (tracker *statisticsTracker) setState(state State) {
	tracker.countersMutex.Lock()
	defer tracker.countersMutex.Unlock()
	tracker.state = state
}

func (tracker *statisticsTracker) currentState() State {
	tracker.countersMutex.Lock()
	defer tracker.countersMutex.Unlock()
	return tracker.state
}

func (tracker *statisticsTracker) snapshot() Statistics {
	tracker.countersMutex.Lock()
	defer tracker.countersMutex.Unlock()
	return tracker.counters
}

// update applies the mutation and notifies the observer; the notification lock keeps
// observers seeing snapshots in the order they were taken.
func (tracker *statisticsTracker) update(mutate func(*Statistics), migrationName string) {
	tracker.notificationMutex.Lock()
	defer tracker.notificationMutex.Unlock()

	tracker.countersMutex.Lock()
	if len(migrationName) > 0 {
		tracker.migrationName = migrationName
	}
	mutate(&tracker.counters)
	currentName := tracker.migrationName
	currentSnapshot := tracker.counters
	tracker.countersMutex.Unlock()

	tracker.observer.StatisticsUpdated(currentName, currentSnapshot)
}
