package pool

import "testing"

// strategyConfig defines a test configuration for a scheduling strategy
type strategyConfig struct {
	name string
	opts []WorkerPoolOption
}

// getAllStrategies returns all scheduling strategies to test
func getAllStrategies(workerCount int) []strategyConfig {
	return []strategyConfig{
		{
			name: "Queue",
			opts: []WorkerPoolOption{
				WithWorkerCount(workerCount),
				WithSchedulingStrategy(SchedulingQueue),
			},
		},
		{
			name: "Channel",
			opts: []WorkerPoolOption{
				WithWorkerCount(workerCount),
				WithSchedulingStrategy(SchedulingChannel),
				WithTaskBuffer(1024),
			},
		},
	}
}

func runStrategyTest(t *testing.T, testFunc func(t *testing.T, s strategyConfig), workerCount int, additionalOpts ...WorkerPoolOption) {
	for _, strategy := range getAllStrategies(workerCount) {
		strategy.opts = append(strategy.opts, additionalOpts...)
		t.Run(strategy.name, func(t *testing.T) {
			testFunc(t, strategy)
		})
	}
}
