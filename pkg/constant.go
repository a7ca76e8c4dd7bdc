package pkg

const (
	// default dwell time at each intermediate stop of a route, in seconds
	MEAN_STOP_TIME_S = 0.0
	// penalty added to a trip for every transfer it makes, in seconds
	AVG_TRANSFER_WAIT_TIME_S = 300.0
	// extra time charged per unsatisfied trip by the nikolic cost, in seconds
	UNSAT_PENALTY_EXTRA_S = 3000.0

	// padding value of route arrays. also used as the "route is done" action.
	EMPTY_STOP = -1

	EPSILON = 1e-6
	// absolute tolerance used when deciding if satisfied demand is zero
	ZERO_ATOL = 1e-8

	// flat step added to a constraint violation fraction when it is non-zero
	CONSTRAINT_STEP_PENALTY = 0.1
	// how much more often an extreme weight is sampled than one in between
	EXTREME_TO_BETWEEN_RATIO = 2.0

	// demand buckets: trips at 0, 1, 2 transfers, and unreachable (or more)
	N_TRANSFER_BUCKETS = 4
)

const (
	DEMAND_TIME_WEIGHT = "demand_time_weight"
	ROUTE_TIME_WEIGHT  = "route_time_weight"
)

const (
	DEFAULT_MIN_ROUTE_LEN               = 2
	DEFAULT_DEMAND_TIME_WEIGHT          = 0.5
	DEFAULT_ROUTE_TIME_WEIGHT           = 0.5
	DEFAULT_CONSTRAINT_VIOLATION_WEIGHT = 5.0
)

const (
	DEBUG = false
)
