package queryplan

// Aggregate is the aggregation function requested by read_group or
// read_window_aggregate.
type Aggregate int

const (
	AggregateNone Aggregate = iota
	AggregateSum
	AggregateCount
	AggregateMean
	AggregateFirst
	AggregateLast
	AggregateMin
	AggregateMax
)

func (a Aggregate) String() string {
	switch a {
	case AggregateSum:
		return "Sum"
	case AggregateCount:
		return "Count"
	case AggregateMean:
		return "Mean"
	case AggregateFirst:
		return "First"
	case AggregateLast:
		return "Last"
	case AggregateMin:
		return "Min"
	case AggregateMax:
		return "Max"
	default:
		return "None"
	}
}

// IsSelector reports whether agg is a selector aggregate (First/Last/
// Min/Max), which carries a per-field time column alongside its value,
// as opposed to a value-only aggregate (Sum/Count/Mean).
func (a Aggregate) IsSelector() bool {
	switch a {
	case AggregateFirst, AggregateLast, AggregateMin, AggregateMax:
		return true
	default:
		return false
	}
}

// TimeAggregateFor returns the aggregate function applied to the time
// column alongside a selector aggregate on a field: MAX, unless the
// requested aggregate is Min, in which case MIN.
func TimeAggregateFor(agg Aggregate) Aggregate {
	if agg == AggregateMin {
		return AggregateMin
	}
	return AggregateMax
}

// WindowDuration is a fixed-length time window for read_window_aggregate;
// calendar-aware durations (month/year boundaries) are out of scope.
type WindowDuration struct {
	EveryNanos  int64
	OffsetNanos int64
}
