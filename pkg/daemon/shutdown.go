package daemon

// Please add the dependencies if you add your own priority here.
// Otherwise investigating deadlocks at shutdown is much more complicated.

const (
	PriorityCloseDatabase = iota // no dependencies
	PriorityClient
	PriorityAccount // depends on Client
	PriorityReader  // depends on Client, CloseDatabase
	PriorityWriter  // depends on Account
	PriorityRestAPI // depends on Account, Client
	PriorityMetrics
)
