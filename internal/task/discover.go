package task

// Discoverer extracts operations from a plan document to seed the operation
// log. The concrete extractor lives outside this core; Ralph only depends on
// this contract so that `ralph discover` can call a registered implementation.
type Discoverer interface {
	Discover(path string) ([]Operation, error)
}
