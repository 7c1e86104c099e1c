package instance

import "os"

const defaultID = "worker-0"

// GetID returns the identifier the publisher and consumer binaries stamp on
// their log context so replicas can be told apart. Deployments set WORKER_ID;
// the default covers single-instance runs.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return defaultID
}
