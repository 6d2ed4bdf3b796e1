package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const machineIDApp = "sutcheck"

// MachineID retrieves an ID identifying this tester host. The raw machine
// ID is hashed with the application name so it is not exposed on the
// broker. "unknown" is returned when no ID is available.
func MachineID() string {
	id, err := machineid.ProtectedID(machineIDApp)
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return "unknown"
	}
	if len(id) > 16 {
		id = id[:16]
	}
	return id
}
