package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const (
	appID      = "reflex"
	shortIDLen = 12
	fallbackID = "cabinet"
)

// MachineID returns a short id of this machine, stable across restarts
// and not revealing the raw machine id.
func MachineID() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return fallbackID
	}
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	return id
}
