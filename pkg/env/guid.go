package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"

	"github.com/robotalks/swali.go/pkg/vscp"
)

// AppID scopes the machine ID so the GUID doesn't expose it.
const AppID = "swali"

// MachineID retrieves the ID identifying the machine for this application.
func MachineID() (string, error) {
	return machineid.ProtectedID(AppID)
}

// GUIDFromID derives a stable node GUID from an ID string. Different
// instances on one machine are told apart by name.
func GUIDFromID(id, name string) (guid [vscp.GUIDSize]byte) {
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(id+"/"+name))
	copy(guid[:], u[:])
	return
}

// MachineGUID derives the node GUID from the machine ID.
func MachineGUID(name string) ([vscp.GUIDSize]byte, error) {
	id, err := MachineID()
	if err != nil {
		return [vscp.GUIDSize]byte{}, err
	}
	return GUIDFromID(id, name), nil
}
