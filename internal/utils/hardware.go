package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
	"sync"
)

// UnknownDevice is reported when no network interface has a hardware address.
const UnknownDevice = "BEY-UNKNOWN"

var (
	deviceOnce sync.Once
	deviceID   string
)

// GetDeviceID names this machine from the MAC address of its first active
// interface, hashed into a short ID like "BEY-A1B2C3D4". Computed once.
func GetDeviceID() string {
	deviceOnce.Do(func() {
		deviceID = deviceIDFrom(net.Interfaces)
	})
	return deviceID
}

func deviceIDFrom(list func() ([]net.Interface, error)) string {
	interfaces, err := list()
	if err != nil {
		return UnknownDevice
	}

	var mac string
	for _, i := range interfaces {
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
			mac = i.HardwareAddr.String()
			break
		}
	}
	if mac == "" {
		return UnknownDevice
	}

	hash := sha256.Sum256([]byte(mac + "BEY-CASH-DESK"))
	return "BEY-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}
