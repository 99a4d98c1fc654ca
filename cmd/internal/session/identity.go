package session

import (
	"fmt"
	"strings"
	"time"
)

// Role is the dashboard role a subject signed in with.
type Role string

const (
	// RoleManager manages telecallers and gym assignments.
	RoleManager Role = "manager"
	// RoleTelecaller works an assigned gym list and logs calls.
	RoleTelecaller Role = "telecaller"
)

// ParseRole normalizes s into a known Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleManager, RoleTelecaller:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, s)
	}
}

// DeviceClass is the client class reported to the backend on refresh.
type DeviceClass string

const (
	// DeviceWeb is a browser-based client.
	DeviceWeb DeviceClass = "web"
	// DeviceIOS is an iOS native client.
	DeviceIOS DeviceClass = "ios"
	// DeviceAndroid is an Android native client.
	DeviceAndroid DeviceClass = "android"
	// DeviceDesktop is a desktop or terminal client.
	DeviceDesktop DeviceClass = "desktop"
	// DeviceUnknown is used when the client class is not known.
	DeviceUnknown DeviceClass = "unknown"
)

// ParseDeviceClass normalizes s; the empty string maps to DeviceUnknown.
func ParseDeviceClass(s string) (DeviceClass, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DeviceUnknown, nil
	}
	switch d := DeviceClass(s); d {
	case DeviceWeb, DeviceIOS, DeviceAndroid, DeviceDesktop, DeviceUnknown:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown device class %q", ErrInvalidIdentity, s)
	}
}

// Identity is the locally held part of a signed-in session. The credentials
// themselves live in cookies; this is what the refresh call needs to name
// the subject.
type Identity struct {
	SubjectID   string      `json:"subject_id"`
	Role        Role        `json:"role"`
	Name        string      `json:"name,omitempty"`
	Mobile      string      `json:"mobile,omitempty"`
	DeviceClass DeviceClass `json:"device_class,omitempty"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// Validate requires a subject id and a known role.
func (id Identity) Validate() error {
	if strings.TrimSpace(id.SubjectID) == "" {
		return fmt.Errorf("%w: missing subject id", ErrInvalidIdentity)
	}
	if _, err := ParseRole(string(id.Role)); err != nil {
		return err
	}
	return nil
}

// Device returns the device class, defaulting to DeviceUnknown.
func (id Identity) Device() DeviceClass {
	if id.DeviceClass == "" {
		return DeviceUnknown
	}
	return id.DeviceClass
}
