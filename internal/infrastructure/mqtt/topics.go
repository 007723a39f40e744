package mqtt

import "fmt"

// Topic prefixes for the LanGuard MQTT hierarchy.
//
//	languard/device/{mac}/presence   retained DeviceView per identity
//	languard/core/summary            retained online/blocked/scheduled counts
//	languard/core/block/{mac}        block and unblock events
//	languard/system/status           retained online/offline status (LWT)
const (
	// TopicPrefix is the root of every LanGuard topic.
	TopicPrefix = "languard"

	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "languard/device"

	// TopicPrefixCore is the base for core topics.
	TopicPrefixCore = "languard/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "languard/system"
)

// Topics provides builders for LanGuard MQTT topics.
//
//	topic := mqtt.Topics{}.DevicePresence("aa:bb:cc:dd:ee:ff")
//	// Returns: "languard/device/aa:bb:cc:dd:ee:ff/presence"
type Topics struct{}

// DevicePresence returns the retained presence topic for one identity.
func (Topics) DevicePresence(mac string) string {
	return fmt.Sprintf("%s/%s/presence", TopicPrefixDevice, mac)
}

// AllDevicePresence returns a wildcard matching every presence topic.
func (Topics) AllDevicePresence() string {
	return TopicPrefixDevice + "/+/presence"
}

// CoreSummary returns the topic for the per-sweep device summary.
func (Topics) CoreSummary() string {
	return TopicPrefixCore + "/summary"
}

// CoreBlock returns the topic for block ledger changes of one identity.
func (Topics) CoreBlock(mac string) string {
	return fmt.Sprintf("%s/block/%s", TopicPrefixCore, mac)
}

// AllCoreBlocks returns a wildcard matching every block change topic.
func (Topics) AllCoreBlocks() string {
	return TopicPrefixCore + "/block/+"
}

// SystemStatus returns the topic for the service status and LWT.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
