// Package mqtt provides the MQTT client LanGuard uses to publish events.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS validation and a payload size cap
//   - Last Will and Testament (LWT) on languard/system/status
//   - Connection health monitoring
//
// Publishing is one-way. Home automation or dashboards subscribe to the
// retained presence topics to learn which devices are on the network.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DevicePresence("aa:bb:cc:dd:ee:ff")
//	err = client.PublishJSON(topic, view, true)
//
// TLS should be enabled (cfg.Broker.TLS) whenever the broker is not on
// the same host.
package mqtt
