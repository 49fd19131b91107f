package config

// Embedded configuration keyed by device ID (the value given to WithDevice).

// The Pico's SCLK belongs to SPI0, so no reset kick is wired.
const cfgPicoDDS = `{
  "hal": {
    "devices": [
      {"id": "dds0", "type": "ad9959", "params": {
        "bus": "spi0", "reset_pin": 20, "update_pin": 21, "cs_pin": 17, "sclk_pin": -1,
        "reference_hz": 25000000, "multiplier": 20, "auto_commit": true,
        "domain": "rf", "name": "synth"
      }}
    ],
    "pollers": [
      {"domain": "rf", "kind": "dds", "name": "synth", "verb": "read", "interval_ms": 5000, "jitter_ms": 250}
    ]
  },
  "heartbeat": {"interval": 2}
}`

const cfgSim = `{
  "hal": {
    "devices": [
      {"id": "dds0", "type": "ad9959", "params": {
        "bus": "spi0", "reset_pin": 20, "update_pin": 21, "cs_pin": 17, "sclk_pin": 18,
        "reference_hz": 25000000, "multiplier": 20, "auto_commit": false,
        "domain": "rf", "name": "synth"
      }}
    ]
  },
  "heartbeat": {"interval": 10}
}`

var embeddedConfigs = map[string][]byte{
	"pico-dds": []byte(cfgPicoDDS),
	"sim":      []byte(cfgSim),
}
