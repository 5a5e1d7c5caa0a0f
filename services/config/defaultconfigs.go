package config

// Embedded per-board configuration, keyed by board name. Firmware has no
// filesystem to load from.

const cfgPico = `
endpoint: http://jumpnet-host:4080
interval: 60s
log_level: info
`

const cfgFeather = `
endpoint: http://jumpnet-host:4080
interval: 30s
log_level: info
`

var embeddedConfigs = map[string][]byte{
	"pico":           []byte(cfgPico),
	"feather-rp2040": []byte(cfgFeather),
}
