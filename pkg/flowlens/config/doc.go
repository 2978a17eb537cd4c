/*
Package config loads service configuration from YAML or JSON files.

Config is a typed, default-returning view over the decoded document.
Keys are dotted paths into nested sections:

	cfg, err := config.FromFile("flowlens.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	refresh := cfg.Duration("analysis.refresh_interval", 30*time.Second)

Settings is the validated service configuration built from a Config.
Missing keys take the defaults of DefaultSettings; invalid values are
rejected with an errors.ValidationError naming the offending key:

	settings, err := config.LoadSettings("flowlens.yaml")

An empty path yields the defaults. A minimal file:

	server:
	  addr: ":1880"
	analysis:
	  refresh_interval: 30s
	  max_concurrency: 8
	store:
	  driver: sqlite
	  path: ./flowlens.db
	flows:
	  path: ~/.node-red/flows.json
	  watch: true
	log:
	  level: info
	  format: json

Config is safe for concurrent read access.
*/
package config
