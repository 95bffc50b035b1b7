// Package config loads run settings from YAML.
//
//	source: https://example.com/report.pdf
//	password: ${REPORT_PASSWORD}
//	pages: [2, 1]
//	revive_contents: true
//	collect_garbage: true
//	http:
//	  timeout: 10s
//	  max_bytes: 10485760
//	log:
//	  level: debug
//	  format: json
//
// Keys left out keep the values of [Default].
package config
