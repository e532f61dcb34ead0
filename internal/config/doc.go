// Package config provides configuration parsing for the keyedlist CLI.
//
// The configuration is stored in keyedlist.json in the working directory.
// Every field is optional; missing values fall back to defaults.
//
// # Configuration File Structure
//
//	{
//	  "server": {"host": "localhost", "port": 3000},
//	  "metrics": {"enabled": true, "path": "/metrics", "namespace": "keyedlist"},
//	  "tracing": {"enabled": false, "tracerName": "keyedlist"},
//	  "log": {"level": "info", "format": "text"},
//	  "replay": {"interval": "1s", "key": "id"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
